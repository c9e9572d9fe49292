package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
)

type upstreamCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]interface{}
}

type fakeAdminAPI struct {
	mu     sync.Mutex
	calls  []upstreamCall
	routes map[string]http.HandlerFunc
}

// newFakeAdminAPI serves routes keyed by "METHOD /path"; unknown routes answer 404.
func newFakeAdminAPI(t *testing.T, routes map[string]http.HandlerFunc) (*fakeAdminAPI, *apiclient.Client) {
	t.Helper()
	f := &fakeAdminAPI{routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)
		f.mu.Lock()
		f.calls = append(f.calls, upstreamCall{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		handler, ok := f.routes[r.Method+" "+r.URL.Path]
		f.mu.Unlock()
		if !ok {
			respond(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "no route"})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, apiclient.New(apiclient.Config{BaseURL: srv.URL})
}

func (f *fakeAdminAPI) recorded() []upstreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upstreamCall(nil), f.calls...)
}

func (f *fakeAdminAPI) count(method, path string) int {
	n := 0
	for _, call := range f.recorded() {
		if call.Method == method && call.Path == path {
			n++
		}
	}
	return n
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func okEnvelope(data interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
	}
}

func failEnvelope(status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		respond(w, status, map[string]interface{}{"success": false, "message": message})
	}
}

type memoryAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
	created chan struct{}
}

func newMemoryAuditRepo() *memoryAuditRepo {
	return &memoryAuditRepo{created: make(chan struct{}, 64)}
}

func (r *memoryAuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	r.mu.Lock()
	r.entries = append(r.entries, *entry)
	r.mu.Unlock()
	r.created <- struct{}{}
	return nil
}

func (r *memoryAuditRepo) List(_ context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.AuditLog
	for _, entry := range r.entries {
		if filter.Resource != "" && entry.Resource != filter.Resource {
			continue
		}
		if filter.AdminID != "" && entry.AdminID != filter.AdminID {
			continue
		}
		matched = append(matched, entry)
	}
	start := (filter.Page - 1) * filter.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (r *memoryAuditRepo) waitFor(t *testing.T, n int) []models.AuditLog {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.created:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for audit entry %d of %d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.AuditLog(nil), r.entries...)
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (r *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	raw, ok := r.entries[key]
	r.mu.Unlock()
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.entries[key] = raw
	r.mu.Unlock()
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.entries {
		if strings.HasPrefix(key, prefix) {
			delete(r.entries, key)
		}
	}
	return nil
}
