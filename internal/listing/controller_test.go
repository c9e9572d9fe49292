package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
)

type seenRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
}

type fakeUpstream struct {
	mu       sync.Mutex
	requests []seenRequest
	handler  http.HandlerFunc
}

func newFakeUpstream(t *testing.T, handler http.HandlerFunc) (*fakeUpstream, *apiclient.Client) {
	t.Helper()
	f := &fakeUpstream{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, seenRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Body: string(body)})
		f.mu.Unlock()
		f.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, apiclient.New(apiclient.Config{BaseURL: srv.URL})
}

func (f *fakeUpstream) all() []seenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]seenRequest(nil), f.requests...)
}

func (f *fakeUpstream) gets() []seenRequest {
	var out []seenRequest
	for _, r := range f.all() {
		if r.Method == http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeUpstream) last() seenRequest {
	all := f.all()
	return all[len(all)-1]
}

func writeList(w http.ResponseWriter, collection string, page, pages, total int, ids ...string) {
	records := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		records = append(records, map[string]interface{}{"_id": id, "name": "record " + id, "email": id + "@example.com"})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			collection:   records,
			"pagination": map[string]int{"page": page, "limit": 10, "total": total, "pages": pages},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func pageOf(r *http.Request) int {
	var page int
	_, _ = fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
	return page
}

func idsOf[T Record](records []T) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.RecordID())
	}
	return ids
}

func mustSchema(t *testing.T, entity string) Schema {
	t.Helper()
	schema, ok := Lookup(entity)
	require.True(t, ok)
	return schema
}

func TestSetFilterResetsPageBeforeFetching(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, "bookings", pageOf(r), 5, 50, "b1")
	})
	ctrl, err := New[models.Booking](mustSchema(t, "bookings"), client)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ctrl.SetPage(ctx, 3))
	assert.Equal(t, "3", upstream.last().Query.Get("page"))

	require.NoError(t, ctrl.SetFilter(ctx, "status", "Pending"))

	last := upstream.last()
	assert.Equal(t, "/api/admin/bookings", last.Path)
	assert.Equal(t, "1", last.Query.Get("page"))
	assert.Equal(t, "Pending", last.Query.Get("status"))
	assert.Equal(t, "10", last.Query.Get("limit"))
	assert.Equal(t, 1, ctrl.Snapshot().Page)
}

func TestFetchOmitsSentinelFilters(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, "users", 1, 1, 1, "u1")
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)

	require.NoError(t, ctrl.Fetch(context.Background()))

	query := upstream.last().Query
	assert.Equal(t, url.Values{"page": {"1"}, "limit": {"10"}}, query)

	require.NoError(t, ctrl.SetFilter(context.Background(), "search", "  asha "))
	assert.Equal(t, "asha", upstream.last().Query.Get("search"))
	assert.Empty(t, upstream.last().Query.Get("status"))
}

func TestSuccessfulFetchReplacesRecordsAndTotalsTogether(t *testing.T) {
	var calls int32
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1)%2 == 0 {
			writeList(w, "users", 1, 1, 3, "a", "b", "c")
			return
		}
		writeList(w, "users", 1, 1, 2, "x", "y")
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)

	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			view := ctrl.Snapshot()
			if view.Loaded {
				assert.Equal(t, view.Total, len(view.Records))
				assert.Equal(t, 1, view.PageCount)
			}
		}
	}()

	for i := 0; i < 10; i++ {
		require.NoError(t, ctrl.Fetch(context.Background()))
	}
	close(stop)
	readers.Wait()

	view := ctrl.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, idsOf(view.Records))
	assert.False(t, view.Loading)
	assert.Empty(t, view.Error)
}

func TestFailedFetchLeavesRecordsAndClearsLoading(t *testing.T) {
	var fail atomic.Bool
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "database unavailable"})
			return
		}
		writeList(w, "users", 1, 1, 2, "u1", "u2")
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, ctrl.Fetch(ctx))
	before := ctrl.Snapshot()
	ctrl.Notices()

	fail.Store(true)
	err = ctrl.SetFilter(ctx, "status", "inactive")
	require.Error(t, err)

	after := ctrl.Snapshot()
	assert.Equal(t, before.Records, after.Records)
	assert.Equal(t, before.Total, after.Total)
	assert.False(t, after.Loading)
	assert.Equal(t, "database unavailable", after.Error)
	assert.Equal(t, "inactive", after.Filters["status"])

	notices := ctrl.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
	assert.Empty(t, ctrl.Notices())

	fail.Store(false)
	require.NoError(t, ctrl.Fetch(ctx))
	assert.Empty(t, ctrl.Snapshot().Error)
}

func TestTransportFailureLeavesLoadingFalse(t *testing.T) {
	client := apiclient.New(apiclient.Config{BaseURL: "http://127.0.0.1:1"})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)

	require.Error(t, ctrl.Fetch(context.Background()))

	view := ctrl.Snapshot()
	assert.False(t, view.Loading)
	assert.False(t, view.Loaded)
	assert.Equal(t, "network error, please try again", view.Error)
	assert.Empty(t, view.Records)
}

func TestFetchTwiceReturnsSameRecords(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, "users", 1, 1, 3, "u3", "u1", "u2")
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)

	require.NoError(t, ctrl.Fetch(context.Background()))
	first := ctrl.Snapshot().Records
	require.NoError(t, ctrl.Fetch(context.Background()))
	second := ctrl.Snapshot().Records

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"u3", "u1", "u2"}, idsOf(second))
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") == "inactive" {
			close(arrived)
			<-release
			writeList(w, "users", 1, 1, 1, "stale")
			return
		}
		writeList(w, "users", 1, 1, 1, "fresh")
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- ctrl.SetFilter(ctx, "status", "inactive") }()
	<-arrived

	assert.True(t, ctrl.Snapshot().Loading)
	require.NoError(t, ctrl.SetFilter(ctx, "status", "active"))
	close(release)
	require.NoError(t, <-done)

	view := ctrl.Snapshot()
	assert.Equal(t, []string{"fresh"}, idsOf(view.Records))
	assert.Equal(t, "active", view.Filters["status"])
	assert.False(t, view.Loading)
}

func TestSuccessfulMutationRefetchesOnce(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeList(w, "users", 1, 1, 1, "u1")
		case http.MethodPost:
			writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": map[string]string{"_id": "u2"}})
		}
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.Fetch(ctx))
	require.NoError(t, ctrl.OpenModal(ModalCreating, ""))
	before := len(upstream.gets())

	err = ctrl.Mutate(ctx, Mutation{Kind: MutationCreate, Payload: map[string]interface{}{
		"name": "Asha", "email": "asha@example.com", "password": "secret123",
	}})
	require.NoError(t, err)

	assert.Len(t, upstream.gets(), before+1)
	post := upstream.all()[before]
	assert.Equal(t, http.MethodPost, post.Method)
	assert.Equal(t, "/api/admin/users", post.Path)
	assert.JSONEq(t, `{"name":"Asha","email":"asha@example.com","password":"secret123"}`, post.Body)

	view := ctrl.Snapshot()
	assert.Equal(t, ModalIdle, view.Modal)
	assert.Nil(t, view.Selection)
	notices := ctrl.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeSuccess, notices[0].Level)
}

func TestMutationRefetchUsesStateCurrentWhenItFires(t *testing.T) {
	var ctrl *Controller[models.User]
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeList(w, "users", pageOf(r), 4, 40, "u1")
		case http.MethodPatch:
			assert.NoError(t, ctrl.SetFilter(r.Context(), "status", "suspended"))
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		}
	})
	var err error
	ctrl, err = New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.SetPage(ctx, 2))

	require.NoError(t, ctrl.Mutate(ctx, Mutation{Kind: MutationToggleStatus, ID: "u1", Payload: map[string]interface{}{"status": "inactive"}}))

	all := upstream.all()
	var patchAt int
	for i, r := range all {
		if r.Method == http.MethodPatch {
			patchAt = i
			assert.Equal(t, "/api/admin/users/u1/status", r.Path)
		}
	}
	after := all[patchAt+1:]
	require.Len(t, after, 2)
	refetch := after[1]
	assert.Equal(t, "suspended", refetch.Query.Get("status"))
	assert.Equal(t, "1", refetch.Query.Get("page"))
}

func TestFailedMutationKeepsModalOpen(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeList(w, "users", 1, 1, 1, "u1")
		case http.MethodPut:
			writeJSON(w, http.StatusConflict, map[string]interface{}{"success": false, "message": "email already used"})
		}
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.Fetch(ctx))
	require.NoError(t, ctrl.OpenModal(ModalEditing, "u1"))
	gets := len(upstream.gets())

	err = ctrl.Mutate(ctx, Mutation{Kind: MutationUpdate, ID: "u1", Payload: map[string]interface{}{"name": "U", "email": "u@example.com"}})
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	view := ctrl.Snapshot()
	assert.Equal(t, ModalEditing, view.Modal)
	require.NotNil(t, view.Selection)
	assert.Equal(t, "u1", view.Selection.ID)
	assert.Equal(t, "email already used", view.Error)
	assert.Len(t, upstream.gets(), gets)
}

func TestDeleteRefetchKeepsPageAndReflectsNewPageCount(t *testing.T) {
	var pages atomic.Int32
	pages.Store(3)
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			p := int(pages.Load())
			writeList(w, "users", pageOf(r), p, p*10-1, "u11", "u12")
		case http.MethodDelete:
			pages.Store(2)
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.SetPage(ctx, 2))
	require.NoError(t, ctrl.OpenModal(ModalConfirmingDelete, "u12"))

	require.NoError(t, ctrl.Mutate(ctx, Mutation{Kind: MutationDelete, ID: "u12"}))

	last := upstream.last()
	assert.Equal(t, http.MethodGet, last.Method)
	assert.Equal(t, "2", last.Query.Get("page"))

	view := ctrl.Snapshot()
	assert.Equal(t, 2, view.Page)
	assert.Equal(t, 2, view.PageCount)
	assert.Equal(t, ModalIdle, view.Modal)
}

func TestPageBeyondPageCountIsClamped(t *testing.T) {
	var pages atomic.Int32
	pages.Store(3)
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			p := int(pages.Load())
			writeList(w, "users", pageOf(r), p, p*10, "u1")
		case http.MethodDelete:
			pages.Store(2)
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "deleted"})
		}
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.SetPage(ctx, 3))

	require.NoError(t, ctrl.Mutate(ctx, Mutation{Kind: MutationDelete, ID: "u1"}))

	gets := upstream.gets()
	require.GreaterOrEqual(t, len(gets), 2)
	assert.Equal(t, "3", gets[len(gets)-2].Query.Get("page"))
	assert.Equal(t, "2", gets[len(gets)-1].Query.Get("page"))

	view := ctrl.Snapshot()
	assert.Equal(t, 2, view.Page)
	assert.Equal(t, 2, view.PageCount)
}

func TestEmptyResultResetsPageToOne(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, "users", pageOf(r), 0, 0)
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)

	require.NoError(t, ctrl.SetPage(context.Background(), 4))

	view := ctrl.Snapshot()
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 0, view.PageCount)
	assert.Empty(t, view.Records)
	assert.NotNil(t, view.Records)
}

func TestCreateWithMissingFieldMakesNoCall(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)

	err = ctrl.Mutate(context.Background(), Mutation{Kind: MutationCreate, Payload: map[string]interface{}{
		"name": "Asha", "email": "  ", "password": "secret123",
	}})

	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "email", fieldErr.Field)
	assert.Contains(t, ctrl.Snapshot().Error, "email")
	assert.Empty(t, upstream.all())
}

func TestMutationValidation(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
	})
	ctrl, err := New[models.AdminAccount](mustSchema(t, "admins"), client)
	require.NoError(t, err)
	ctx := context.Background()

	cases := []struct {
		name  string
		m     Mutation
		field string
	}{
		{name: "unknown kind", m: Mutation{Kind: "archive", ID: "a1"}, field: "kind"},
		{name: "update without id", m: Mutation{Kind: MutationUpdate, Payload: map[string]interface{}{"name": "A", "email": "a@example.com", "role": "admin"}}, field: "id"},
		{name: "delete without id", m: Mutation{Kind: MutationDelete}, field: "id"},
		{name: "invalid email", m: Mutation{Kind: MutationCreate, Payload: map[string]interface{}{"name": "A", "email": "nope", "password": "p", "role": "admin"}}, field: "email"},
		{name: "missing role", m: Mutation{Kind: MutationUpdate, ID: "a1", Payload: map[string]interface{}{"name": "A", "email": "a@example.com"}}, field: "role"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ctrl.Mutate(ctx, tc.m)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.field, fieldErr.Field)
		})
	}
	assert.Empty(t, upstream.all())
}

func TestToggleStatusUsesSchemaSubresource(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeList(w, "experts", 1, 1, 1, "e1")
		default:
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		}
	})
	ctrl, err := New[models.Expert](mustSchema(t, "experts"), client)
	require.NoError(t, err)

	require.NoError(t, ctrl.Mutate(context.Background(), Mutation{Kind: MutationToggleStatus, ID: "e1", Payload: map[string]interface{}{"isVerified": true}}))

	var patch seenRequest
	for _, r := range upstream.all() {
		if r.Method == http.MethodPatch {
			patch = r
		}
	}
	assert.Equal(t, "/api/admin/experts/e1/verify", patch.Path)
	assert.JSONEq(t, `{"isVerified":true}`, patch.Body)
}

func TestUnsuccessfulEnvelopeIsAFailure(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeList(w, "content", 1, 1, 1, "c1")
		default:
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": "already published"})
		}
	})
	ctrl, err := New[models.ContentItem](mustSchema(t, "content"), client)
	require.NoError(t, err)
	require.NoError(t, ctrl.Fetch(context.Background()))

	err = ctrl.Mutate(context.Background(), Mutation{Kind: MutationToggleStatus, ID: "c1"})
	require.Error(t, err)
	assert.Equal(t, "already published", ctrl.Snapshot().Error)
}

func TestUnsuccessfulEnvelopeWithoutMessageKeepsModalOpen(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeList(w, "users", 1, 1, 1, "u1")
		case http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": false})
		}
	})
	obs := &recordingObserver{}
	ctrl, err := New[models.User](mustSchema(t, "users"), client, WithMutationObserver(obs))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.Fetch(ctx))
	require.NoError(t, ctrl.OpenModal(ModalConfirmingDelete, "u1"))

	err = ctrl.Mutate(ctx, Mutation{Kind: MutationDelete, ID: "u1"})
	var unsuccessful *apiclient.UnsuccessfulError
	require.ErrorAs(t, err, &unsuccessful)

	view := ctrl.Snapshot()
	assert.Equal(t, ModalConfirmingDelete, view.Modal)
	require.NotNil(t, view.Selection)
	assert.Equal(t, "u1", view.Selection.ID)
	notices := ctrl.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeError, notices[0].Level)
	assert.Empty(t, obs.seen)
}

func TestUnauthorizedRefetchAfterMutationIsReturned(t *testing.T) {
	var mutated atomic.Bool
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPatch:
			mutated.Store(true)
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		case mutated.Load():
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Token expired"})
		default:
			writeList(w, "users", 1, 1, 1, "u1")
		}
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.Fetch(ctx))

	err = ctrl.Mutate(ctx, Mutation{Kind: MutationToggleStatus, ID: "u1"})
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.Equal(t, "Token expired", ctrl.Snapshot().Error)
}

func TestFailedRefetchAfterMutationStillReportsSuccess(t *testing.T) {
	var mutated atomic.Bool
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPatch:
			mutated.Store(true)
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		case mutated.Load():
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"success": false, "message": "maintenance"})
		default:
			writeList(w, "users", 1, 1, 1, "u1")
		}
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.Fetch(ctx))

	require.NoError(t, ctrl.Mutate(ctx, Mutation{Kind: MutationToggleStatus, ID: "u1"}))
	assert.Equal(t, "maintenance", ctrl.Snapshot().Error)
}

func TestMutationsDoNotDependOnModalState(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeList(w, "users", 1, 1, 1, "u1")
		default:
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		}
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, ctrl.Fetch(ctx))
	require.NoError(t, ctrl.OpenModal(ModalCreating, ""))

	require.NoError(t, ctrl.Mutate(ctx, Mutation{Kind: MutationDelete, ID: "u1"}))

	var deleted bool
	for _, r := range upstream.all() {
		if r.Method == http.MethodDelete && r.Path == "/api/admin/users/u1" {
			deleted = true
		}
	}
	assert.True(t, deleted)
	assert.Equal(t, ModalIdle, ctrl.Snapshot().Modal)
}

func TestMutationObserverSeesAcceptedMutations(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, "users", 1, 1, 1, "u1")
	})
	obs := &recordingObserver{}
	ctrl, err := New[models.User](mustSchema(t, "users"), client, WithMutationObserver(obs))
	require.NoError(t, err)

	require.NoError(t, ctrl.Mutate(context.Background(), Mutation{Kind: MutationDelete, ID: "u1"}))
	_ = ctrl.Mutate(context.Background(), Mutation{Kind: MutationDelete})

	require.Len(t, obs.seen, 1)
	assert.Equal(t, "users:delete:u1", obs.seen[0])
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingObserver) Mutated(_ context.Context, entity string, m Mutation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, fmt.Sprintf("%s:%s:%s", entity, m.Kind, m.ID))
}

func TestModalStateMachine(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, "users", 1, 1, 2, "u1", "u2")
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	require.NoError(t, ctrl.Fetch(context.Background()))

	require.ErrorIs(t, ctrl.OpenModal(ModalViewing, "missing"), ErrRecordNotOnPage)
	assert.Equal(t, ModalIdle, ctrl.Snapshot().Modal)

	require.NoError(t, ctrl.OpenModal(ModalViewing, "u2"))
	require.NoError(t, ctrl.OpenModal(ModalEditing, ""))
	view := ctrl.Snapshot()
	assert.Equal(t, ModalEditing, view.Modal)
	require.NotNil(t, view.Selection)
	assert.Equal(t, "u2", view.Selection.ID)

	require.ErrorIs(t, ctrl.OpenModal(ModalConfirmingDelete, "u2"), ErrInvalidTransition)
	require.ErrorIs(t, ctrl.OpenModal(ModalCreating, ""), ErrInvalidTransition)
	require.NoError(t, ctrl.OpenModal(ModalViewing, ""))

	ctrl.CloseModal()
	view = ctrl.Snapshot()
	assert.Equal(t, ModalIdle, view.Modal)
	assert.Nil(t, view.Selection)

	require.NoError(t, ctrl.OpenModal(ModalCreating, ""))
	assert.Nil(t, ctrl.Snapshot().Selection)
	require.ErrorIs(t, ctrl.OpenModal(ModalViewing, "u1"), ErrInvalidTransition)
	require.ErrorIs(t, ctrl.OpenModal("floating", ""), ErrInvalidTransition)
	require.NoError(t, ctrl.OpenModal(ModalIdle, ""))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(ModalIdle, ModalViewing))
	assert.True(t, CanTransition(ModalViewing, ModalConfirmingDelete))
	assert.True(t, CanTransition(ModalConfirmingDelete, ModalIdle))
	assert.False(t, CanTransition(ModalCreating, ModalEditing))
	assert.False(t, CanTransition(ModalConfirmingDelete, ModalEditing))
}

func TestSnapshotIsACopy(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, "users", 1, 1, 1, "u1")
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	require.NoError(t, ctrl.Fetch(context.Background()))

	view := ctrl.Snapshot()
	view.Records[0].ID = "mutated"
	view.Filters["status"] = "active"

	again := ctrl.Snapshot()
	assert.Equal(t, "u1", again.Records[0].ID)
	assert.Equal(t, NoFilter, again.Filters["status"])
}

func TestSetFilterAndPageValidation(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeList(w, "users", 1, 1, 0)
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)
	ctx := context.Background()

	var fieldErr *FieldError
	require.ErrorAs(t, ctrl.SetFilter(ctx, "colour", "red"), &fieldErr)
	assert.Equal(t, "colour", fieldErr.Field)
	require.ErrorAs(t, ctrl.SetFilter(ctx, "status", "deleted"), &fieldErr)
	require.ErrorAs(t, ctrl.SetPage(ctx, 0), &fieldErr)
	assert.Equal(t, "page", fieldErr.Field)
	assert.Empty(t, upstream.all())

	require.NoError(t, ctrl.SetFilters(ctx, map[string]string{"status": "active", "role": "premium"}))
	require.Len(t, upstream.all(), 1)
	assert.Equal(t, "premium", upstream.last().Query.Get("role"))
}

func TestUnexpectedShapeIsReported(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{"items": []string{}}})
	})
	ctrl, err := New[models.SubscriptionPlan](mustSchema(t, "subscriptions"), client)
	require.NoError(t, err)

	err = ctrl.Fetch(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedShape)
	assert.Equal(t, ErrUnexpectedShape.Error(), ctrl.Snapshot().Error)
}

func TestMalformedEnvelopeDataIsUnexpectedShape(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": []string{"u1"}})
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)

	err = ctrl.Fetch(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedShape)
	assert.Equal(t, ErrUnexpectedShape.Error(), ctrl.Snapshot().Error)

	_, err = ctrl.Stats(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestStatsPassthrough(t *testing.T) {
	upstream, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": map[string]interface{}{"stats": map[string]int{"total": 42, "active": 40}}})
	})
	ctrl, err := New[models.Payment](mustSchema(t, "payments"), client)
	require.NoError(t, err)

	stats, err := ctrl.Stats(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":42,"active":40}`, string(stats))
	assert.Equal(t, "/api/admin/payments/stats", upstream.last().Path)
}

func TestListStatsAreKeptWithRecords(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"plans":      []map[string]interface{}{{"_id": "p1", "name": "Gold", "price": 19.5}},
				"pagination": map[string]int{"page": 1, "limit": 10, "total": 1, "pages": 1},
				"stats":      map[string]int{"active": 1},
			},
		})
	})
	ctrl, err := New[models.SubscriptionPlan](mustSchema(t, "subscriptions"), client, WithPageSize(25))
	require.NoError(t, err)
	require.NoError(t, ctrl.Fetch(context.Background()))

	view := ctrl.Snapshot()
	assert.Equal(t, 25, view.PageSize)
	assert.JSONEq(t, `{"active":1}`, string(view.Stats))
	assert.Equal(t, "Gold", view.Records[0].Name)
}

func TestCancelledFetchDoesNotStickLoading(t *testing.T) {
	_, client := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctrl, err := New[models.User](mustSchema(t, "users"), client)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, ctrl.Fetch(ctx))
	assert.False(t, ctrl.Snapshot().Loading)
}

func TestNewScreenCoversEveryEntity(t *testing.T) {
	client := apiclient.New(apiclient.Config{BaseURL: "http://upstream.invalid"})
	for _, entity := range Entities() {
		screen, err := NewScreen(entity, client)
		require.NoError(t, err, entity)
		assert.Equal(t, entity, screen.Entity())
		assert.NoError(t, screen.Schema().Validate())
	}
	assert.Len(t, Entities(), 7)

	_, err := NewScreen("reports", client)
	assert.Error(t, err)
}
