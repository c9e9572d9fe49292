package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
)

// WorkspaceService keeps the mounted list screens of every session.
type WorkspaceService struct {
	api       listing.Requester
	pageSizes map[string]int
	observer  listing.MutationObserver
	metrics   *MetricsService
	logger    *zap.Logger

	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionScreens
}

// sessionScreens holds the screens of one session and when the session last touched them.
type sessionScreens struct {
	screens  map[string]listing.Screen
	lastSeen time.Time
}

// NewWorkspaceService constructs the registry. audit may be nil.
func NewWorkspaceService(api listing.Requester, pageSizes map[string]int, audit *AuditService, metrics *MetricsService, logger *zap.Logger) *WorkspaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceService{
		api:       api,
		pageSizes: pageSizes,
		observer:  mutationFanout{audit: audit, metrics: metrics},
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
		sessions:  make(map[string]*sessionScreens),
	}
}

// Mount returns the session's screen for entity, creating it on first access.
// A newly created screen performs its initial fetch before Mount returns; a failed
// initial fetch is reflected in the screen state, not returned, except for an upstream
// 401 which the caller needs in order to end the session.
func (s *WorkspaceService) Mount(ctx context.Context, sessionID, entity string) (listing.Screen, error) {
	if _, ok := listing.Lookup(entity); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown screen "+entity)
	}

	s.mu.Lock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		entry = &sessionScreens{screens: make(map[string]listing.Screen)}
		s.sessions[sessionID] = entry
	}
	entry.lastSeen = s.now()
	screen, exists := entry.screens[entity]
	if !exists {
		var err error
		screen, err = listing.NewScreen(entity, s.api,
			listing.WithLogger(s.logger),
			listing.WithMutationObserver(s.observer),
			listing.WithPageSize(s.pageSizes[entity]),
		)
		if err != nil {
			s.mu.Unlock()
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mount screen")
		}
		entry.screens[entity] = screen
	}
	s.mu.Unlock()

	if !exists {
		s.metrics.AddMountedScreens(1)
		if err := screen.Fetch(ctx); err != nil {
			s.logger.Debug("initial screen fetch failed", zap.String("entity", entity), zap.Error(err))
			if apiclient.IsUnauthorized(err) {
				s.Unmount(sessionID, entity)
				return nil, err
			}
		}
	}
	return screen, nil
}

// Unmount discards one screen. It reports whether the screen was mounted.
func (s *WorkspaceService) Unmount(sessionID, entity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return false
	}
	if _, ok := entry.screens[entity]; !ok {
		return false
	}
	delete(entry.screens, entity)
	if len(entry.screens) == 0 {
		delete(s.sessions, sessionID)
	}
	s.metrics.AddMountedScreens(-1)
	return true
}

// Discard drops every screen of a session and returns how many were mounted.
func (s *WorkspaceService) Discard(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return 0
	}
	delete(s.sessions, sessionID)
	n := len(entry.screens)
	if n > 0 {
		s.metrics.AddMountedScreens(-n)
	}
	return n
}

// Sweep drops the screens of every session that has not mounted or opened a screen
// for idle. With idle set to the session TTL only sessions that have expired are
// affected. It returns the number of sessions dropped.
func (s *WorkspaceService) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped, screens int
	for id, entry := range s.sessions {
		if entry.lastSeen.After(cutoff) {
			continue
		}
		screens += len(entry.screens)
		delete(s.sessions, id)
		dropped++
	}
	if screens > 0 {
		s.metrics.AddMountedScreens(-screens)
	}
	return dropped
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *WorkspaceService) StartSweeper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(idle); n > 0 {
					s.logger.Info("idle workspaces discarded", zap.Int("sessions", n))
				}
			}
		}
	}()
}

// Mounted lists the entities mounted for a session.
func (s *WorkspaceService) Mounted(sessionID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[sessionID]
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(entry.screens))
	for name := range entry.screens {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type mutationFanout struct {
	audit   *AuditService
	metrics *MetricsService
}

func (f mutationFanout) Mutated(ctx context.Context, entity string, m listing.Mutation) {
	f.metrics.RecordMutation(entity, string(m.Kind))
	if f.audit != nil {
		f.audit.Mutated(ctx, entity, m)
	}
}
