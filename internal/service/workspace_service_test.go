package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
)

func emptyList(collection string) http.HandlerFunc {
	return okEnvelope(map[string]interface{}{
		collection:   []interface{}{},
		"pagination": map[string]int{"page": 1, "limit": 10, "total": 0, "pages": 0},
	})
}

func TestWorkspaceMountFetchesOnce(t *testing.T) {
	api, client := newFakeAdminAPI(t, map[string]http.HandlerFunc{
		"GET /api/admin/users": emptyList("users"),
	})
	metrics := NewMetricsService()
	ws := NewWorkspaceService(client, map[string]int{"users": 25}, nil, metrics, zap.NewNop())
	ctx := context.Background()

	first, err := ws.Mount(ctx, "s1", "users")
	require.NoError(t, err)
	second, err := ws.Mount(ctx, "s1", "users")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.True(t, first.Loaded())
	assert.Equal(t, 1, api.count(http.MethodGet, "/api/admin/users"))
	assert.Contains(t, api.recorded()[0].Query, "limit=25")
	assert.EqualValues(t, 1, metrics.Snapshot().MountedScreens)
}

func TestWorkspaceIsolatesSessions(t *testing.T) {
	_, client := newFakeAdminAPI(t, map[string]http.HandlerFunc{
		"GET /api/admin/users":    emptyList("users"),
		"GET /api/admin/bookings": emptyList("bookings"),
	})
	ws := NewWorkspaceService(client, nil, nil, nil, zap.NewNop())
	ctx := context.Background()

	a, err := ws.Mount(ctx, "s1", "users")
	require.NoError(t, err)
	b, err := ws.Mount(ctx, "s2", "users")
	require.NoError(t, err)
	_, err = ws.Mount(ctx, "s1", "bookings")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, []string{"bookings", "users"}, ws.Mounted("s1"))

	assert.True(t, ws.Unmount("s1", "users"))
	assert.False(t, ws.Unmount("s1", "users"))
	assert.Equal(t, []string{"bookings"}, ws.Mounted("s1"))

	assert.Equal(t, 1, ws.Discard("s1"))
	assert.Empty(t, ws.Mounted("s1"))
	assert.Equal(t, []string{"users"}, ws.Mounted("s2"))
}

func TestWorkspaceMountUnknownEntity(t *testing.T) {
	api, client := newFakeAdminAPI(t, nil)
	ws := NewWorkspaceService(client, nil, nil, nil, zap.NewNop())

	_, err := ws.Mount(context.Background(), "s1", "reports")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.Empty(t, api.recorded())
}

func TestWorkspaceMountKeepsFailedInitialFetch(t *testing.T) {
	_, client := newFakeAdminAPI(t, map[string]http.HandlerFunc{
		"GET /api/admin/payments": failEnvelope(http.StatusInternalServerError, "down"),
	})
	ws := NewWorkspaceService(client, nil, nil, nil, zap.NewNop())

	screen, err := ws.Mount(context.Background(), "s1", "payments")
	require.NoError(t, err)

	notices := screen.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, listing.NoticeError, notices[0].Level)
}

func TestWorkspaceMountReturnsUnauthorizedInitialFetch(t *testing.T) {
	_, client := newFakeAdminAPI(t, map[string]http.HandlerFunc{
		"GET /api/admin/users": failEnvelope(http.StatusUnauthorized, "Token expired"),
	})
	metrics := NewMetricsService()
	ws := NewWorkspaceService(client, nil, nil, metrics, zap.NewNop())

	screen, err := ws.Mount(context.Background(), "s1", "users")
	require.Error(t, err)
	assert.Nil(t, screen)
	assert.True(t, apiclient.IsUnauthorized(err))
	assert.Empty(t, ws.Mounted("s1"))
	assert.EqualValues(t, 0, metrics.Snapshot().MountedScreens)
}

func TestWorkspaceSweepDropsIdleSessions(t *testing.T) {
	_, client := newFakeAdminAPI(t, map[string]http.HandlerFunc{
		"GET /api/admin/users":    emptyList("users"),
		"GET /api/admin/bookings": emptyList("bookings"),
	})
	metrics := NewMetricsService()
	ws := NewWorkspaceService(client, nil, nil, metrics, zap.NewNop())
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ws.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := ws.Mount(ctx, "stale", "users")
	require.NoError(t, err)
	_, err = ws.Mount(ctx, "stale", "bookings")
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	_, err = ws.Mount(ctx, "active", "users")
	require.NoError(t, err)
	assert.EqualValues(t, 3, metrics.Snapshot().MountedScreens)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, ws.Sweep(time.Hour))
	assert.Empty(t, ws.Mounted("stale"))
	assert.Equal(t, []string{"users"}, ws.Mounted("active"))
	assert.EqualValues(t, 1, metrics.Snapshot().MountedScreens)

	assert.Equal(t, 0, ws.Sweep(0))
}

func TestWorkspaceSweeperRunsUntilCancelled(t *testing.T) {
	_, client := newFakeAdminAPI(t, map[string]http.HandlerFunc{
		"GET /api/admin/users": emptyList("users"),
	})
	ws := NewWorkspaceService(client, nil, nil, nil, zap.NewNop())
	_, err := ws.Mount(context.Background(), "s1", "users")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws.StartSweeper(ctx, 10*time.Millisecond, time.Nanosecond)

	assert.Eventually(t, func() bool {
		return len(ws.Mounted("s1")) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestWorkspaceMutationsReachMetricsAndAudit(t *testing.T) {
	_, client := newFakeAdminAPI(t, map[string]http.HandlerFunc{
		"GET /api/admin/content":           emptyList("content"),
		"PATCH /api/admin/content/c1/publish": okEnvelope(nil),
	})
	repo := newMemoryAuditRepo()
	audit := NewAuditService(repo, AuditConfig{Enabled: true, Workers: 1}, zap.NewNop())
	audit.Start(context.Background())
	defer audit.Stop()

	ws := NewWorkspaceService(client, nil, audit, NewMetricsService(), zap.NewNop())
	screen, err := ws.Mount(context.Background(), "s1", "content")
	require.NoError(t, err)

	require.NoError(t, screen.Mutate(context.Background(), listing.Mutation{Kind: listing.MutationToggleStatus, ID: "c1"}))

	entries := repo.waitFor(t, 1)
	assert.Equal(t, "content", entries[0].Resource)
	assert.Equal(t, string(listing.MutationToggleStatus), entries[0].Action)
}
