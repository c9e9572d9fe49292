package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/models"
)

func newNavigation(t *testing.T, routes map[string]http.HandlerFunc) (*fakeAdminAPI, *NavigationService) {
	t.Helper()
	api, client := newFakeAdminAPI(t, routes)
	auth := NewAuthService(client, nil, nil, nil, zap.NewNop())
	return api, NewNavigationService(client, auth, zap.NewNop())
}

func navKeys(items []models.NavItem) []string {
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key)
	}
	return keys
}

func TestNavigationVisibleFiltersByPermission(t *testing.T) {
	_, svc := newNavigation(t, nil)

	items := svc.Visible(models.AdminProfile{Role: models.RoleAdmin, Permissions: []string{"users", "reports"}})
	assert.Equal(t, []string{"dashboard", "users", "reports", "settings"}, navKeys(items))

	all := svc.Visible(models.AdminProfile{Role: models.RoleSuperAdmin})
	assert.Len(t, all, len(sidebar))
}

func TestNavigationNavbarLoadsBothParts(t *testing.T) {
	api, svc := newNavigation(t, map[string]http.HandlerFunc{
		"GET /api/admin/auth/me": okEnvelope(map[string]interface{}{"admin": testAdmin}),
		"GET /api/admin/notifications": okEnvelope(map[string]interface{}{
			"notifications": []map[string]interface{}{
				{"_id": "n1", "title": "New booking", "read": false},
				{"_id": "n2", "title": "Refund", "read": true},
			},
		}),
	})

	navbar := svc.Navbar(context.Background())
	require.NotNil(t, navbar.Profile)
	assert.Equal(t, "a1", navbar.Profile.ID)
	assert.Len(t, navbar.Notifications, 2)
	assert.Equal(t, 1, navbar.Unread)

	for _, call := range api.recorded() {
		if call.Path == "/api/admin/notifications" {
			assert.Equal(t, "limit=5", call.Query)
		}
	}
}

func TestNavigationNavbarToleratesFailures(t *testing.T) {
	_, svc := newNavigation(t, map[string]http.HandlerFunc{
		"GET /api/admin/auth/me":       failEnvelope(http.StatusInternalServerError, "boom"),
		"GET /api/admin/notifications": okEnvelope(map[string]interface{}{"notifications": []interface{}{}, "unreadCount": 7}),
	})

	navbar := svc.Navbar(context.Background())
	assert.Nil(t, navbar.Profile)
	assert.NotNil(t, navbar.Notifications)
	assert.Equal(t, 7, navbar.Unread)
}

func TestNavigationMarkNotificationRead(t *testing.T) {
	api, svc := newNavigation(t, map[string]http.HandlerFunc{
		"PATCH /api/admin/notifications/n1/read": okEnvelope(nil),
	})

	require.NoError(t, svc.MarkNotificationRead(context.Background(), "n1"))
	assert.Equal(t, 1, api.count(http.MethodPatch, "/api/admin/notifications/n1/read"))

	err := svc.MarkNotificationRead(context.Background(), "missing")
	require.Error(t, err)
}
