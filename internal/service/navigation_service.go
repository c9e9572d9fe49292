package service

import (
	"context"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
)

const (
	notificationsPath  = "/api/admin/notifications"
	navbarNotification = 5
)

var sidebar = []models.NavItem{
	{Key: "dashboard", Label: "Dashboard", Path: "/dashboard"},
	{Key: "users", Label: "Users", Path: "/users", Permission: "users"},
	{Key: "experts", Label: "Experts", Path: "/experts", Permission: "experts"},
	{Key: "bookings", Label: "Bookings", Path: "/bookings", Permission: "bookings"},
	{Key: "payments", Label: "Payments", Path: "/payments", Permission: "payments"},
	{Key: "subscriptions", Label: "Subscriptions", Path: "/subscriptions", Permission: "subscriptions"},
	{Key: "content", Label: "Content", Path: "/content", Permission: "content"},
	{Key: "reports", Label: "Reports", Path: "/reports", Permission: "reports"},
	{Key: "admins", Label: "Admins", Path: "/admins", Permission: "admins"},
	{Key: "settings", Label: "Settings", Path: "/settings"},
}

// NavigationService supplies sidebar entries and navbar data.
type NavigationService struct {
	api    listing.Requester
	auth   *AuthService
	logger *zap.Logger
}

// NewNavigationService constructs a NavigationService.
func NewNavigationService(api listing.Requester, auth *AuthService, logger *zap.Logger) *NavigationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NavigationService{api: api, auth: auth, logger: logger}
}

// Visible returns the sidebar entries admin may open.
func (s *NavigationService) Visible(admin models.AdminProfile) []models.NavItem {
	items := make([]models.NavItem, 0, len(sidebar))
	for _, item := range sidebar {
		if admin.HasPermission(item.Permission) {
			items = append(items, item)
		}
	}
	return items
}

// Navbar loads the profile and recent notifications concurrently. Either part
// failing is logged and leaves that part empty.
func (s *NavigationService) Navbar(ctx context.Context) models.Navbar {
	navbar := models.Navbar{Notifications: []models.Notification{}}

	var g errgroup.Group
	g.Go(func() error {
		profile, err := s.auth.Me(ctx)
		if err != nil {
			s.logger.Warn("navbar profile fetch failed", zap.Error(err))
			return nil
		}
		navbar.Profile = profile
		return nil
	})
	g.Go(func() error {
		notifications, unread, err := s.notifications(ctx)
		if err != nil {
			s.logger.Warn("navbar notifications fetch failed", zap.Error(err))
			return nil
		}
		navbar.Notifications = notifications
		navbar.Unread = unread
		return nil
	})
	_ = g.Wait()

	return navbar
}

func (s *NavigationService) notifications(ctx context.Context) ([]models.Notification, int, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(navbarNotification))
	var env apiclient.Envelope
	if err := s.api.Get(ctx, notificationsPath+"?"+q.Encode(), &env); err != nil {
		return nil, 0, err
	}
	var data struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   *int                  `json:"unreadCount"`
	}
	if err := env.Unwrap(&data); err != nil {
		return nil, 0, err
	}
	if data.Notifications == nil {
		data.Notifications = []models.Notification{}
	}
	if len(data.Notifications) > navbarNotification {
		data.Notifications = data.Notifications[:navbarNotification]
	}
	unread := 0
	if data.UnreadCount != nil {
		unread = *data.UnreadCount
	} else {
		for _, n := range data.Notifications {
			if !n.Read {
				unread++
			}
		}
	}
	return data.Notifications, unread, nil
}

// MarkNotificationRead flags one notification as read.
func (s *NavigationService) MarkNotificationRead(ctx context.Context, id string) error {
	var env apiclient.Envelope
	if err := s.api.Patch(ctx, notificationsPath+"/"+url.PathEscape(id)+"/read", map[string]interface{}{}, &env); err != nil {
		return TranslateError(err)
	}
	return TranslateError(env.Unwrap(nil))
}
