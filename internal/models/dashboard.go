package models

import (
	"encoding/json"
	"time"
)

// DashboardSummary is the pre-aggregated payload of GET /api/admin/dashboard.
type DashboardSummary struct {
	Period         string                     `json:"period,omitempty"`
	Totals         map[string]float64         `json:"totals,omitempty"`
	Charts         map[string]json.RawMessage `json:"charts,omitempty"`
	RecentBookings json.RawMessage            `json:"recentBookings,omitempty"`
}

// DashboardView combines the summary with per-entity stats cards.
type DashboardView struct {
	Summary     DashboardSummary           `json:"summary"`
	Stats       map[string]json.RawMessage `json:"stats"`
	GeneratedAt time.Time                  `json:"generatedAt"`
}

// Notification is a navbar notification entry.
type Notification struct {
	ID        string     `json:"_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message,omitempty"`
	Type      string     `json:"type,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// NavItem is one sidebar entry.
type NavItem struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Path       string `json:"path"`
	Permission string `json:"permission,omitempty"`
}

// Navbar bundles the operator profile and recent notifications.
type Navbar struct {
	Profile       *AdminProfile  `json:"profile,omitempty"`
	Notifications []Notification `json:"notifications"`
	Unread        int            `json:"unread"`
}
