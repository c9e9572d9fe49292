package models

import "time"

// AuditAction constants represent operator actions worth recording.
const (
	AuditActionLogin  = "LOGIN"
	AuditActionLogout = "LOGOUT"
)

// AuditLog represents one row of the admin audit trail.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	AdminID    string    `db:"admin_id" json:"admin_id"`
	AdminEmail string    `db:"admin_email" json:"admin_email"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Payload    []byte    `db:"payload" json:"payload,omitempty"`
	RequestID  string    `db:"request_id" json:"request_id"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter scopes audit trail listings.
type AuditFilter struct {
	AdminID  string
	Resource string
	Page     int
	PageSize int
}
