package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/wellness-admin/internal/models"
)

// QueryObserver receives database query timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// AuditRepository persists the operator audit trail.
type AuditRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewAuditRepository creates a new AuditRepository. observer may be nil.
func NewAuditRepository(db *sqlx.DB, observer QueryObserver) *AuditRepository {
	return &AuditRepository{db: db, observer: observer}
}

func (r *AuditRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// Create inserts one audit entry, assigning ID and timestamp when missing.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO admin_audit_logs (id, admin_id, admin_email, action, resource, resource_id, payload, request_id, ip_address, created_at)
VALUES (:id, :admin_id, :admin_email, :action, :resource, :resource_id, :payload, :request_id, :ip_address, :created_at)`
	defer r.observe("audit_insert", time.Now())
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List returns audit entries newest first with the total count.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	baseQuery := `FROM admin_audit_logs WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AdminID != "" {
		conditions = append(conditions, fmt.Sprintf("admin_id = $%d", len(args)+1))
		args = append(args, filter.AdminID)
	}
	if filter.Resource != "" {
		conditions = append(conditions, fmt.Sprintf("resource = $%d", len(args)+1))
		args = append(args, filter.Resource)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	defer r.observe("audit_list", time.Now())

	listQuery := fmt.Sprintf("SELECT id, admin_id, admin_email, action, resource, resource_id, payload, request_id, ip_address, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)
	logs := []models.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	return logs, total, nil
}
