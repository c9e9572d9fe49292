package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/listing"
	"github.com/noah-isme/wellness-admin/internal/models"
	appErrors "github.com/noah-isme/wellness-admin/pkg/errors"
	"github.com/noah-isme/wellness-admin/pkg/jobs"
	"github.com/noah-isme/wellness-admin/pkg/middleware/requestid"
)

// Actor identifies the operator behind a request.
type Actor struct {
	AdminID   string
	Email     string
	IPAddress string
}

type actorKey struct{}

// WithActor attaches the operator to ctx for auditing.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the operator attached by WithActor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok
}

type auditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditConfig configures the audit trail.
type AuditConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
}

// AuditService records operator actions asynchronously.
type AuditService struct {
	repo    auditRepository
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewAuditService constructs the service. With auditing disabled every call is a no-op.
func NewAuditService(repo auditRepository, cfg AuditConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{repo: repo, logger: logger, enabled: cfg.Enabled && repo != nil}
	if s.enabled {
		s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
			Workers:    cfg.Workers,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: 500 * time.Millisecond,
			Logger:     logger,
		})
	}
	return s
}

// Enabled reports whether entries are persisted.
func (s *AuditService) Enabled() bool {
	return s != nil && s.enabled
}

// Start launches the background writers.
func (s *AuditService) Start(ctx context.Context) {
	if s.Enabled() {
		s.queue.Start(ctx)
	}
}

// Stop flushes pending entries and stops the writers.
func (s *AuditService) Stop() {
	if s.Enabled() {
		s.queue.Stop()
	}
}

// Record queues one audit entry for the operator in ctx. Failures are logged only.
func (s *AuditService) Record(ctx context.Context, action, resource, resourceID string, payload interface{}) {
	if !s.Enabled() {
		return
	}

	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Resource:  resource,
		RequestID: requestid.FromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
	if actor, ok := ActorFromContext(ctx); ok {
		entry.AdminID = actor.AdminID
		entry.AdminEmail = actor.Email
		entry.IPAddress = actor.IPAddress
	}
	if resourceID != "" {
		id := resourceID
		entry.ResourceID = &id
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("audit payload not encodable", zap.String("action", action), zap.Error(err))
		} else {
			entry.Payload = raw
		}
	}

	if err := s.queue.TryEnqueue(jobs.Job{ID: entry.ID, Type: "audit:" + action, Payload: entry}); err != nil {
		s.logger.Warn("audit entry dropped", zap.String("action", action), zap.String("resource", resource), zap.Error(err))
	}
}

// Mutated implements listing.MutationObserver. Only payload field names are kept.
func (s *AuditService) Mutated(ctx context.Context, entity string, m listing.Mutation) {
	fields := make([]string, 0, len(m.Payload))
	for key := range m.Payload {
		fields = append(fields, key)
	}
	sort.Strings(fields)
	s.Record(ctx, string(m.Kind), entity, m.ID, map[string]interface{}{"fields": fields})
}

// List returns a page of the audit trail.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	if !s.Enabled() {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "audit trail is disabled")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}

	pages := 0
	if total > 0 {
		pages = (total + filter.PageSize - 1) / filter.PageSize
	}
	return logs, &models.Pagination{Page: filter.Page, Limit: filter.PageSize, Total: total, Pages: pages}, nil
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.repo.Create(ctx, entry)
}
