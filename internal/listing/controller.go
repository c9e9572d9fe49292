package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin/internal/models"
	"github.com/noah-isme/wellness-admin/pkg/apiclient"
)

// Record is an entity row addressable by its upstream identifier.
type Record interface {
	RecordID() string
}

// Requester is the subset of the API client the controller needs.
type Requester interface {
	Get(ctx context.Context, path string, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Put(ctx context.Context, path string, body, out interface{}) error
	Patch(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
}

// MutationKind names a mutation verb.
type MutationKind string

const (
	MutationCreate       MutationKind = "create"
	MutationUpdate       MutationKind = "update"
	MutationToggleStatus MutationKind = "toggleStatus"
	MutationDelete       MutationKind = "delete"
)

// Mutation is one create/update/status/delete request against the entity endpoint.
type Mutation struct {
	Kind    MutationKind           `json:"kind"`
	ID      string                 `json:"id,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// MutationObserver is told about every mutation the upstream accepted.
type MutationObserver interface {
	Mutated(ctx context.Context, entity string, m Mutation)
}

// View is an immutable snapshot of a screen.
type View[T Record] struct {
	Entity    string            `json:"entity"`
	Filters   map[string]string `json:"filters"`
	Page      int               `json:"page"`
	PageSize  int               `json:"pageSize"`
	Total     int               `json:"total"`
	PageCount int               `json:"pageCount"`
	Records   []T               `json:"records"`
	Stats     json.RawMessage   `json:"stats,omitempty"`
	Loading   bool              `json:"loading"`
	Loaded    bool              `json:"loaded"`
	Error     string            `json:"error,omitempty"`
	Modal     ModalState        `json:"modal"`
	Selection *T                `json:"selection,omitempty"`
}

// Option customises a controller.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	observer MutationObserver
	pageSize int
	now      func() time.Time
}

// WithLogger sets the controller logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMutationObserver registers a callback for accepted mutations.
func WithMutationObserver(obs MutationObserver) Option {
	return func(o *options) { o.observer = obs }
}

// WithPageSize overrides the schema page size when size is positive.
func WithPageSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithClock replaces the notice clock.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Controller owns the list state of one entity screen.
type Controller[T Record] struct {
	schema   Schema
	api      Requester
	logger   *zap.Logger
	observer MutationObserver
	validate *validator.Validate
	now      func() time.Time
	notices  noticeQueue

	mu         sync.Mutex
	filters    map[string]string
	page       int
	pageSize   int
	records    []T
	total      int
	pageCount  int
	stats      json.RawMessage
	loaded     bool
	inflight   int
	lastErr    string
	generation uint64
	modal      ModalState
	selection  *T
}

// New builds a controller for schema talking to api.
func New[T Record](schema Schema, api Requester, opts ...Option) (*Controller[T], error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if api == nil {
		return nil, errors.New("listing: requester is required")
	}

	o := options{logger: zap.NewNop(), pageSize: schema.PageSize, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Controller[T]{
		schema:   schema,
		api:      api,
		logger:   o.logger.With(zap.String("entity", schema.Entity)),
		observer: o.observer,
		validate: validator.New(),
		now:      o.now,
		filters:  schema.defaultFilters(),
		page:     1,
		pageSize: o.pageSize,
		records:  []T{},
		modal:    ModalIdle,
	}, nil
}

// Entity returns the entity name.
func (c *Controller[T]) Entity() string {
	return c.schema.Entity
}

// Schema returns the schema the controller was built with.
func (c *Controller[T]) Schema() Schema {
	return c.schema
}

// Loaded reports whether at least one fetch has succeeded.
func (c *Controller[T]) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// SetFilter updates one filter, re-anchors to page 1 and fetches.
func (c *Controller[T]) SetFilter(ctx context.Context, name, value string) error {
	spec, ok := c.schema.filter(name)
	if !ok {
		return &FieldError{Field: name, Message: ErrUnknownFilter.Error()}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = spec.Sentinel
	}
	if !spec.accepts(value) {
		return &FieldError{Field: name, Message: fmt.Sprintf("must be one of %s, %s", spec.Sentinel, strings.Join(spec.Options, ", "))}
	}

	c.mu.Lock()
	c.filters[name] = value
	c.page = 1
	c.mu.Unlock()

	return c.Fetch(ctx)
}

// SetFilters applies several filters at once with a single fetch.
func (c *Controller[T]) SetFilters(ctx context.Context, values map[string]string) error {
	normalized := make(map[string]string, len(values))
	for name, value := range values {
		spec, ok := c.schema.filter(name)
		if !ok {
			return &FieldError{Field: name, Message: ErrUnknownFilter.Error()}
		}
		value = strings.TrimSpace(value)
		if value == "" {
			value = spec.Sentinel
		}
		if !spec.accepts(value) {
			return &FieldError{Field: name, Message: fmt.Sprintf("must be one of %s, %s", spec.Sentinel, strings.Join(spec.Options, ", "))}
		}
		normalized[name] = value
	}

	c.mu.Lock()
	for name, value := range normalized {
		c.filters[name] = value
	}
	c.page = 1
	c.mu.Unlock()

	return c.Fetch(ctx)
}

// SetPage moves to page n and fetches.
func (c *Controller[T]) SetPage(ctx context.Context, n int) error {
	if n < 1 {
		return &FieldError{Field: "page", Message: "page must be at least 1"}
	}

	c.mu.Lock()
	c.page = n
	c.mu.Unlock()

	return c.Fetch(ctx)
}

// Fetch loads the current (filters, page). A successful result whose page lies
// beyond the reported page count is clamped and fetched once more.
func (c *Controller[T]) Fetch(ctx context.Context) error {
	clamped, err := c.fetchOnce(ctx)
	if err != nil || !clamped {
		return err
	}
	_, err = c.fetchOnce(ctx)
	return err
}

type listResult[T Record] struct {
	records    []T
	pagination models.Pagination
	stats      json.RawMessage
}

func (c *Controller[T]) fetchOnce(ctx context.Context) (bool, error) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	query := c.queryLocked()
	c.inflight++
	c.mu.Unlock()

	result, err := c.load(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if gen != c.generation {
		c.logger.Debug("discarding stale list response", zap.Uint64("generation", gen), zap.Uint64("latest", c.generation))
		return false, nil
	}

	if err != nil {
		c.failLocked(err)
		return false, err
	}

	c.records = result.records
	c.total = result.pagination.Total
	c.pageCount = result.pagination.Pages
	c.stats = result.stats
	c.loaded = true
	c.lastErr = ""

	switch {
	case c.pageCount == 0 && c.page != 1:
		c.page = 1
	case c.pageCount >= 1 && c.page > c.pageCount:
		c.page = c.pageCount
		return true, nil
	}
	return false, nil
}

func (c *Controller[T]) load(ctx context.Context, query url.Values) (listResult[T], error) {
	var env apiclient.Envelope
	if err := c.api.Get(ctx, c.schema.basePath()+"?"+query.Encode(), &env); err != nil {
		return listResult[T]{}, err
	}

	var data map[string]json.RawMessage
	if err := env.Unwrap(&data); err != nil {
		return listResult[T]{}, err
	}

	rawRecords, ok := data[c.schema.Collection]
	if !ok {
		return listResult[T]{}, fmt.Errorf("%w: missing %q", ErrUnexpectedShape, c.schema.Collection)
	}

	records := []T{}
	if string(rawRecords) != "null" {
		if err := json.Unmarshal(rawRecords, &records); err != nil {
			return listResult[T]{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
	}

	var pagination models.Pagination
	if rawPagination, ok := data["pagination"]; ok && string(rawPagination) != "null" {
		if err := json.Unmarshal(rawPagination, &pagination); err != nil {
			return listResult[T]{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
		}
	} else {
		pagination = models.Pagination{Page: 1, Limit: len(records), Total: len(records)}
		if len(records) > 0 {
			pagination.Pages = 1
		}
	}

	return listResult[T]{records: records, pagination: pagination, stats: data["stats"]}, nil
}

// queryLocked builds page, limit and every filter not at its sentinel.
func (c *Controller[T]) queryLocked() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(c.page))
	q.Set("limit", strconv.Itoa(c.pageSize))
	for _, f := range c.schema.Filters {
		value := c.filters[f.Name]
		if value == f.Sentinel {
			continue
		}
		q.Set(f.param(), value)
	}
	return q
}

// Stats passes through the entity stats endpoint.
func (c *Controller[T]) Stats(ctx context.Context) (json.RawMessage, error) {
	var env apiclient.Envelope
	if err := c.api.Get(ctx, c.schema.basePath()+"/stats", &env); err != nil {
		return nil, err
	}
	var data struct {
		Stats json.RawMessage `json:"stats"`
	}
	if err := env.Unwrap(&data); err != nil {
		return nil, err
	}
	if len(data.Stats) == 0 {
		return json.RawMessage("{}"), nil
	}
	return data.Stats, nil
}

// OpenModal moves the modal state machine. Record-bound states select the record
// with the given ID from the current page.
func (c *Controller[T]) OpenModal(state ModalState, id string) error {
	if !state.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, state)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if state == ModalIdle {
		c.modal = ModalIdle
		c.selection = nil
		return nil
	}
	if !CanTransition(c.modal, state) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, c.modal, state)
	}

	if !state.RecordBound() {
		c.modal = state
		c.selection = nil
		return nil
	}

	if id == "" && c.selection != nil {
		id = (*c.selection).RecordID()
	}
	for i := range c.records {
		if c.records[i].RecordID() == id {
			selected := c.records[i]
			c.selection = &selected
			c.modal = state
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRecordNotOnPage, id)
}

// CloseModal returns the modal to idle and clears the selection.
func (c *Controller[T]) CloseModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modal = ModalIdle
	c.selection = nil
}

// Mutate validates, sends the mutation and on success refetches exactly once with
// the state current at refetch time.
func (c *Controller[T]) Mutate(ctx context.Context, m Mutation) error {
	if err := c.check(m); err != nil {
		c.mu.Lock()
		c.failLocked(err)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()

	err := c.send(ctx, m)

	c.mu.Lock()
	c.inflight--
	if err != nil {
		c.failLocked(err)
		c.mu.Unlock()
		return err
	}
	c.modal = ModalIdle
	c.selection = nil
	c.lastErr = ""
	c.mu.Unlock()

	c.notices.push(NoticeSuccess, successMessage(c.schema.Entity, m.Kind), c.now())
	if c.observer != nil {
		c.observer.Mutated(ctx, c.schema.Entity, m)
	}

	if err := c.Fetch(ctx); err != nil {
		c.logger.Warn("refetch after mutation failed", zap.String("kind", string(m.Kind)), zap.Error(err))
		// an expired upstream session must reach the caller so it can end the console session
		if apiclient.IsUnauthorized(err) {
			return err
		}
	}
	return nil
}

func (c *Controller[T]) check(m Mutation) error {
	var fields []string
	switch m.Kind {
	case MutationCreate:
		fields = c.schema.RequiredOnCreate
	case MutationUpdate:
		fields = c.schema.RequiredOnUpdate
	case MutationToggleStatus, MutationDelete:
	default:
		return &FieldError{Field: "kind", Message: fmt.Sprintf("unsupported mutation %q", m.Kind)}
	}

	if m.Kind != MutationCreate && strings.TrimSpace(m.ID) == "" {
		return required("id")
	}
	if m.Kind == MutationToggleStatus && c.schema.StatusSubresource == "" {
		return &FieldError{Field: "kind", Message: "status transitions are not supported"}
	}

	for _, field := range fields {
		if isBlank(m.Payload[field]) {
			return required(field)
		}
	}
	for _, field := range c.schema.EmailFields {
		value, ok := m.Payload[field].(string)
		if !ok || value == "" {
			continue
		}
		if err := c.validate.Var(value, "email"); err != nil {
			return &FieldError{Field: field, Message: field + " must be a valid email address"}
		}
	}
	return nil
}

func isBlank(v interface{}) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(value) == ""
	case []interface{}:
		return len(value) == 0
	}
	return false
}

func (c *Controller[T]) send(ctx context.Context, m Mutation) error {
	base := c.schema.basePath()
	recordPath := base + "/" + url.PathEscape(m.ID)

	var env apiclient.Envelope
	var err error
	switch m.Kind {
	case MutationCreate:
		err = c.api.Post(ctx, base, payloadOrEmpty(m.Payload), &env)
	case MutationUpdate:
		err = c.api.Put(ctx, recordPath, payloadOrEmpty(m.Payload), &env)
	case MutationToggleStatus:
		err = c.api.Patch(ctx, recordPath+"/"+c.schema.StatusSubresource, payloadOrEmpty(m.Payload), &env)
	case MutationDelete:
		err = c.api.Delete(ctx, recordPath, &env)
	}
	if err != nil {
		return err
	}
	// 204 responses carry no envelope.
	if env.Empty() {
		return nil
	}
	return env.Unwrap(nil)
}

func payloadOrEmpty(p map[string]interface{}) map[string]interface{} {
	if p == nil {
		return map[string]interface{}{}
	}
	return p
}

func successMessage(entity string, kind MutationKind) string {
	switch kind {
	case MutationCreate:
		return entity + ": record created"
	case MutationUpdate:
		return entity + ": record updated"
	case MutationToggleStatus:
		return entity + ": status updated"
	case MutationDelete:
		return entity + ": record deleted"
	}
	return entity + ": saved"
}

func (c *Controller[T]) failLocked(err error) {
	msg := ErrorMessage(err)
	c.lastErr = msg
	c.notices.push(NoticeError, msg, c.now())
	c.logger.Debug("screen operation failed", zap.Error(err))
}

// ErrorMessage converts any controller error into the operator facing message.
func ErrorMessage(err error) string {
	var fieldErr *FieldError
	var apiErr *apiclient.Error
	var unsuccessful *apiclient.UnsuccessfulError
	switch {
	case errors.As(err, &fieldErr):
		return fieldErr.Message
	case errors.As(err, &apiErr):
		return apiErr.Message()
	case errors.As(err, &unsuccessful):
		return unsuccessful.Error()
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, ErrUnexpectedShape):
		return ErrUnexpectedShape.Error()
	case err != nil:
		return "network error, please try again"
	}
	return ""
}

// Notices drains the pending notices.
func (c *Controller[T]) Notices() []Notice {
	return c.notices.drain()
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	filters := make(map[string]string, len(c.filters))
	for k, v := range c.filters {
		filters[k] = v
	}
	records := make([]T, len(c.records))
	copy(records, c.records)

	var selection *T
	if c.selection != nil {
		s := *c.selection
		selection = &s
	}

	return View[T]{
		Entity:    c.schema.Entity,
		Filters:   filters,
		Page:      c.page,
		PageSize:  c.pageSize,
		Total:     c.total,
		PageCount: c.pageCount,
		Records:   records,
		Stats:     append(json.RawMessage(nil), c.stats...),
		Loading:   c.inflight > 0,
		Loaded:    c.loaded,
		Error:     c.lastErr,
		Modal:     c.modal,
		Selection: selection,
	}
}

// Pagination returns the cursor as last reported by the server.
func (c *Controller[T]) Pagination() models.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.Pagination{Page: c.page, Limit: c.pageSize, Total: c.total, Pages: c.pageCount}
}
