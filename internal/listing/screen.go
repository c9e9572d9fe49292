package listing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noah-isme/wellness-admin/internal/models"
)

// Screen is the entity independent surface of a Controller.
type Screen interface {
	Entity() string
	Schema() Schema
	Loaded() bool
	Fetch(ctx context.Context) error
	SetFilter(ctx context.Context, name, value string) error
	SetFilters(ctx context.Context, values map[string]string) error
	SetPage(ctx context.Context, n int) error
	OpenModal(state ModalState, id string) error
	CloseModal()
	Mutate(ctx context.Context, m Mutation) error
	Stats(ctx context.Context) (json.RawMessage, error)
	Notices() []Notice
	Pagination() models.Pagination
	View() interface{}
}

// View returns Snapshot behind the Screen interface.
func (c *Controller[T]) View() interface{} {
	return c.Snapshot()
}

// NewScreen builds the controller for a built-in entity.
func NewScreen(entity string, api Requester, opts ...Option) (Screen, error) {
	schema, ok := Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", entity)
	}

	switch entity {
	case "users":
		return build[models.User](schema, api, opts)
	case "experts":
		return build[models.Expert](schema, api, opts)
	case "bookings":
		return build[models.Booking](schema, api, opts)
	case "payments":
		return build[models.Payment](schema, api, opts)
	case "subscriptions":
		return build[models.SubscriptionPlan](schema, api, opts)
	case "content":
		return build[models.ContentItem](schema, api, opts)
	case "admins":
		return build[models.AdminAccount](schema, api, opts)
	}
	return nil, fmt.Errorf("no record type for entity %q", entity)
}

func build[T Record](schema Schema, api Requester, opts []Option) (Screen, error) {
	c, err := New[T](schema, api, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}
