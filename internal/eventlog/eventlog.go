// Package eventlog records an activity log of management actions. Events are
// queued on a buffered channel and persisted by a background worker so that
// request handlers never wait on the log.
package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	BuildingCreated  = "building.created"
	RoomCreated      = "room.created"
	TenantCreated    = "tenant.created"
	TenantUpdated    = "tenant.updated"
	TenantVacated    = "tenant.vacated"
	TenantDeleted    = "tenant.deleted"
	PaymentRecorded  = "payment.recorded"
	PaymentDeleted   = "payment.deleted"
	DocumentUploaded = "document.uploaded"
	DocumentDeleted  = "document.deleted"
	CheckoutStarted  = "checkout.started"
	UserLoggedIn     = "user.logged_in"
)

type Event struct {
	ID   string
	Type string

	// Subject is the ID of the entity the event is about (usually a tenant),
	// used to list a tenant's activity.
	Subject   string
	Data      map[string]string
	CreatedAt time.Time
}

type EventOption func(*Event)

func WithType(eventType string) EventOption {
	return func(e *Event) {
		e.Type = eventType
	}
}

func WithSubject(subject string) EventOption {
	return func(e *Event) {
		e.Subject = subject
	}
}

func WithData(data map[string]string) EventOption {
	return func(e *Event) {
		e.Data = data
	}
}

func NewEvent(opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Data:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Sink persists events.
type Sink interface {
	SaveEvent(ctx context.Context, e Event) error

	// ListEvents returns the newest events for subject, at most limit.
	ListEvents(ctx context.Context, subject string, limit int) ([]Event, error)
}

// Logger accepts events for asynchronous persistence.
type Logger interface {
	Log(e Event)
}

// Discard is a Logger that drops every event.
var Discard Logger = discard{}

type discard struct{}

func (discard) Log(Event) {}
