package store

import (
	"context"
	"time"

	"github.com/starford/almanac/internal/models"
)

// HolidayTTL is the staleness window of a cached holiday payload.
const HolidayTTL = 30 * 24 * time.Hour

// EventStore is the durable store of personal events.
// Consumers should depend on this interface rather than the concrete *DB type.
type EventStore interface {
	CreateEvent(ctx context.Context, e models.Event) (models.Event, error)
	UpdateEvent(ctx context.Context, id string, f models.EventFields) (models.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (models.Event, error)
	ListByScope(ctx context.Context, scope models.Scope) ([]models.Event, error)
}

// HolidayCache maps a year to the raw holiday payload fetched for it.
type HolidayCache interface {
	GetHolidays(ctx context.Context, year int, country string) ([]byte, bool, error)
	PutHolidays(ctx context.Context, year int, country string, payload []byte) error
}

// NotificationStore keeps notifications raised about personal events.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) (bool, error)
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
}

// Verify *DB satisfies the interfaces at compile time.
var (
	_ EventStore        = (*DB)(nil)
	_ HolidayCache      = (*DB)(nil)
	_ NotificationStore = (*DB)(nil)
)
