// Package eventservice coordinates personal event mutations with the
// aggregated year view presented to clients.
package eventservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/metrics"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/store"
)

// Aggregator produces the merged event collection of a year.
type Aggregator interface {
	EventsForYear(ctx context.Context, year int) ([]models.Event, error)
	// DerivedEvents returns only the national and worldwide events of year.
	DerivedEvents(ctx context.Context, year int) []models.Event
}

// Notifier is told about every successful mutation.
type Notifier interface {
	PublishEventChange(kind string, e models.Event)
}

// Change kinds passed to Notifier.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Service coordinates the event store, notifications and the aggregator.
type Service struct {
	events   store.EventStore
	notes    store.NotificationStore
	agg      Aggregator
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the change listener.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithMetrics sets the mutation counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a new event service.
func NewService(events store.EventStore, notes store.NotificationStore, agg Aggregator, opts ...Option) *Service {
	s := &Service{
		events: events,
		notes:  notes,
		agg:    agg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EventsForYear delegates to the aggregator.
func (s *Service) EventsForYear(ctx context.Context, year int) ([]models.Event, error) {
	return s.agg.EventsForYear(ctx, year)
}

// EventsOn returns every event of the aggregated collection on date.
func (s *Service) EventsOn(ctx context.Context, date string) ([]models.Event, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, apperr.Validation(validation.Errors{"date": errors.New("must be YYYY-MM-DD")})
	}
	v, err := s.Open(ctx, day)
	if err != nil {
		return nil, err
	}
	return v.EventsOn(date), nil
}

// GetEvent returns a stored personal event.
func (s *Service) GetEvent(ctx context.Context, id string) (models.Event, error) {
	return s.events.GetEvent(ctx, id)
}

// CreateEvent stores a new personal event.
func (s *Service) CreateEvent(ctx context.Context, f models.EventFields) (models.Event, error) {
	e, err := s.events.CreateEvent(ctx, models.Event{
		Title:       f.Title,
		Description: f.Description,
		Date:        f.Date,
		Time:        f.Time,
		Color:       f.Color,
	})
	if err != nil {
		return models.Event{}, err
	}
	s.changed(ChangeCreated, e)
	return e, nil
}

// UpdateEvent replaces the fields of a personal event.
func (s *Service) UpdateEvent(ctx context.Context, id string, f models.EventFields) (models.Event, error) {
	if err := checkWritable(id); err != nil {
		return models.Event{}, err
	}
	e, err := s.events.UpdateEvent(ctx, id, f)
	if err != nil {
		return models.Event{}, err
	}
	s.changed(ChangeUpdated, e)
	return e, nil
}

// DeleteEvent removes a personal event. Deleting an unknown id succeeds.
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	if err := checkWritable(id); err != nil {
		return err
	}
	if err := s.events.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.changed(ChangeDeleted, models.Event{ID: id, Scope: models.ScopePersonal})
	return nil
}

// Notifications lists notifications, newest first.
func (s *Service) Notifications(ctx context.Context) ([]models.Notification, error) {
	return s.notes.ListNotifications(ctx)
}

// MarkNotificationRead flags a notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	return s.notes.MarkNotificationRead(ctx, id)
}

// DismissNotification deletes a notification.
func (s *Service) DismissNotification(ctx context.Context, id string) error {
	return s.notes.DeleteNotification(ctx, id)
}

func (s *Service) changed(kind string, e models.Event) {
	s.metrics.Mutation(kind)
	s.logger.Debug("event "+kind, slog.String("id", e.ID))
	if s.notifier != nil {
		s.notifier.PublishEventChange(kind, e)
	}
}

// checkWritable rejects identifiers of derived events.
func checkWritable(id string) error {
	if strings.HasPrefix(id, "national-") || strings.HasPrefix(id, "worldwide-") {
		return apperr.Validation(validation.Errors{"id": fmt.Errorf("event %s is read-only", id)})
	}
	return nil
}
