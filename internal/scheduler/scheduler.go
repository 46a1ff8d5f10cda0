// Package scheduler runs periodic background jobs: holiday cache warming
// and upcoming-event reminders.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/starford/almanac/internal/models"
)

// Default job schedules.
const (
	DefaultWarmSpec     = "0 3 * * *"
	DefaultReminderSpec = "*/5 * * * *"
	DefaultReminderLead = 30 * time.Minute
)

// YearAggregator builds the event collection of a year.
type YearAggregator interface {
	EventsForYear(ctx context.Context, year int) ([]models.Event, error)
}

// PersonalLister lists stored events of a scope.
type PersonalLister interface {
	ListByScope(ctx context.Context, scope models.Scope) ([]models.Event, error)
}

// NotificationCreator records a notification, ignoring duplicates.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, n models.Notification) (bool, error)
}

// Scheduler owns the cron engine and its jobs.
type Scheduler struct {
	cron   *cron.Cron
	agg    YearAggregator
	events PersonalLister
	notes  NotificationCreator
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time

	warmSpec     string
	reminderSpec string
	lead         time.Duration
	jobTimeout   time.Duration
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSpecs overrides the cron expressions. Empty values keep the defaults.
func WithSpecs(warm, reminder string) Option {
	return func(s *Scheduler) {
		if warm != "" {
			s.warmSpec = warm
		}
		if reminder != "" {
			s.reminderSpec = reminder
		}
	}
}

// WithReminderLead sets how far ahead events trigger a reminder.
func WithReminderLead(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.lead = d
		}
	}
}

// WithLocation sets the zone used for cron schedules and event times.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		s.loc = loc
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New creates a scheduler. Jobs are registered by Start.
func New(agg YearAggregator, events PersonalLister, notes NotificationCreator, opts ...Option) *Scheduler {
	s := &Scheduler{
		agg:          agg,
		events:       events,
		notes:        notes,
		logger:       slog.Default(),
		loc:          time.Local,
		now:          time.Now,
		warmSpec:     DefaultWarmSpec,
		reminderSpec: DefaultReminderSpec,
		lead:         DefaultReminderLead,
		jobTimeout:   time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithLocation(s.loc))
	return s
}

// Start registers the jobs and starts the engine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.warmSpec, s.job("warm cache", func(ctx context.Context) error {
		return s.WarmCache(ctx)
	})); err != nil {
		return fmt.Errorf("scheduler: warm job %q: %w", s.warmSpec, err)
	}
	if _, err := s.cron.AddFunc(s.reminderSpec, s.job("reminders", func(ctx context.Context) error {
		n, err := s.SendReminders(ctx)
		if n > 0 {
			s.logger.Info("scheduler: reminders created", slog.Int("count", n))
		}
		return err
	})); err != nil {
		return fmt.Errorf("scheduler: reminder job %q: %w", s.reminderSpec, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler: started",
		slog.String("warm_spec", s.warmSpec),
		slog.String("reminder_spec", s.reminderSpec),
		slog.Duration("reminder_lead", s.lead))
	return nil
}

// Stop stops the engine and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler: stopped")
}

// Run starts the scheduler and stops it when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) job(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduler: job failed", slog.String("job", name), slog.String("error", err.Error()))
		}
	}
}

// WarmCache aggregates the current and the next year so their holidays are
// cached before anyone navigates there.
func (s *Scheduler) WarmCache(ctx context.Context) error {
	year := s.now().In(s.loc).Year()
	var errs []error
	for _, y := range []int{year, year + 1} {
		if _, err := s.agg.EventsForYear(ctx, y); err != nil {
			errs = append(errs, fmt.Errorf("year %d: %w", y, err))
		}
	}
	return errors.Join(errs...)
}

// SendReminders creates an upcoming notification for every personal event
// that starts within the reminder lead. It returns how many were new.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	events, err := s.events.ListByScope(ctx, models.ScopePersonal)
	if err != nil {
		return 0, fmt.Errorf("scheduler: reminders: %w", err)
	}
	now := s.now().In(s.loc)
	horizon := now.Add(s.lead)

	created := 0
	for _, e := range events {
		start, err := e.Start(s.loc)
		if err != nil {
			s.logger.Warn("scheduler: skipping event", slog.String("id", e.ID), slog.String("error", err.Error()))
			continue
		}
		if start.Before(now) || start.After(horizon) {
			continue
		}
		ok, err := s.notes.CreateNotification(ctx, models.Notification{
			EventID: e.ID,
			Type:    models.NotificationUpcoming,
			Message: fmt.Sprintf("%s starts at %s", e.Title, e.Time),
		})
		if err != nil {
			return created, fmt.Errorf("scheduler: reminders: %w", err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}
