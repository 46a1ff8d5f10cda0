// Package calendar merges personal events, national holidays and worldwide
// observances into one collection per year, and lays out month grids.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/almanac/internal/holidays"
	"github.com/starford/almanac/internal/metrics"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/store"
)

// PersonalLister is the slice of the event store the aggregator reads.
type PersonalLister interface {
	ListByScope(ctx context.Context, scope models.Scope) ([]models.Event, error)
}

// Aggregator builds the unified event collection of a year and owns the
// holiday cache freshness policy.
type Aggregator struct {
	events  PersonalLister
	cache   store.HolidayCache
	source  holidays.Source
	country string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets the logger used for degraded holiday resolution.
func WithLogger(l *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// WithMetrics sets the collectors updated on each aggregation.
func WithMetrics(m *metrics.Metrics) AggregatorOption {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// NewAggregator creates an aggregator. A nil source disables national holidays.
func NewAggregator(events PersonalLister, cache store.HolidayCache, source holidays.Source, country string, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		events:  events,
		cache:   cache,
		source:  source,
		country: country,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// EventsForYear returns personal, national and worldwide events, in that
// order. Only a failure to read personal events is reported; holiday
// problems degrade to an empty national set.
func (a *Aggregator) EventsForYear(ctx context.Context, year int) ([]models.Event, error) {
	start := time.Now()
	defer func() { a.metrics.ObserveAggregate(time.Since(start)) }()

	var personal, national []models.Event

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		personal, err = a.events.ListByScope(gCtx, models.ScopePersonal)
		return err
	})
	g.Go(func() error {
		national = a.NationalHolidays(gCtx, year)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calendar: events for %d: %w", year, err)
	}

	worldwide := WorldwideEvents(year)

	out := make([]models.Event, 0, len(personal)+len(national)+len(worldwide))
	out = append(out, personal...)
	out = append(out, national...)
	out = append(out, worldwide...)
	return out, nil
}

// DerivedEvents returns the national and worldwide events of year. It never
// fails; holiday problems degrade to worldwide events only.
func (a *Aggregator) DerivedEvents(ctx context.Context, year int) []models.Event {
	return append(a.NationalHolidays(ctx, year), WorldwideEvents(year)...)
}

// NationalHolidays resolves the holidays of year from the cache, falling back
// to the source on a miss. A successful fetch is written back to the cache;
// a failed one yields an empty slice and leaves the cache untouched.
func (a *Aggregator) NationalHolidays(ctx context.Context, year int) []models.Event {
	if a.source == nil {
		return []models.Event{}
	}
	log := a.logger.With(slog.Int("year", year), slog.String("country", a.country))

	payload, ok, err := a.cache.GetHolidays(ctx, year, a.country)
	if err != nil {
		log.Warn("holiday cache read failed", slog.String("error", err.Error()))
		ok = false
	}
	if ok {
		hs, err := holidays.Decode(payload)
		if err == nil {
			a.metrics.CacheLookup(true)
			return NationalEvents(hs)
		}
		log.Warn("cached holidays unreadable, refetching", slog.String("error", err.Error()))
	}
	a.metrics.CacheLookup(false)

	hs, err := a.source.Fetch(ctx, year)
	if err != nil {
		a.metrics.FetchFailure(err)
		log.Warn("holiday fetch failed", slog.String("error", err.Error()))
		return []models.Event{}
	}

	payload, err = holidays.Encode(hs)
	if err == nil {
		err = a.cache.PutHolidays(ctx, year, a.country, payload)
	}
	if err != nil {
		log.Warn("holiday cache write failed", slog.String("error", err.Error()))
	} else {
		log.Debug("holidays cached", slog.Int("count", len(hs)))
	}
	return NationalEvents(hs)
}

// NationalEvents maps provider holidays to read-only events. A second holiday
// on the same date gets a numeric suffix so identifiers stay unique.
func NationalEvents(hs []holidays.Holiday) []models.Event {
	out := make([]models.Event, 0, len(hs))
	seen := make(map[string]int, len(hs))
	for _, h := range hs {
		id := "national-" + h.Date
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s-%d", id, n)
		}
		name := h.DisplayName()
		out = append(out, models.Event{
			ID:          id,
			Title:       name,
			Description: "national holiday: " + name,
			Date:        h.Date,
			Time:        "00:00",
			Color:       models.NationalColor,
			Scope:       models.ScopeNational,
		})
	}
	return out
}
