package eventservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/almanac/internal/calendar"
	"github.com/starford/almanac/internal/models"
)

// ErrRefresh marks a mutation that was stored but whose view could not be
// rebuilt. Callers must not retry the write.
var ErrRefresh = errors.New("event saved, view refresh failed")

// View is the state a client renders: the month being shown and the
// aggregated events of its year. Operations return a new View and never
// modify the one passed in.
//
// Adjacent holds the national and worldwide events of a neighbouring year
// that fall inside the grid, e.g. January 1st in a December grid.
type View struct {
	Reference time.Time      `json:"reference"`
	Year      int            `json:"year"`
	Events    []models.Event `json:"events"`
	Adjacent  []models.Event `json:"adjacent,omitempty"`
}

// Accept installs events computed for year. Results for a year the view has
// since moved away from are discarded and false is returned.
func (v *View) Accept(year int, events []models.Event) bool {
	if year != v.Year {
		return false
	}
	v.Events = events
	return true
}

// Grid lays out the reference month.
func (v *View) Grid() []models.DayCell {
	return calendar.BuildGrid(v.Reference)
}

// EventsForDay returns the events on day of the reference month.
func (v *View) EventsForDay(day int) []models.Event {
	return calendar.EventsForDay(v.Events, v.Reference, day)
}

// EventsOn returns the events on date.
func (v *View) EventsOn(date string) []models.Event {
	own := calendar.EventsForDate(v.Events, date)
	if len(v.Adjacent) == 0 {
		return own
	}
	return append(own, calendar.EventsForDate(v.Adjacent, date)...)
}

// Open builds the view of the month containing ref.
func (s *Service) Open(ctx context.Context, ref time.Time) (*View, error) {
	events, err := s.agg.EventsForYear(ctx, ref.Year())
	if err != nil {
		return nil, err
	}
	return &View{
		Reference: ref,
		Year:      ref.Year(),
		Events:    events,
		Adjacent:  s.adjacent(ctx, ref),
	}, nil
}

// adjacent collects the derived events of the previous or next year whose
// dates fall inside the grid of ref. Personal events of every year are
// already part of the view.
func (s *Service) adjacent(ctx context.Context, ref time.Time) []models.Event {
	cells := calendar.BuildGrid(ref)
	first, last := cells[0], cells[len(cells)-1]

	var out []models.Event
	for _, c := range []models.DayCell{first, last} {
		if c.Year == ref.Year() {
			continue
		}
		for _, e := range s.agg.DerivedEvents(ctx, c.Year) {
			if e.Date >= first.Date() && e.Date <= last.Date() {
				out = append(out, e)
			}
		}
	}
	return out
}

// Navigate moves v by months. Events are recomputed only when the year
// changes; on error v is returned as is.
func (s *Service) Navigate(ctx context.Context, v *View, months int) (*View, error) {
	ref := calendar.AddMonths(v.Reference, months)
	if ref.Year() == v.Year {
		return &View{Reference: ref, Year: v.Year, Events: v.Events, Adjacent: s.adjacent(ctx, ref)}, nil
	}
	next, err := s.Open(ctx, ref)
	if err != nil {
		return v, err
	}
	return next, nil
}

// Create stores a personal event and returns the refreshed view. A failed
// refresh after a successful write returns v and an error matching
// ErrRefresh.
func (s *Service) Create(ctx context.Context, v *View, f models.EventFields) (*View, error) {
	if _, err := s.CreateEvent(ctx, f); err != nil {
		return v, err
	}
	return s.refresh(ctx, v)
}

// Update changes a personal event and returns the refreshed view.
func (s *Service) Update(ctx context.Context, v *View, id string, f models.EventFields) (*View, error) {
	if _, err := s.UpdateEvent(ctx, id, f); err != nil {
		return v, err
	}
	return s.refresh(ctx, v)
}

// Delete removes a personal event and returns the refreshed view.
func (s *Service) Delete(ctx context.Context, v *View, id string) (*View, error) {
	if err := s.DeleteEvent(ctx, id); err != nil {
		return v, err
	}
	return s.refresh(ctx, v)
}

func (s *Service) refresh(ctx context.Context, v *View) (*View, error) {
	events, err := s.agg.EventsForYear(ctx, v.Year)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrRefresh, err)
	}
	return &View{Reference: v.Reference, Year: v.Year, Events: events, Adjacent: v.Adjacent}, nil
}
