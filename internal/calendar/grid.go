package calendar

import (
	"fmt"
	"time"

	"github.com/starford/almanac/internal/models"
)

// GridCells is the fixed size of a month grid: six weeks of seven days.
const GridCells = 42

// DefaultOverflow is how many events a grid cell shows before "+N more".
const DefaultOverflow = 3

// BuildGrid lays out the month containing ref as 42 cells starting on Sunday.
// Leading and trailing cells carry days of the adjacent months.
func BuildGrid(ref time.Time) []models.DayCell {
	year, month, _ := ref.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := int(first.Weekday())

	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)
	daysInPrev := daysIn(prev.Year(), prev.Month())
	daysInMonth := daysIn(year, month)

	cells := make([]models.DayCell, 0, GridCells)
	for i := 1; i <= offset; i++ {
		cells = append(cells, models.DayCell{
			Day:        daysInPrev - offset + i,
			Membership: models.MonthPrevious,
			Year:       prev.Year(),
			Month:      prev.Month(),
		})
	}
	for d := 1; d <= daysInMonth; d++ {
		cells = append(cells, models.DayCell{
			Day:        d,
			Membership: models.MonthCurrent,
			Year:       year,
			Month:      month,
		})
	}
	for d := 1; len(cells) < GridCells; d++ {
		cells = append(cells, models.DayCell{
			Day:        d,
			Membership: models.MonthNext,
			Year:       next.Year(),
			Month:      next.Month(),
		})
	}
	return cells
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EventsForDate returns every event whose date equals date exactly.
func EventsForDate(events []models.Event, date string) []models.Event {
	var out []models.Event
	for _, e := range events {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}

// EventsForDay returns the events on day of the month containing ref.
func EventsForDay(events []models.Event, ref time.Time, day int) []models.Event {
	return EventsForDate(events, fmt.Sprintf("%04d-%02d-%02d", ref.Year(), int(ref.Month()), day))
}

// Overflow truncates events to limit for display and reports how many were
// left out.
func Overflow(events []models.Event, limit int) (shown []models.Event, more int) {
	if limit < 0 || len(events) <= limit {
		return events, 0
	}
	return events[:limit], len(events) - limit
}

// AddMonths moves ref by n months, pinned to the first of the month so that
// 31 January plus one is February rather than March.
func AddMonths(ref time.Time, n int) time.Time {
	y, m, _ := ref.Date()
	return time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, ref.Location())
}

// IsToday reports whether cell is the calendar day of now.
func IsToday(cell models.DayCell, now time.Time) bool {
	y, m, d := now.Date()
	return cell.Year == y && cell.Month == m && cell.Day == d
}

// MonthTitle renders the grid heading, e.g. "March 2024".
func MonthTitle(ref time.Time) string {
	return ref.Format("January 2006")
}
