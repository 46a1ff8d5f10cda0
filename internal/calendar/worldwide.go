package calendar

import (
	"fmt"
	"time"

	"github.com/starford/almanac/internal/models"
)

// Observance is a worldwide day that falls on the same date every year.
type Observance struct {
	Month time.Month
	Day   int
	Name  string
}

// Observances is the fixed table of worldwide days shown on every calendar.
var Observances = []Observance{
	{time.January, 1, "New Year's Day"},
	{time.February, 4, "World Cancer Day"},
	{time.March, 8, "International Women's Day"},
	{time.March, 22, "World Water Day"},
	{time.April, 7, "World Health Day"},
	{time.April, 22, "Earth Day"},
	{time.May, 1, "International Workers' Day"},
	{time.June, 5, "World Environment Day"},
	{time.September, 21, "International Day of Peace"},
	{time.October, 16, "World Food Day"},
	{time.December, 10, "Human Rights Day"},
	{time.December, 25, "Christmas Day"},
}

// WorldwideEvents expands the observance table for year.
func WorldwideEvents(year int) []models.Event {
	out := make([]models.Event, 0, len(Observances))
	for _, o := range Observances {
		out = append(out, models.Event{
			ID:          fmt.Sprintf("worldwide-%d-%02d-%02d", year, int(o.Month), o.Day),
			Title:       o.Name,
			Description: "worldwide observance: " + o.Name,
			Date:        fmt.Sprintf("%04d-%02d-%02d", year, int(o.Month), o.Day),
			Time:        "00:00",
			Color:       models.WorldwideColor,
			Scope:       models.ScopeWorldwide,
		})
	}
	return out
}
