// Package models defines the domain types for Almanac.
package models

import (
	"fmt"
	"time"
)

// Scope classifies where an event comes from and who owns it.
type Scope string

// Event scopes.
const (
	ScopePersonal  Scope = "personal"
	ScopeNational  Scope = "national"
	ScopeWorldwide Scope = "worldwide"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopePersonal, ScopeNational, ScopeWorldwide:
		return true
	}
	return false
}

// Layouts used for the string-typed date and time fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Colors applied when an event carries none.
const (
	DefaultColor   = "#3b82f6"
	NationalColor  = "#ef4444"
	WorldwideColor = "#10b981"
)

// PaletteColor is a named swatch offered to clients.
type PaletteColor struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Palette is the set of colors the event form offers.
var Palette = []PaletteColor{
	{Name: "blue", Value: "#3b82f6"},
	{Name: "green", Value: "#10b981"},
	{Name: "red", Value: "#ef4444"},
	{Name: "amber", Value: "#f59e0b"},
	{Name: "purple", Value: "#8b5cf6"},
	{Name: "pink", Value: "#ec4899"},
}

// Event is a single calendar entry. Personal events are stored; national and
// worldwide events are derived per query and are read-only.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Color       string `json:"color"`
	Scope       Scope  `json:"scope"`
}

// ReadOnly reports whether the event is derived and cannot be mutated.
func (e Event) ReadOnly() bool {
	return e.Scope == ScopeNational || e.Scope == ScopeWorldwide
}

// Start combines Date and Time in loc. It fails for malformed fields.
func (e Event) Start(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, e.Date+" "+e.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("event %s: start: %w", e.ID, err)
	}
	return t, nil
}

// EventFields holds the mutable part of a personal event.
type EventFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Color       string `json:"color"`
}

// Membership tells which month a grid cell belongs to.
type Membership string

// Grid cell memberships.
const (
	MonthPrevious Membership = "previous"
	MonthCurrent  Membership = "current"
	MonthNext     Membership = "next"
)

// DayCell is one of the 42 positions of a month grid.
type DayCell struct {
	Day        int        `json:"day"`
	Membership Membership `json:"membership"`
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
}

// Date renders the cell's own calendar date as YYYY-MM-DD.
func (c DayCell) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, int(c.Month), c.Day)
}

// Notification is a message raised about a personal event.
type Notification struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification types.
const (
	NotificationUpcoming = "upcoming"
)
