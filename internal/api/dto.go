package api

import (
	"time"

	"github.com/starford/almanac/internal/models"
)

// EventRequest is the request body for creating or updating a personal event.
type EventRequest struct {
	Title       string `json:"title" example:"Standup" validate:"required"`
	Description string `json:"description,omitempty" example:"Daily sync"`
	Date        string `json:"date" example:"2024-03-04" validate:"required"`
	Time        string `json:"time" example:"09:00" validate:"required"`
	Color       string `json:"color,omitempty" example:"#3b82f6"`
}

func (r EventRequest) fields() models.EventFields {
	return models.EventFields{
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Date,
		Time:        r.Time,
		Color:       r.Color,
	}
}

// EventListResponse wraps the aggregated events of a year.
type EventListResponse struct {
	Year   int            `json:"year" example:"2024" validate:"required"`
	Events []models.Event `json:"events" validate:"required"`
}

// DayEventsResponse wraps every event on one date.
type DayEventsResponse struct {
	Date   string         `json:"date" example:"2024-03-04" validate:"required"`
	Events []models.Event `json:"events" validate:"required"`
}

// GridCell is one rendered position of the month grid.
type GridCell struct {
	Day        int               `json:"day" example:"4" validate:"required"`
	Date       string            `json:"date" example:"2024-03-04" validate:"required"`
	Membership models.Membership `json:"membership" example:"current" validate:"required"`
	Today      bool              `json:"today"`
	Events     []models.Event    `json:"events" validate:"required"`
	More       int               `json:"more" example:"0"`
}

// GridResponse is the 42-cell month view.
type GridResponse struct {
	Title     string     `json:"title" example:"March 2024" validate:"required"`
	Reference string     `json:"reference" example:"2024-03-04" validate:"required"`
	Cells     []GridCell `json:"cells" validate:"required"`
}

// NotificationListResponse wraps notifications, newest first.
type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications" validate:"required"`
}

// PaletteResponse lists the colors offered for personal events.
type PaletteResponse struct {
	Default string                `json:"default" example:"#3b82f6"`
	Colors  []models.PaletteColor `json:"colors" validate:"required"`
}

// HealthResponse is returned by the health probes.
type HealthResponse struct {
	Status string    `json:"status" example:"ok"`
	Time   time.Time `json:"time"`
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
