package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-chi/chi/v5"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/calendar"
	"github.com/starford/almanac/internal/checksum"
	"github.com/starford/almanac/internal/eventservice"
	"github.com/starford/almanac/internal/export"
	"github.com/starford/almanac/internal/models"
)

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *eventservice.Service
	now func() time.Time
}

// NewHandler creates a new Handler.
func NewHandler(svc *eventservice.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) yearParam(raw string) (int, error) {
	if raw == "" {
		return h.now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, apperr.Validation(validation.Errors{"year": errors.New("must be a year between 1 and 9999")})
	}
	return year, nil
}

func (h *Handler) dateParam(raw string) (time.Time, error) {
	if raw == "" {
		return h.now(), nil
	}
	t, err := time.ParseInLocation(models.DateLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, apperr.Validation(validation.Errors{"date": errors.New("must be YYYY-MM-DD")})
	}
	return t, nil
}

func decodeEvent(w http.ResponseWriter, r *http.Request) (EventRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return EventRequest{}, false
	}
	return req, true
}

// ListEvents handles GET /api/events.
//
//	@Summary		Aggregated events of a year
//	@Tags			events
//	@Produce		json
//	@Param			year	query		int	false	"Year, defaults to the current one"
//	@Success		200		{object}	EventListResponse
//	@Success		304		"Not modified"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearParam(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, "list events", err)
		return
	}
	events, err := h.svc.EventsForYear(r.Context(), year)
	if err != nil {
		writeError(w, "list events", err)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(EventListResponse{Year: year, Events: nonNilSlice(events)}); err != nil {
		writeError(w, "list events", err)
		return
	}
	etag := checksum.ETag(buf.Bytes())
	w.Header().Set("ETag", etag)
	if checksum.Match(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetEvent handles GET /api/events/{id}.
//
//	@Summary		Get a personal event
//	@Tags			events
//	@Produce		json
//	@Param			id	path		string	true	"Event id"
//	@Success		200	{object}	models.Event
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get event", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateEvent handles POST /api/events.
//
//	@Summary		Create a personal event
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EventRequest	true	"Event to create"
//	@Success		201		{object}	models.Event
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events [post]
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	e, err := h.svc.CreateEvent(r.Context(), req.fields())
	if err != nil {
		writeError(w, "create event", err)
		return
	}
	w.Header().Set("Location", "/api/events/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

// UpdateEvent handles PUT /api/events/{id}.
//
//	@Summary		Replace the fields of a personal event
//	@Tags			events
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Event id"
//	@Param			body	body		EventRequest	true	"New fields"
//	@Success		200		{object}	models.Event
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id} [put]
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEvent(w, r)
	if !ok {
		return
	}
	e, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req.fields())
	if err != nil {
		writeError(w, "update event", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeleteEvent handles DELETE /api/events/{id}. Unknown ids are not an error.
//
//	@Summary		Delete a personal event
//	@Tags			events
//	@Param			id	path	string	true	"Event id"
//	@Success		204	"Event deleted"
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/events/{id} [delete]
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvent(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete event", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Grid handles GET /api/grid.
//
//	@Summary		Month grid around a date
//	@Tags			calendar
//	@Produce		json
//	@Param			date	query		string	false	"Reference date (YYYY-MM-DD), defaults to today"
//	@Success		200		{object}	GridResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/grid [get]
func (h *Handler) Grid(w http.ResponseWriter, r *http.Request) {
	ref, err := h.dateParam(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, "grid", err)
		return
	}
	v, err := h.svc.Open(r.Context(), ref)
	if err != nil {
		writeError(w, "grid", err)
		return
	}
	writeJSON(w, http.StatusOK, BuildGridResponse(v, h.now()))
}

// BuildGridResponse renders v as a grid. Each cell lists at most
// calendar.DefaultOverflow events and counts the rest in More.
func BuildGridResponse(v *eventservice.View, now time.Time) GridResponse {
	cells := v.Grid()
	out := GridResponse{
		Title:     calendar.MonthTitle(v.Reference),
		Reference: v.Reference.Format(models.DateLayout),
		Cells:     make([]GridCell, 0, len(cells)),
	}
	for _, c := range cells {
		date := c.Date()
		shown, more := calendar.Overflow(v.EventsOn(date), calendar.DefaultOverflow)
		out.Cells = append(out.Cells, GridCell{
			Day:        c.Day,
			Date:       date,
			Membership: c.Membership,
			Today:      calendar.IsToday(c, now),
			Events:     nonNilSlice(shown),
			More:       more,
		})
	}
	return out
}

// DayEvents handles GET /api/days/{date}.
//
//	@Summary		Every event on a date
//	@Tags			calendar
//	@Produce		json
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	DayEventsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/days/{date} [get]
func (h *Handler) DayEvents(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	events, err := h.svc.EventsOn(r.Context(), date)
	if err != nil {
		writeError(w, "day events", err)
		return
	}
	writeJSON(w, http.StatusOK, DayEventsResponse{Date: date, Events: nonNilSlice(events)})
}

// Palette handles GET /api/palette.
//
//	@Summary		Colors offered for personal events
//	@Tags			calendar
//	@Produce		json
//	@Success		200	{object}	PaletteResponse
//	@Router			/palette [get]
func (h *Handler) Palette(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, PaletteResponse{Default: models.DefaultColor, Colors: models.Palette})
}

// ExportICS handles GET /api/calendar/{year}.ics.
//
//	@Summary		iCalendar export of a year
//	@Tags			calendar
//	@Produce		text/calendar
//	@Param			year	path	int	true	"Year"
//	@Success		200		{string}	string
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/calendar/{year}.ics [get]
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	year, err := h.yearParam(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, "export", err)
		return
	}
	events, err := h.svc.EventsForYear(r.Context(), year)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	doc, err := export.ICS(events, time.Local, h.now())
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="almanac-`+strconv.Itoa(year)+`.ics"`)
	_, _ = w.Write([]byte(doc))
}

// ListNotifications handles GET /api/notifications.
//
//	@Summary		Notifications, newest first
//	@Tags			notifications
//	@Produce		json
//	@Success		200	{object}	NotificationListResponse
//	@Security		BearerAuth
//	@Router			/notifications [get]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Notifications(r.Context())
	if err != nil {
		writeError(w, "list notifications", err)
		return
	}
	writeJSON(w, http.StatusOK, NotificationListResponse{Notifications: nonNilSlice(list)})
}

// MarkNotificationRead handles POST /api/notifications/{id}/read.
//
//	@Summary		Mark a notification as read
//	@Tags			notifications
//	@Param			id	path	string	true	"Notification id"
//	@Success		204	"Marked"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notifications/{id}/read [post]
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkNotificationRead(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "mark notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNotification handles DELETE /api/notifications/{id}.
//
//	@Summary		Dismiss a notification
//	@Tags			notifications
//	@Param			id	path	string	true	"Notification id"
//	@Success		204	"Dismissed"
//	@Security		BearerAuth
//	@Router			/notifications/{id} [delete]
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DismissNotification(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Live reports that the process is up.
func Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: time.Now().UTC()})
}

// Ready reports whether ping succeeds.
func Ready(ping func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r); err != nil {
			slog.Warn("readiness check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Time: time.Now().UTC()})
			return
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: time.Now().UTC()})
	}
}
