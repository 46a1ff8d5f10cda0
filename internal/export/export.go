// Package export renders aggregated events as iCalendar or JSON documents.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

// Formats accepted by Render.
const (
	FormatICS  = "ics"
	FormatJSON = "json"
)

const productID = "-//almanac//calendar export//EN"

// ICS renders events as an iCalendar document. Personal events are timed in
// loc; derived events are all-day. stamp fills DTSTAMP.
func ICS(events []models.Event, loc *time.Location, stamp time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		start, err := e.Start(loc)
		if err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
		ve := cal.AddEvent(e.ID + "@almanac")
		ve.SetDtStampTime(stamp)
		ve.SetSummary(e.Title)
		if e.Description != "" {
			ve.SetDescription(e.Description)
		}
		if e.ReadOnly() {
			ve.SetAllDayStartAt(start)
			ve.SetAllDayEndAt(start.AddDate(0, 0, 1))
		} else {
			ve.SetStartAt(start)
			ve.SetEndAt(start.Add(time.Hour))
		}
		ve.AddProperty(ics.ComponentPropertyCategories, strings.ToUpper(string(e.Scope)))
		ve.AddProperty(ics.ComponentProperty("X-ALMANAC-COLOR"), e.Color)
	}
	return cal.Serialize(), nil
}

type jsonDocument struct {
	Year   int            `json:"year"`
	Events []models.Event `json:"events"`
}

// JSON renders events of year as an indented JSON document.
func JSON(year int, events []models.Event) ([]byte, error) {
	if events == nil {
		events = []models.Event{}
	}
	data, err := json.MarshalIndent(jsonDocument{Year: year, Events: events}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal: %w", err)
	}
	return append(data, '\n'), nil
}

// Render picks the renderer by format name.
func Render(format string, year int, events []models.Event, loc *time.Location, stamp time.Time) ([]byte, error) {
	switch format {
	case FormatICS:
		s, err := ICS(events, loc, stamp)
		return []byte(s), err
	case FormatJSON:
		return JSON(year, events)
	}
	return nil, fmt.Errorf("export: format %q: %w", format, apperr.ErrValidation)
}

// WriteFile atomically writes content to path: tmp file, fsync, rename.
func WriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".almanac-tmp-*")
	if err != nil {
		return fmt.Errorf("export: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("export: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("export: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("export: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("export: rename: %w", err)
	}
	success = true
	return nil
}
