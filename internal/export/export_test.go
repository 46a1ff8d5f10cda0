package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

var sample = []models.Event{
	{ID: "p1", Title: "Standup", Date: "2024-03-04", Time: "09:00", Color: models.DefaultColor, Scope: models.ScopePersonal},
	{ID: "worldwide-2024-03-08", Title: "International Women's Day", Description: "worldwide observance: International Women's Day",
		Date: "2024-03-08", Time: "00:00", Color: models.WorldwideColor, Scope: models.ScopeWorldwide},
}

func TestICS(t *testing.T) {
	stamp := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	out, err := ICS(sample, time.UTC, stamp)
	if err != nil {
		t.Fatalf("ICS: %v", err)
	}
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:p1@almanac",
		"SUMMARY:Standup",
		"DTSTART:20240304T090000Z",
		"DTSTART;VALUE=DATE:20240308",
		"CATEGORIES:WORLDWIDE",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ICS output missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 2 {
		t.Errorf("VEVENT count = %d, want 2", n)
	}
}

func TestICS_BadDate(t *testing.T) {
	_, err := ICS([]models.Event{{ID: "x", Date: "soon", Time: "09:00"}}, time.UTC, time.Now())
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(2024, nil)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Year   int               `json:"year"`
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Year != 2024 || doc.Events == nil || len(doc.Events) != 0 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	_, err := Render("pdf", 2024, sample, time.UTC, time.Now())
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "cal.ics")

	if err := WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile overwrite: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("leftover temp files: %v", entries)
	}
}
