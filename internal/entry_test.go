package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/almanac/internal/export"
	"github.com/starford/almanac/internal/holidays"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "almanac.db")
	cfg.Holidays.Provider = ProviderNone
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	newLogger(ApplicationConfig{LogFormat: LogFormatJSON}, &buf).Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	newLogger(ApplicationConfig{LogFormat: LogFormatText}, &buf).Info("hello")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "hello") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestNewHolidaySource(t *testing.T) {
	if src := newHolidaySource(HolidaysConfig{Provider: ProviderNone}); src != nil {
		t.Errorf("none provider = %T, want nil", src)
	}
	if _, ok := newHolidaySource(HolidaysConfig{Provider: holidays.ProviderBuiltin, Country: "US"}).(*holidays.Builtin); !ok {
		t.Error("builtin provider should build an offline source")
	}
	if _, ok := newHolidaySource(HolidaysConfig{Provider: holidays.ProviderNager, Country: "ES"}).(*holidays.NagerClient); !ok {
		t.Error("nager provider should build a remote client")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestQuickAddAndExport(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	e, err := QuickAdd(ctx, "Dentist tomorrow 15:30", WithConfig(cfg), WithLogOutput(os.Stderr))
	if err != nil {
		t.Fatalf("QuickAdd: %v", err)
	}
	if e.Title != "Dentist" || e.Time != "15:30" || e.ID == "" {
		t.Errorf("event = %+v", e)
	}

	out := filepath.Join(t.TempDir(), "year.json")
	err = Export(ctx, ExportParams{Format: export.FormatJSON, Out: out}, WithConfig(cfg))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Year   int `json:"year"`
		Events []struct {
			Title string `json:"title"`
		} `json:"events"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Year != time.Now().Year() || len(doc.Events) == 0 || doc.Events[0].Title != "Dentist" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	cfg := testConfig(t)
	err := Export(context.Background(), ExportParams{Year: 2024, Format: "csv"}, WithConfig(cfg))
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestClearHolidayCache(t *testing.T) {
	cfg := testConfig(t)
	n, err := ClearHolidayCache(context.Background(), WithConfig(cfg))
	if err != nil {
		t.Fatalf("ClearHolidayCache: %v", err)
	}
	if n != 0 {
		t.Errorf("cleared = %d, want 0", n)
	}
}
