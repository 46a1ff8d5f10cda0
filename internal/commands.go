package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/almanac/internal/export"
	"github.com/starford/almanac/internal/mcpserver"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/naturaldate"
)

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	c, err := app.build()
	if err != nil {
		return err
	}
	defer c.Close()

	c.logger.Info("MCP server starting", slog.String("sqlite_path", app.config.SQLite.Path))
	return mcpserver.New(c.svc).ServeStdio()
}

// ExportParams selects what Export writes.
type ExportParams struct {
	Year   int
	Format string
	// Out is a file path. Empty writes to stdout.
	Out string
}

// Export renders the aggregated events of a year as ICS or JSON.
func Export(ctx context.Context, p ExportParams, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	c, err := app.build()
	if err != nil {
		return err
	}
	defer c.Close()

	if p.Year == 0 {
		p.Year = time.Now().Year()
	}
	events, err := c.svc.EventsForYear(ctx, p.Year)
	if err != nil {
		return err
	}
	data, err := export.Render(p.Format, p.Year, events, time.Local, time.Now())
	if err != nil {
		return err
	}
	if p.Out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := export.WriteFile(p.Out, data); err != nil {
		return err
	}
	c.logger.Info("calendar exported",
		slog.Int("year", p.Year),
		slog.String("format", p.Format),
		slog.Int("events", len(events)),
		slog.String("path", p.Out))
	return nil
}

// QuickAdd parses a phrase like "Dentist tomorrow 15:30" and stores it.
func QuickAdd(ctx context.Context, text string, opts ...Option) (models.Event, error) {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return models.Event{}, err
	}
	c, err := app.build()
	if err != nil {
		return models.Event{}, err
	}
	defer c.Close()

	res, err := naturaldate.New().Parse(text, time.Now())
	if err != nil {
		return models.Event{}, err
	}
	return c.svc.CreateEvent(ctx, res.Fields())
}

// ClearHolidayCache drops every cached holiday payload and reports how many
// years were removed.
func ClearHolidayCache(ctx context.Context, opts ...Option) (int64, error) {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return 0, err
	}
	c, err := app.build()
	if err != nil {
		return 0, err
	}
	defer c.Close()

	n, err := c.db.ClearHolidays(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear holiday cache: %w", err)
	}
	return n, nil
}
