package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/almanac/internal/api"
	"github.com/starford/almanac/internal/calendar"
	"github.com/starford/almanac/internal/eventservice"
	"github.com/starford/almanac/internal/holidays"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db := testutil.TestStore(t)
	src := &testutil.FakeSource{Holidays: map[int][]holidays.Holiday{
		2024: {{Date: "2024-03-04", LocalName: "Test Holiday"}},
	}}
	svc := eventservice.NewService(db, db, calendar.NewAggregator(db, db, src, "ES"))
	srv := New(svc)
	srv.now = func() time.Time { return time.Date(2024, time.March, 4, 10, 0, 0, 0, time.Local) }
	return srv
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_events":
		result, err = srv.listEvents(ctx, req)
	case "events_on":
		result, err = srv.eventsOn(ctx, req)
	case "month_grid":
		result, err = srv.monthGrid(ctx, req)
	case "create_event":
		result, err = srv.createEvent(ctx, req)
	case "update_event":
		result, err = srv.updateEvent(ctx, req)
	case "delete_event":
		result, err = srv.deleteEvent(ctx, req)
	case "quick_add":
		result, err = srv.quickAdd(ctx, req)
	case "get_event_contract":
		result, err = srv.getEventContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateUpdateDeleteEvent(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_event", map[string]any{
		"title": "Standup",
		"date":  "2024-03-04",
		"time":  "09:00",
	})
	if r.IsError {
		t.Fatalf("create failed: %s", resultText(r))
	}
	var e models.Event
	if err := json.Unmarshal([]byte(resultText(r)), &e); err != nil {
		t.Fatal(err)
	}

	r = callTool(t, srv, "update_event", map[string]any{
		"id":    e.ID,
		"title": "Retro",
		"date":  "2024-03-05",
		"time":  "16:00",
	})
	if r.IsError || !strings.Contains(resultText(r), `"Retro"`) {
		t.Errorf("update = %s", resultText(r))
	}

	r = callTool(t, srv, "delete_event", map[string]any{"id": e.ID})
	if resultText(r) != "deleted: "+e.ID {
		t.Errorf("delete = %s", resultText(r))
	}
}

func TestCreateEvent_Validation(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_event", map[string]any{"title": "x", "date": "2024-03-04", "time": "9am"})
	if !r.IsError || !strings.Contains(resultText(r), `"time"`) {
		t.Errorf("result = %+v", resultText(r))
	}
	r = callTool(t, srv, "create_event", map[string]any{"title": "x"})
	if !r.IsError {
		t.Error("expected error for missing date")
	}
}

func TestListEvents(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_events", map[string]any{"year": float64(2024)})
	if r.IsError {
		t.Fatalf("list failed: %s", resultText(r))
	}
	var resp api.EventListResponse
	if err := json.Unmarshal([]byte(resultText(r)), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Year != 2024 || len(resp.Events) != 1+len(calendar.Observances) {
		t.Errorf("year = %d events = %d", resp.Year, len(resp.Events))
	}
}

func TestEventsOn(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "events_on", map[string]any{"date": "2024-03-04"})
	if !strings.Contains(resultText(r), "Test Holiday") {
		t.Errorf("events_on = %s", resultText(r))
	}
	r = callTool(t, srv, "events_on", map[string]any{"date": "2024-03-06"})
	if resultText(r) != "no events on 2024-03-06" {
		t.Errorf("empty day = %s", resultText(r))
	}
}

func TestMonthGrid(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "month_grid", map[string]any{"date": "2024-03-20"})
	var grid api.GridResponse
	if err := json.Unmarshal([]byte(resultText(r)), &grid); err != nil {
		t.Fatalf("grid: %v (%s)", err, resultText(r))
	}
	if len(grid.Cells) != calendar.GridCells || grid.Title != "March 2024" {
		t.Errorf("cells = %d title = %q", len(grid.Cells), grid.Title)
	}
	today := 0
	for _, c := range grid.Cells {
		if c.Today {
			today++
		}
	}
	if today != 1 {
		t.Errorf("today cells = %d", today)
	}
}

func TestQuickAdd(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "quick_add", map[string]any{"text": "Dentist tomorrow"})
	if r.IsError {
		t.Fatalf("quick_add failed: %s", resultText(r))
	}
	var e models.Event
	_ = json.Unmarshal([]byte(resultText(r)), &e)
	if e.Title != "Dentist" || e.Date != "2024-03-05" {
		t.Errorf("event = %+v", e)
	}

	r = callTool(t, srv, "quick_add", map[string]any{"text": "no date here"})
	if !r.IsError {
		t.Error("expected error without a date")
	}
}

func TestGetEventContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_event_contract", map[string]any{})
	if !strings.Contains(resultText(r), "Almanac Event Format Contract") {
		t.Error("contract text missing")
	}
}
