// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Almanac calendar tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/almanac/internal/api"
	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/eventservice"
	"github.com/starford/almanac/internal/models"
	"github.com/starford/almanac/internal/naturaldate"
)

const contractURI = "almanac://event-format"

// Server wraps the MCP server with Almanac tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *eventservice.Service
	parser *naturaldate.Parser
	now    func() time.Time
}

// New creates a new MCP server with all Almanac tools registered.
func New(svc *eventservice.Service) *Server {
	s := &Server{svc: svc, parser: naturaldate.New(), now: time.Now}

	s.mcp = server.NewMCPServer(
		"Almanac",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_events",
		mcp.WithDescription("List every event of a year: personal events, national holidays and worldwide observances."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Four-digit year")),
	), s.listEvents)

	s.mcp.AddTool(mcp.NewTool("events_on",
		mcp.WithDescription("List every event on one date."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
	), s.eventsOn)

	s.mcp.AddTool(mcp.NewTool("month_grid",
		mcp.WithDescription("Return the 42-cell month grid containing a date, with up to three events per day."),
		mcp.WithString("date", mcp.Required(), mcp.Description("Any date of the month, YYYY-MM-DD")),
	), s.monthGrid)

	s.mcp.AddTool(mcp.NewTool("create_event",
		mcp.WithDescription("Create a personal event. Read the contract first via get_event_contract "+
			"or the almanac://event-format resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
		mcp.WithString("time", mcp.Required(), mcp.Description("Start time as HH:MM (24h)")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("color", mcp.Description("Optional hex color such as #3b82f6")),
	), s.createEvent)

	s.mcp.AddTool(mcp.NewTool("update_event",
		mcp.WithDescription("Replace every field of a personal event."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Event id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Event title")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Date as YYYY-MM-DD")),
		mcp.WithString("time", mcp.Required(), mcp.Description("Start time as HH:MM (24h)")),
		mcp.WithString("description", mcp.Description("Optional description")),
		mcp.WithString("color", mcp.Description("Optional hex color")),
	), s.updateEvent)

	s.mcp.AddTool(mcp.NewTool("delete_event",
		mcp.WithDescription("Delete a personal event. Deleting an unknown id succeeds."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Event id")),
	), s.deleteEvent)

	s.mcp.AddTool(mcp.NewTool("quick_add",
		mcp.WithDescription("Create a personal event from a short English phrase such as \"Dentist tomorrow 15:30\"."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Phrase containing a title and a date")),
	), s.quickAdd)

	s.mcp.AddTool(mcp.NewTool("get_event_contract",
		mcp.WithDescription("Returns the Almanac event format contract. "+
			"Call this before creating or updating events."),
	), s.getEventContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Event Format Contract",
			mcp.WithResourceDescription("Fields, formats and scopes of Almanac events."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEventFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// errorResult renders err for the model, listing field problems when present.
func errorResult(err error) *mcp.CallToolResult {
	if fields := apperr.FieldErrors(err); len(fields) > 0 {
		out, _ := json.Marshal(fields)
		return mcp.NewToolResultError("validation failed: " + string(out))
	}
	return mcp.NewToolResultError(err.Error())
}

func fieldsFrom(req mcp.CallToolRequest) (models.EventFields, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return models.EventFields{}, err
	}
	date, err := req.RequireString("date")
	if err != nil {
		return models.EventFields{}, err
	}
	at, err := req.RequireString("time")
	if err != nil {
		return models.EventFields{}, err
	}
	return models.EventFields{
		Title:       title,
		Date:        date,
		Time:        at,
		Description: req.GetString("description", ""),
		Color:       req.GetString("color", ""),
	}, nil
}

func (s *Server) listEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, err := req.RequireInt("year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	events, err := s.svc.EventsForYear(ctx, year)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(api.EventListResponse{Year: year, Events: events}), nil
}

func (s *Server) eventsOn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	events, err := s.svc.EventsOn(ctx, date)
	if err != nil {
		return errorResult(err), nil
	}
	if len(events) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no events on %s", date)), nil
	}
	return jsonResult(events), nil
}

func (s *Server) monthGrid(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref, err := time.ParseInLocation(models.DateLayout, raw, time.Local)
	if err != nil {
		return mcp.NewToolResultError("date must be YYYY-MM-DD"), nil
	}
	v, err := s.svc.Open(ctx, ref)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(api.BuildGridResponse(v, s.now())), nil
}

func (s *Server) createEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := fieldsFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.CreateEvent(ctx, f)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(e), nil
}

func (s *Server) updateEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := fieldsFrom(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.UpdateEvent(ctx, id, f)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(e), nil
}

func (s *Server) deleteEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.DeleteEvent(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) quickAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parsed, err := s.parser.Parse(text, s.now())
	if err != nil {
		return errorResult(err), nil
	}
	e, err := s.svc.CreateEvent(ctx, parsed.Fields())
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(e), nil
}

func (s *Server) getEventContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EventFormatContract), nil
}

func (s *Server) readEventFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     EventFormatContract,
		},
	}, nil
}
