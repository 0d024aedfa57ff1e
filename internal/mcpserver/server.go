// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the notes backend as tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/jotter/internal/models"
)

// NotesURI is the resource holding the current notes list.
const NotesURI = "jotter://notes"

// NotesAPI is the REST client surface the tools call into.
type NotesAPI interface {
	List(ctx context.Context) ([]models.Note, error)
	Get(ctx context.Context, id models.ID) (*models.Note, error)
	Create(ctx context.Context, in models.NoteInput) (*models.Note, error)
	Update(ctx context.Context, id models.ID, in models.NoteInput) (*models.Note, error)
	Delete(ctx context.Context, id models.ID) error
}

// Server wraps the MCP server with the notes tools.
type Server struct {
	mcp *server.MCPServer
	api NotesAPI
}

// New creates a new MCP server with all notes tools registered.
func New(api NotesAPI, version string) *Server {
	s := &Server{api: api}

	s.mcp = server.NewMCPServer(
		"Jotter",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes, newest first, without their content."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note, including its full content."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id as returned by list_notes")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. The title must not be blank."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Note body, Markdown allowed")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Update a note. Omitted fields keep their current value."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("content", mcp.Description("New body")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note permanently."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddResource(
		mcp.NewResource(NotesURI, "Notes",
			mcp.WithResourceDescription("All notes as JSON, newest first."),
			mcp.WithMIMEType("application/json"),
		),
		s.readNotesResource,
	)

	return s
}

// Serve speaks MCP over in/out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// noteSummary is a list entry without content.
type noteSummary struct {
	ID        models.ID        `json:"id"`
	Title     string           `json:"title"`
	UpdatedAt models.Timestamp `json:"updated_at"`
}

func (s *Server) sortedNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := s.api.List(ctx)
	if err != nil {
		return nil, err
	}
	models.SortByUpdatedDesc(notes)
	return notes, nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.sortedNotes(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	out := make([]noteSummary, len(notes))
	for i, n := range notes {
		out[i] = noteSummary{ID: n.ID, Title: n.Title, UpdatedAt: n.UpdatedAt}
	}
	return jsonResult(out)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.api.Get(ctx, models.ID(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", id, err)), nil
	}
	if n == nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: empty response", id)), nil
	}
	return jsonResult(n)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := models.NoteInput{
		Title:   strings.TrimSpace(title),
		Content: req.GetString("content", ""),
	}
	if err := in.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n, err := s.api.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if n == nil {
		return mcp.NewToolResultText("created"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", n.ID)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	current, err := s.api.Get(ctx, models.ID(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", id, err)), nil
	}
	in := models.NoteInput{}
	if current != nil {
		in.Title, in.Content = current.Title, current.Content
	}
	args := req.GetArguments()
	if _, ok := args["title"]; ok {
		in.Title = strings.TrimSpace(req.GetString("title", ""))
	}
	if _, ok := args["content"]; ok {
		in.Content = req.GetString("content", "")
	}
	if err := in.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := s.api.Update(ctx, models.ID(id), in); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", id)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.api.Delete(ctx, models.ID(id)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) readNotesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	notes, err := s.sortedNotes(ctx)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.Note{}
	}
	out, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NotesURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
