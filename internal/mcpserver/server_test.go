package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/jotter/internal/client"
	"github.com/starford/jotter/internal/models"
	"github.com/starford/jotter/internal/testutil"
)

func testServer(t *testing.T) (*Server, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend(t)
	return New(client.New(backend.BaseURL()), "test"), backend
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
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

func createdID(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	text := resultText(r)
	id, ok := strings.CutPrefix(text, "created: ")
	if r.IsError || !ok {
		t.Fatalf("create result = %q", text)
	}
	return id
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	id := createdID(t, callTool(t, srv, "create_note", map[string]interface{}{
		"title":   "  Test  ",
		"content": "# Test\nHello",
	}))

	r := callTool(t, srv, "read_note", map[string]interface{}{"id": id})
	var n models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &n); err != nil {
		t.Fatalf("read result %q: %v", resultText(r), err)
	}
	if n.Title != "Test" || n.Content != "# Test\nHello" {
		t.Errorf("note = %+v", n)
	}
}

func TestCreateNote_BlankTitle(t *testing.T) {
	srv, backend := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{"title": "   "})
	if !r.IsError || !strings.Contains(resultText(r), "Title is required.") {
		t.Errorf("result = %q", resultText(r))
	}
	notes, _ := backend.Service.ListNotes(context.Background())
	if len(notes) != 0 {
		t.Errorf("blank create reached the backend: %+v", notes)
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)

	if text := resultText(callTool(t, srv, "list_notes", map[string]interface{}{})); text != "no notes" {
		t.Errorf("empty list = %q", text)
	}

	_ = callTool(t, srv, "create_note", map[string]interface{}{"title": "a", "content": "secret body"})
	_ = callTool(t, srv, "create_note", map[string]interface{}{"title": "b"})

	text := resultText(callTool(t, srv, "list_notes", map[string]interface{}{}))
	var summaries []noteSummary
	if err := json.Unmarshal([]byte(text), &summaries); err != nil {
		t.Fatalf("list %q: %v", text, err)
	}
	if len(summaries) != 2 {
		t.Errorf("len = %d, want 2", len(summaries))
	}
	if strings.Contains(text, "secret body") {
		t.Error("list should not include content")
	}
}

func TestUpdateNote_Partial(t *testing.T) {
	srv, backend := testServer(t)
	id := createdID(t, callTool(t, srv, "create_note", map[string]interface{}{"title": "old", "content": "keep me"}))

	r := callTool(t, srv, "update_note", map[string]interface{}{"id": id, "title": "new"})
	if r.IsError {
		t.Fatalf("update = %q", resultText(r))
	}
	n, err := backend.Service.GetNote(context.Background(), models.ID(id))
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != "new" || n.Content != "keep me" {
		t.Errorf("note = %+v", n)
	}

	r = callTool(t, srv, "update_note", map[string]interface{}{"id": id, "content": ""})
	if r.IsError {
		t.Fatalf("update = %q", resultText(r))
	}
	n, _ = backend.Service.GetNote(context.Background(), models.ID(id))
	if n.Title != "new" || n.Content != "" {
		t.Errorf("note after clearing content = %+v", n)
	}
}

func TestUpdateNote_Missing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "update_note", map[string]interface{}{"id": "nope", "title": "x"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestDeleteNote(t *testing.T) {
	srv, _ := testServer(t)
	id := createdID(t, callTool(t, srv, "create_note", map[string]interface{}{"title": "bye"}))

	if r := callTool(t, srv, "delete_note", map[string]interface{}{"id": id}); r.IsError {
		t.Fatalf("delete = %q", resultText(r))
	}
	if r := callTool(t, srv, "read_note", map[string]interface{}{"id": id}); !r.IsError {
		t.Error("expected error reading deleted note")
	}
	if r := callTool(t, srv, "delete_note", map[string]interface{}{"id": id}); !r.IsError {
		t.Error("expected error deleting twice")
	}
}

func TestMissingID(t *testing.T) {
	srv, _ := testServer(t)
	for _, tool := range []string{"read_note", "update_note", "delete_note"} {
		if r := callTool(t, srv, tool, map[string]interface{}{}); !r.IsError {
			t.Errorf("%s without id should fail", tool)
		}
	}
}

func TestNotesResource(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "create_note", map[string]interface{}{"title": "a"})

	contents, err := srv.readNotesResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != NotesURI {
		t.Fatalf("contents = %#v", contents)
	}
	var notes []models.Note
	if err := json.Unmarshal([]byte(tc.Text), &notes); err != nil || len(notes) != 1 {
		t.Errorf("resource = %q, %v", tc.Text, err)
	}
}
