package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/jotter/internal/client"
	"github.com/starford/jotter/internal/controller"
	"github.com/starford/jotter/internal/models"
	"github.com/starford/jotter/internal/testutil"
)

type memAPI struct {
	mu      sync.Mutex
	notes   []models.Note
	seq     int
	listErr error
	creates int
}

func (f *memAPI) List(context.Context) ([]models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Note(nil), f.notes...), nil
}

func (f *memAPI) Create(_ context.Context, in models.NoteInput) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.seq++
	n := models.Note{
		ID:        models.ID(fmt.Sprintf("n%d", f.seq)),
		Title:     in.Title,
		Content:   in.Content,
		UpdatedAt: models.NewTimestamp(time.Date(2030, 1, 1, 0, f.seq, 0, 0, time.UTC)),
	}
	f.notes = append(f.notes, n)
	return &n, nil
}

func (f *memAPI) Update(_ context.Context, id models.ID, in models.NoteInput) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := models.Find(f.notes, id)
	if i < 0 {
		return nil, &client.Error{StatusCode: 404, Message: "not found"}
	}
	f.notes[i].Title, f.notes[i].Content = in.Title, in.Content
	n := f.notes[i]
	return &n, nil
}

func (f *memAPI) Delete(_ context.Context, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := models.Find(f.notes, id)
	if i < 0 {
		return &client.Error{StatusCode: 404, Message: "not found"}
	}
	f.notes = append(f.notes[:i], f.notes[i+1:]...)
	return nil
}

func sampleNotes() []models.Note {
	return []models.Note{
		{ID: "1", Title: "Older", Content: "one", UpdatedAt: models.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
		{ID: "2", Title: "Newer", Content: "two", UpdatedAt: models.NewTimestamp(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))},
	}
}

// harness wires a model to a prompter that answers with a scripted value.
type harness struct {
	m       Model
	asked   []string
	answer  bool
	api     controller.NotesAPI
	confirm *Prompter
}

func newHarness(t *testing.T, api controller.NotesAPI) *harness {
	t.Helper()
	h := &harness{api: api, confirm: NewPrompter()}
	t.Cleanup(h.confirm.Close)
	h.confirm.Attach(func(msg tea.Msg) {
		pm := msg.(promptMsg)
		h.asked = append(h.asked, pm.question)
		pm.reply <- h.answer
	})
	ctrl := controller.New(api, h.confirm)
	h.m = NewModel(context.Background(), ctrl, h.confirm)
	h.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.drive(h.m.Init())
	return h
}

func (h *harness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// drive runs cmd synchronously and feeds controller results back into the
// model. Widget commands such as cursor blinks are dropped.
func (h *harness) drive(cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case opDoneMsg:
			seen = append(seen, msg)
			h.update(msg)
		case tea.QuitMsg:
			seen = append(seen, msg)
		}
	}
	return seen
}

func (h *harness) press(k tea.KeyMsg) []tea.Msg {
	return h.drive(h.update(k))
}

func (h *harness) typeText(s string) {
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestInitialLoad(t *testing.T) {
	h := newHarness(t, &memAPI{notes: sampleNotes()})

	if h.m.state.Selected != "2" {
		t.Fatalf("selected = %q, want 2", h.m.state.Selected)
	}
	if h.m.title.Value() != "Newer" || h.m.content.Value() != "two" {
		t.Errorf("editor = %q / %q", h.m.title.Value(), h.m.content.Value())
	}
	items := h.m.list.Items()
	if len(items) != 2 || items[0].(noteItem).note.ID != "2" {
		t.Errorf("items = %v", items)
	}
	if !items[0].(noteItem).selected || items[1].(noteItem).selected {
		t.Error("selection marker on wrong item")
	}
	view := h.m.View()
	for _, want := range []string{"Edit note", "● Newer", "Older"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if h.m.activity != "" {
		t.Errorf("activity = %q after load", h.m.activity)
	}
}

func TestCreateFromKeyboard(t *testing.T) {
	api := &memAPI{}
	h := newHarness(t, api)
	if !strings.Contains(h.m.View(), "No notes yet") {
		t.Error("empty state not rendered")
	}

	h.press(tea.KeyMsg{Type: tea.KeyCtrlN})
	if h.m.focus != focusTitle {
		t.Fatalf("focus = %d, want title", h.m.focus)
	}
	h.typeText("Groceries")
	h.update(tea.KeyMsg{Type: tea.KeyTab})
	h.typeText("milk")
	if !h.m.ctrl.HasUnsavedChanges() {
		t.Fatal("typing did not reach the draft")
	}

	h.press(tea.KeyMsg{Type: tea.KeyCtrlS})
	if api.creates != 1 {
		t.Fatalf("creates = %d", api.creates)
	}
	if h.m.state.Selected != "n1" || h.m.status != "Saved." {
		t.Errorf("selected = %q status = %q", h.m.state.Selected, h.m.status)
	}
	if h.m.title.Value() != "Groceries" || h.m.content.Value() != "milk" {
		t.Errorf("editor = %q / %q", h.m.title.Value(), h.m.content.Value())
	}
}

func TestSaveBlankTitle(t *testing.T) {
	api := &memAPI{}
	h := newHarness(t, api)

	h.press(tea.KeyMsg{Type: tea.KeyCtrlS})
	if api.creates != 0 {
		t.Errorf("creates = %d, want 0", api.creates)
	}
	if !strings.Contains(h.m.View(), controller.TitleRequiredMessage) {
		t.Error("validation message not shown")
	}
}

func TestSelectDirtyDeclined(t *testing.T) {
	h := newHarness(t, &memAPI{notes: sampleNotes()})

	h.update(tea.KeyMsg{Type: tea.KeyTab})
	h.typeText("!")
	h.update(tea.KeyMsg{Type: tea.KeyShiftTab})
	h.update(tea.KeyMsg{Type: tea.KeyDown})

	h.answer = false
	h.press(tea.KeyMsg{Type: tea.KeyEnter})

	if len(h.asked) != 1 || h.asked[0] != controller.DiscardChangesPrompt {
		t.Fatalf("asked = %v", h.asked)
	}
	if h.m.state.Selected != "2" || !h.m.ctrl.HasUnsavedChanges() {
		t.Errorf("selection moved or draft lost: %+v", h.m.state)
	}
	if h.m.list.Index() != 0 {
		t.Errorf("list cursor = %d, want back on the selected note", h.m.list.Index())
	}
}

func TestSelectClean(t *testing.T) {
	h := newHarness(t, &memAPI{notes: sampleNotes()})

	h.update(tea.KeyMsg{Type: tea.KeyDown})
	h.press(tea.KeyMsg{Type: tea.KeyEnter})

	if len(h.asked) != 0 {
		t.Errorf("unexpected prompt %v", h.asked)
	}
	if h.m.state.Selected != "1" || h.m.title.Value() != "Older" || h.m.content.Value() != "one" {
		t.Errorf("state = %+v", h.m.state)
	}
}

func TestDeleteConfirmed(t *testing.T) {
	h := newHarness(t, &memAPI{notes: sampleNotes()})
	h.answer = true

	h.press(tea.KeyMsg{Type: tea.KeyCtrlD})

	if len(h.asked) != 1 || h.asked[0] != controller.DeleteNotePrompt {
		t.Fatalf("asked = %v", h.asked)
	}
	if models.Find(h.m.state.Notes, "2") >= 0 || h.m.state.Selected != "1" {
		t.Errorf("state = %+v", h.m.state)
	}
	if h.m.status != "Deleted." {
		t.Errorf("status = %q", h.m.status)
	}
}

func TestBannerDismiss(t *testing.T) {
	h := newHarness(t, &memAPI{listErr: errors.New("backend unreachable")})

	if !strings.Contains(h.m.View(), "Error: backend unreachable") {
		t.Fatalf("banner not shown:\n%s", h.m.View())
	}
	h.update(tea.KeyMsg{Type: tea.KeyEsc})
	if strings.Contains(h.m.View(), "backend unreachable") {
		t.Error("banner still shown after esc")
	}
}

func TestPromptModal(t *testing.T) {
	h := newHarness(t, &memAPI{})
	reply := make(chan bool, 1)

	h.update(promptMsg{question: "Delete this note?", reply: reply})
	if !strings.Contains(h.m.View(), "Delete this note?") {
		t.Fatal("prompt not rendered")
	}
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if got := <-reply; !got {
		t.Error("y did not confirm")
	}
	if len(h.m.prompts) != 0 {
		t.Error("prompt still open")
	}

	h.update(promptMsg{question: "again?", reply: reply})
	h.update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := <-reply; got {
		t.Error("enter should decline")
	}
}

func TestPromptQueue(t *testing.T) {
	h := newHarness(t, &memAPI{})
	first := make(chan bool, 1)
	second := make(chan bool, 1)

	h.update(promptMsg{question: "Discard unsaved changes?", reply: first})
	h.update(promptMsg{question: "Delete this note?", reply: second})
	if v := h.m.View(); !strings.Contains(v, "Discard unsaved changes?") || strings.Contains(v, "Delete this note?") {
		t.Fatalf("first question not shown alone:\n%s", v)
	}

	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if got := <-first; got {
		t.Error("n should decline the first question")
	}
	if !strings.Contains(h.m.View(), "Delete this note?") {
		t.Fatal("second question not shown after the first was answered")
	}

	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if got := <-second; !got {
		t.Error("y should confirm the second question")
	}
	if len(h.m.prompts) != 0 {
		t.Errorf("prompts left = %d", len(h.m.prompts))
	}
}

func TestQuitGuard(t *testing.T) {
	h := newHarness(t, &memAPI{notes: sampleNotes()})

	seen := h.drive(h.m.quit())
	if len(seen) != 1 {
		t.Fatalf("clean quit = %v", seen)
	}

	h.m.ctrl.SetTitle("changed")
	h.answer = false
	if seen := h.drive(h.m.quit()); len(seen) != 0 {
		t.Errorf("declined quit = %v", seen)
	}
	h.answer = true
	if seen := h.drive(h.m.quit()); len(seen) != 1 {
		t.Errorf("confirmed quit = %v", seen)
	}
}

func TestPreviewToggle(t *testing.T) {
	api := &memAPI{notes: []models.Note{{ID: "1", Title: "md", Content: "# Heading\n\nsome *text*"}}}
	h := newHarness(t, api)

	h.update(tea.KeyMsg{Type: tea.KeyCtrlP})
	if !h.m.preview || !strings.Contains(h.m.previewText, "Heading") {
		t.Fatalf("preview = %q", h.m.previewText)
	}
	if !strings.Contains(h.m.View(), "(preview)") {
		t.Error("preview marker not rendered")
	}
	h.update(tea.KeyMsg{Type: tea.KeyCtrlP})
	if h.m.preview || h.m.previewText != "" {
		t.Error("preview not cleared")
	}
}

func TestPrompter(t *testing.T) {
	p := NewPrompter()
	if p.Confirm("unattached") {
		t.Error("unattached prompter should decline")
	}

	p.Attach(func(msg tea.Msg) {
		pm := msg.(promptMsg)
		go func() { pm.reply <- pm.question == "yes please" }()
	})
	if !p.Confirm("yes please") || p.Confirm("nope") {
		t.Error("answers not delivered")
	}

	p.Attach(func(tea.Msg) {})
	done := make(chan bool)
	go func() { done <- p.Confirm("never answered") }()
	p.Close()
	select {
	case ok := <-done:
		if ok {
			t.Error("closed prompter confirmed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Confirm did not return after Close")
	}
}

func TestAgainstBackend(t *testing.T) {
	backend := testutil.NewBackend(t)
	h := newHarness(t, client.New(backend.BaseURL()))

	h.press(tea.KeyMsg{Type: tea.KeyCtrlN})
	h.typeText("Remote")
	h.press(tea.KeyMsg{Type: tea.KeyCtrlS})

	notes, err := backend.Service.ListNotes(context.Background())
	if err != nil || len(notes) != 1 || notes[0].Title != "Remote" {
		t.Fatalf("backend notes = %+v, %v", notes, err)
	}
	if h.m.state.Selected != notes[0].ID {
		t.Errorf("selected = %q, want %q", h.m.state.Selected, notes[0].ID)
	}
}
