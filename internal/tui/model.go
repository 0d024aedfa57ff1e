// Package tui is the terminal front-end: a notes sidebar and an editor panel
// driven by a controller.Controller.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/jotter/internal/controller"
	"github.com/starford/jotter/internal/models"
)

type focus int

const (
	focusList focus = iota
	focusTitle
	focusContent
	focusCount
)

const (
	opLoad    = "load"
	opRefresh = "refresh"
	opSelect  = "select"
	opNew     = "new"
	opSave    = "save"
	opDelete  = "delete"
)

// opDoneMsg reports a finished controller operation.
type opDoneMsg struct {
	op  string
	ok  bool
	err error
}

type noteItem struct {
	note     models.Note
	selected bool
}

func (i noteItem) FilterValue() string { return i.note.Title }

func (i noteItem) Title() string {
	t := i.note.Title
	if t == "" {
		t = "(untitled)"
	}
	if i.selected {
		return "● " + t
	}
	return t
}

func (i noteItem) Description() string {
	if i.note.UpdatedAt.IsZero() {
		return "Updated: unknown"
	}
	return "Updated: " + i.note.UpdatedAt.Local().Format("2006-01-02 15:04")
}

// Model is the bubbletea model for the notes client.
type Model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	confirm controller.Confirmer

	list    list.Model
	title   textinput.Model
	content textarea.Model
	focus   focus

	state    controller.State
	revision uint64

	prompts  []promptMsg // head is on screen
	pending  int
	activity string
	status   string

	preview     bool
	previewText string

	width  int
	height int
}

// NewModel builds the model. confirm must be the Confirmer the controller
// was created with, so the quit guard shares its prompt.
func NewModel(ctx context.Context, ctrl *controller.Controller, confirm controller.Confirmer) Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Notes"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = models.MaxTitleLength
	ti.Prompt = ""

	ta := textarea.New()
	ta.Placeholder = "Write your note..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		confirm: confirm,
		list:    l,
		title:   ti,
		content: ta,
		focus:   focusList,

		pending:  1,
		activity: "Loading...",
	}
}

// Init loads the initial list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.run(opLoad, func(ctx context.Context) (bool, error) {
		return true, m.ctrl.Load(ctx)
	}))
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case promptMsg:
		m.prompts = append(m.prompts, msg)
		return m, nil

	case opDoneMsg:
		if m.pending > 0 {
			m.pending--
		}
		if m.pending == 0 {
			m.activity = ""
		}
		m.status = statusFor(msg)
		m.sync()
		if msg.op == opNew && msg.ok {
			return m, m.setFocus(focusTitle)
		}
		return m, nil

	case tea.KeyMsg:
		if len(m.prompts) > 0 {
			m.answer(msg.String() == "y" || msg.String() == "Y")
			return m, nil
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateFocused(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	ctrl := m.ctrl
	switch msg.String() {
	case "ctrl+c":
		return m.quit(), true
	case "tab":
		return m.setFocus((m.focus + 1) % focusCount), true
	case "shift+tab":
		return m.setFocus((m.focus + focusCount - 1) % focusCount), true
	case "esc":
		ctrl.DismissError()
		m.status = ""
		m.sync()
		return nil, true
	case "ctrl+p":
		m.preview = !m.preview
		m.renderPreview()
		return nil, true
	case "ctrl+n":
		return m.start(opNew, "", func(context.Context) (bool, error) {
			return ctrl.New(), nil
		}), true
	case "ctrl+s":
		return m.start(opSave, "Saving...", func(ctx context.Context) (bool, error) {
			return true, ctrl.Save(ctx)
		}), true
	case "ctrl+d":
		return m.start(opDelete, "Deleting...", ctrl.Delete), true
	case "ctrl+r":
		return m.start(opRefresh, "Loading...", ctrl.Refresh), true
	case "enter":
		if m.focus != focusList {
			return nil, false
		}
		item, ok := m.list.SelectedItem().(noteItem)
		if !ok {
			return nil, true
		}
		id := item.note.ID
		return m.start(opSelect, "", func(context.Context) (bool, error) {
			return ctrl.Select(id)
		}), true
	}
	return nil, false
}

// updateFocused forwards msg to the focused widget and pushes edits into the draft.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusList:
		m.list, cmd = m.list.Update(msg)
	case focusTitle:
		before := m.title.Value()
		m.title, cmd = m.title.Update(msg)
		if v := m.title.Value(); v != before {
			m.ctrl.SetTitle(v)
		}
	case focusContent:
		if m.preview {
			return m, nil
		}
		before := m.content.Value()
		m.content, cmd = m.content.Update(msg)
		if v := m.content.Value(); v != before {
			m.ctrl.SetContent(v)
		}
	}
	return m, cmd
}

// start dispatches a controller operation off the update loop.
func (m *Model) start(op, activity string, f func(context.Context) (bool, error)) tea.Cmd {
	m.pending++
	if activity != "" {
		m.activity = activity
	}
	m.status = ""
	return m.run(op, f)
}

func (m Model) run(op string, f func(context.Context) (bool, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		ok, err := f(ctx)
		return opDoneMsg{op: op, ok: ok, err: err}
	}
}

func (m Model) quit() tea.Cmd {
	ctrl, confirm := m.ctrl, m.confirm
	return func() tea.Msg {
		if ctrl.HasUnsavedChanges() && !confirm.Confirm(controller.DiscardChangesPrompt) {
			return nil
		}
		return tea.QuitMsg{}
	}
}

func (m *Model) answer(yes bool) {
	m.prompts[0].reply <- yes
	m.prompts = m.prompts[1:]
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.title.Blur()
	m.content.Blur()
	switch f {
	case focusTitle:
		return m.title.Focus()
	case focusContent:
		return m.content.Focus()
	}
	return nil
}

// sync copies controller state into the widgets. The editor is only
// rewritten when the controller repopulated the draft.
func (m *Model) sync() {
	s := m.ctrl.State()
	m.state = s

	items := make([]list.Item, len(s.Notes))
	cursor := -1
	for i, n := range s.Notes {
		items[i] = noteItem{note: n, selected: n.ID == s.Selected}
		if n.ID == s.Selected {
			cursor = i
		}
	}
	m.list.SetItems(items)
	if cursor >= 0 {
		m.list.Select(cursor)
	}

	if s.Revision != m.revision {
		m.revision = s.Revision
		m.title.SetValue(s.Draft.Title)
		m.content.SetValue(s.Draft.Content)
	}
	m.renderPreview()
}

func (m *Model) renderPreview() {
	if !m.preview {
		m.previewText = ""
		return
	}
	m.previewText = renderMarkdown(m.content.Value(), m.content.Width())
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	sidebar := min(36, max(20, width/3))
	editor := max(20, width-sidebar-4)
	body := max(6, height-6)

	m.list.SetSize(sidebar-2, body)
	m.title.Width = editor - 2
	m.content.SetWidth(editor)
	m.content.SetHeight(max(3, body-4))
	m.renderPreview()
}

func statusFor(msg opDoneMsg) string {
	var verr *controller.ValidationError
	switch {
	case msg.err == nil && !msg.ok:
		return ""
	case errors.As(msg.err, &verr):
		return ""
	case errors.Is(msg.err, controller.ErrBusy):
		return "Busy: wait for the current save or delete to finish."
	case errors.Is(msg.err, controller.ErrUnknownNote):
		return "That note is no longer in the list."
	case msg.err != nil:
		return ""
	}
	switch msg.op {
	case opSave:
		return "Saved."
	case opDelete:
		return "Deleted."
	case opRefresh:
		return "Refreshed."
	}
	return ""
}
