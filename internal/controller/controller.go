// Package controller owns the draft, selection and list state of the notes
// client and reconciles it with the backend after every mutation.
//
// The backend is authoritative: the controller never applies optimistic
// changes. After each successful create, update or delete it re-fetches
// the full list and rebuilds its view of the world from that.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/starford/jotter/internal/models"
)

// Prompt texts passed to the Confirmer.
const (
	DiscardChangesPrompt = "You have unsaved changes. Discard them?"
	DeleteNotePrompt     = "Delete this note?"
)

// TitleRequiredMessage is the validation message for a blank title.
const TitleRequiredMessage = "Title is required."

var (
	// ErrBusy is returned by Save and Delete while another save or delete is outstanding.
	ErrBusy = errors.New("controller: a save or delete is already in progress")
	// ErrUnknownNote is returned by Select for ids not in the current list.
	ErrUnknownNote = errors.New("controller: note is not in the list")
)

// ValidationError is a local input problem detected before any request is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotesAPI is the subset of the REST client the controller needs.
type NotesAPI interface {
	List(ctx context.Context) ([]models.Note, error)
	Create(ctx context.Context, in models.NoteInput) (*models.Note, error)
	Update(ctx context.Context, id models.ID, in models.NoteInput) (*models.Note, error)
	Delete(ctx context.Context, id models.ID) error
}

// Confirmer asks the user a yes/no question and blocks until answered.
type Confirmer interface {
	Confirm(question string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(question string) bool { return f(question) }

// Draft is the client-local edit buffer.
type Draft struct {
	Title   string
	Content string
}

// State is a point-in-time copy of the controller state.
type State struct {
	Notes    []models.Note
	Selected models.ID
	Draft    Draft
	// Revision changes every time the controller repopulates the draft
	// from a note (or clears it), but not on user edits.
	Revision uint64

	Loading  bool
	Saving   bool
	Deleting bool

	// Banner is the last transport or server error, until dismissed.
	Banner string
	// Validation is the inline message for the last rejected save.
	Validation string
}

// HasSelection reports whether a note is selected.
func (s State) HasSelection() bool { return s.Selected != "" }

// SelectedNote returns the selected note, if any.
func (s State) SelectedNote() (models.Note, bool) {
	if i := models.Find(s.Notes, s.Selected); i >= 0 {
		return s.Notes[i], true
	}
	return models.Note{}, false
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller is safe for concurrent use. Its lock is never held across a
// network call or a Confirm prompt.
type Controller struct {
	api     NotesAPI
	confirm Confirmer
	logger  *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates a Controller. Call Load to fetch the initial list.
func New(api NotesAPI, confirm Confirmer, opts ...Option) *Controller {
	c := &Controller{
		api:     api,
		confirm: confirm,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Notes = slices.Clone(c.state.Notes)
	return s
}

// HasUnsavedChanges reports whether the draft differs from the selected
// note, or, with nothing selected, whether either draft field is non-blank.
func (c *Controller) HasUnsavedChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirtyLocked()
}

func (c *Controller) dirtyLocked() bool {
	d := c.state.Draft
	if c.state.Selected == "" {
		return strings.TrimSpace(d.Title) != "" || strings.TrimSpace(d.Content) != ""
	}
	i := models.Find(c.state.Notes, c.state.Selected)
	if i < 0 {
		return strings.TrimSpace(d.Title) != "" || strings.TrimSpace(d.Content) != ""
	}
	n := c.state.Notes[i]
	return d.Title != n.Title || d.Content != n.Content
}

// SetTitle replaces the draft title.
func (c *Controller) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Draft.Title = title
}

// SetContent replaces the draft content.
func (c *Controller) SetContent(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Draft.Content = content
}

// SetDraft replaces both draft fields.
func (c *Controller) SetDraft(d Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Draft = d
}

// DismissError clears the banner.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Banner = ""
}

// Load fetches the list and keeps the current selection if it still exists,
// else selects the newest note, else nothing. The draft is repopulated from
// the resulting selection. On failure the banner is set and nothing else changes.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	prefer := c.state.Selected
	c.mu.Unlock()
	return c.reload(ctx, prefer)
}

// Refresh is Load behind the unsaved-changes guard. It reports whether the
// reload went ahead.
func (c *Controller) Refresh(ctx context.Context) (bool, error) {
	if !c.guard() {
		return false, nil
	}
	return true, c.Load(ctx)
}

// Select switches the editor to the note with id. It asks for confirmation
// first when the draft has unsaved changes and reports whether the switch
// happened.
func (c *Controller) Select(id models.ID) (bool, error) {
	c.mu.Lock()
	if c.state.Selected == id && id != "" {
		c.mu.Unlock()
		return true, nil
	}
	if models.Find(c.state.Notes, id) < 0 {
		c.mu.Unlock()
		return false, ErrUnknownNote
	}
	c.mu.Unlock()

	if !c.guard() {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := models.Find(c.state.Notes, id)
	if i < 0 {
		// The list was reloaded while the prompt was open.
		return false, ErrUnknownNote
	}
	c.selectLocked(&c.state.Notes[i])
	c.state.Validation = ""
	return true, nil
}

// New clears the selection and draft so the next Save creates a note. It
// asks for confirmation first when the draft has unsaved changes.
func (c *Controller) New() bool {
	if !c.guard() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectLocked(nil)
	c.state.Validation = ""
	return true
}

// Save persists the draft: a create when nothing is selected, otherwise an
// update of the selected note. A blank title fails locally with a
// *ValidationError and no request is made.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Saving || c.state.Deleting {
		c.mu.Unlock()
		return ErrBusy
	}
	title := strings.TrimSpace(c.state.Draft.Title)
	if title == "" {
		c.state.Validation = TitleRequiredMessage
		c.mu.Unlock()
		return &ValidationError{Message: TitleRequiredMessage}
	}
	in := models.NoteInput{Title: title, Content: c.state.Draft.Content}
	id := c.state.Selected
	c.state.Validation = ""
	c.state.Banner = ""
	c.state.Saving = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.Saving = false
		c.mu.Unlock()
	}()

	prefer := id
	if id == "" {
		created, err := c.api.Create(ctx, in)
		if err != nil {
			return c.fail("create note", err)
		}
		// Without an id in the response the default selection rule applies.
		prefer = ""
		if created != nil {
			prefer = created.ID
		}
		c.logger.Info("note created", slog.String("id", prefer.String()))
	} else {
		if _, err := c.api.Update(ctx, id, in); err != nil {
			return c.fail("update note", err)
		}
		c.logger.Info("note updated", slog.String("id", id.String()))
	}

	return c.reload(ctx, prefer)
}

// Delete removes the selected note after confirmation. It is a no-op when
// nothing is selected and reports whether a delete was issued.
func (c *Controller) Delete(ctx context.Context) (bool, error) {
	c.mu.Lock()
	id := c.state.Selected
	busy := c.state.Saving || c.state.Deleting
	c.mu.Unlock()

	if id == "" {
		return false, nil
	}
	if busy {
		return false, ErrBusy
	}
	if !c.confirm.Confirm(DeleteNotePrompt) {
		return false, nil
	}

	c.mu.Lock()
	if c.state.Saving || c.state.Deleting {
		c.mu.Unlock()
		return false, ErrBusy
	}
	c.state.Banner = ""
	c.state.Deleting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state.Deleting = false
		c.mu.Unlock()
	}()

	if err := c.api.Delete(ctx, id); err != nil {
		return true, c.fail("delete note", err)
	}
	c.logger.Info("note deleted", slog.String("id", id.String()))

	return true, c.reload(ctx, "")
}

// guard returns true when it is safe to discard the draft.
func (c *Controller) guard() bool {
	if !c.HasUnsavedChanges() {
		return true
	}
	return c.confirm.Confirm(DiscardChangesPrompt)
}

// reload fetches the list and selects prefer if present, else the first note.
func (c *Controller) reload(ctx context.Context, prefer models.ID) error {
	c.mu.Lock()
	c.state.Loading = true
	c.mu.Unlock()

	notes, err := c.api.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Loading = false
	if err != nil {
		c.state.Banner = err.Error()
		c.logger.Warn("load notes failed", slog.String("error", err.Error()))
		return err
	}

	notes = slices.Clone(notes)
	models.SortByUpdatedDesc(notes)
	c.state.Notes = notes

	var target *models.Note
	if i := models.Find(notes, prefer); prefer != "" && i >= 0 {
		target = &c.state.Notes[i]
	} else if len(notes) > 0 {
		target = &c.state.Notes[0]
	}
	c.selectLocked(target)
	return nil
}

// selectLocked sets the selection and repopulates the draft. c.mu must be held.
func (c *Controller) selectLocked(n *models.Note) {
	if n == nil {
		c.state.Selected = ""
		c.state.Draft = Draft{}
	} else {
		c.state.Selected = n.ID
		c.state.Draft = Draft{Title: n.Title, Content: n.Content}
	}
	c.state.Revision++
}

func (c *Controller) fail(op string, err error) error {
	c.mu.Lock()
	c.state.Banner = err.Error()
	c.mu.Unlock()
	c.logger.Warn(op+" failed", slog.String("error", err.Error()))
	return err
}
