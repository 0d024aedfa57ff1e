package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/starford/jotter/internal/client"
	"github.com/starford/jotter/internal/models"
)

// stdinMarker as a content value means "read content from stdin".
const stdinMarker = "-"

// NoteChanges holds the fields given to "notes update". Nil fields are kept.
type NoteChanges struct {
	Title   *string
	Content *string
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// notesClient builds a client for the notes commands. Logs go to stderr
// so stdout stays machine-readable.
func notesClient(opts []Option) (*application, *client.Client, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(os.Stderr, app.config.App.LogLevel)
	return app, app.newClient(logger), nil
}

// ListNotes prints every note as a table, newest first.
func ListNotes(ctx context.Context, opts ...Option) error {
	app, c, err := notesClient(opts)
	if err != nil {
		return err
	}
	notes, err := c.List(ctx)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}
	models.SortByUpdatedDesc(notes)

	if len(notes) == 0 {
		_, err := fmt.Fprintln(app.stdout, "No notes.")
		return err
	}
	_, err = fmt.Fprintln(app.stdout, renderTable(notes))
	return err
}

func renderTable(notes []models.Note) string {
	rows := make([][]string, len(notes))
	for i, n := range notes {
		updated := "-"
		if !n.UpdatedAt.IsZero() {
			updated = n.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		rows[i] = []string{n.ID.String(), n.Title, updated}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "UPDATED").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// ShowNote prints one note as JSON.
func ShowNote(ctx context.Context, id models.ID, opts ...Option) error {
	app, c, err := notesClient(opts)
	if err != nil {
		return err
	}
	n, err := c.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get note %s: %w", id, err)
	}
	return printJSON(app.stdout, n)
}

// CreateNote creates a note and prints the backend's response.
func CreateNote(ctx context.Context, title, content string, opts ...Option) error {
	app, c, err := notesClient(opts)
	if err != nil {
		return err
	}
	if content, err = app.readContent(content); err != nil {
		return err
	}
	in := models.NoteInput{Title: strings.TrimSpace(title), Content: content}
	if err := in.Validate(); err != nil {
		return err
	}

	n, err := c.Create(ctx, in)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return printJSON(app.stdout, n)
}

// UpdateNote applies changes on top of the note's current fields.
func UpdateNote(ctx context.Context, id models.ID, changes NoteChanges, opts ...Option) error {
	app, c, err := notesClient(opts)
	if err != nil {
		return err
	}

	current, err := c.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get note %s: %w", id, err)
	}
	var in models.NoteInput
	if current != nil {
		in = models.NoteInput{Title: current.Title, Content: current.Content}
	}
	if changes.Title != nil {
		in.Title = strings.TrimSpace(*changes.Title)
	}
	if changes.Content != nil {
		if in.Content, err = app.readContent(*changes.Content); err != nil {
			return err
		}
	}
	if err := in.Validate(); err != nil {
		return err
	}

	n, err := c.Update(ctx, id, in)
	if err != nil {
		return fmt.Errorf("update note %s: %w", id, err)
	}
	return printJSON(app.stdout, n)
}

// DeleteNote deletes a note.
func DeleteNote(ctx context.Context, id models.ID, opts ...Option) error {
	app, c, err := notesClient(opts)
	if err != nil {
		return err
	}
	if err := c.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	_, err = fmt.Fprintf(app.stdout, "deleted: %s\n", id)
	return err
}

func (a *application) readContent(v string) (string, error) {
	if v != stdinMarker {
		return v, nil
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", fmt.Errorf("read content from stdin: %w", err)
	}
	return string(data), nil
}

func printJSON(w io.Writer, n *models.Note) error {
	if n == nil {
		_, err := fmt.Fprintln(w, "null")
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(n)
}
