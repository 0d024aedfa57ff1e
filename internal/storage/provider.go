// Package storage persists notes for the reference backend.
package storage

import (
	"context"

	"github.com/starford/jotter/internal/models"
)

// Provider is the interface for note persistence.
type Provider interface {
	// List returns every note, newest first.
	List(ctx context.Context) ([]models.Note, error)
	// Get returns the note with id, or apperr.ErrNotFound.
	Get(ctx context.Context, id models.ID) (*models.Note, error)
	// Create inserts n; n.ID must already be assigned.
	Create(ctx context.Context, n models.Note) error
	// Update overwrites title, content and updated_at of an existing note.
	Update(ctx context.Context, n models.Note) error
	// Delete removes the note with id, or returns apperr.ErrNotFound.
	Delete(ctx context.Context, id models.ID) error
	Close() error
}

// Verify *SQLite satisfies Provider at compile time.
var _ Provider = (*SQLite)(nil)
