// Package noteservice implements the note lifecycle rules of the reference backend.
package noteservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/jotter/internal/apperr"
	"github.com/starford/jotter/internal/models"
	"github.com/starford/jotter/internal/storage"
)

// Service validates input, assigns ids and timestamps, and delegates to storage.
type Service struct {
	store storage.Provider
	now   func() time.Time
	newID func() models.ID
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how new note ids are minted.
func WithIDGenerator(gen func() models.ID) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a new note service.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: func() models.ID { return models.ID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListNotes returns every note, newest first.
func (s *Service) ListNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	models.SortByUpdatedDesc(notes)
	return notes, nil
}

// GetNote returns a single note.
func (s *Service) GetNote(ctx context.Context, id models.ID) (*models.Note, error) {
	return s.store.Get(ctx, id)
}

// CreateNote validates in and stores it under a fresh id.
func (s *Service) CreateNote(ctx context.Context, in models.NoteInput) (*models.Note, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	n := models.Note{
		ID:        s.newID(),
		Title:     in.Title,
		Content:   in.Content,
		UpdatedAt: models.NewTimestamp(s.now().UTC()),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// UpdateNote validates in and overwrites the note with id.
func (s *Service) UpdateNote(ctx context.Context, id models.ID, in models.NoteInput) (*models.Note, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	n := models.Note{
		ID:        id,
		Title:     in.Title,
		Content:   in.Content,
		UpdatedAt: models.NewTimestamp(s.now().UTC()),
	}
	if err := s.store.Update(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNote removes the note with id.
func (s *Service) DeleteNote(ctx context.Context, id models.ID) error {
	return s.store.Delete(ctx, id)
}

func normalize(in models.NoteInput) (models.NoteInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := in.Validate(); err != nil {
		return in, fmt.Errorf("%w: %s", apperr.ErrInvalidInput, err.Error())
	}
	return in, nil
}
