package api

import "github.com/starford/jotter/internal/models"

// NoteRequest is the request body for creating or updating a note.
type NoteRequest = models.NoteInput

// NoteResponse is a single note in a response.
type NoteResponse = models.Note

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}
