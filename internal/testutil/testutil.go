// Package testutil provides shared test helpers for databases and an in-process backend.
package testutil

import (
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/jotter/internal/api"
	"github.com/starford/jotter/internal/noteservice"
	"github.com/starford/jotter/internal/storage"
)

// NotesPath is where the backend serves the notes collection.
const NotesPath = "/api/notes"

// TestDB creates a temporary SQLite store that is automatically cleaned up.
func TestDB(t *testing.T) *storage.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "jotter-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := storage.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Backend is a running reference backend.
type Backend struct {
	Server  *httptest.Server
	Service *noteservice.Service
}

// BaseURL returns the notes collection URL, suitable for client.New.
func (b *Backend) BaseURL() string {
	return b.Server.URL + NotesPath
}

// NewBackend starts the reference REST backend on a loopback port.
func NewBackend(t *testing.T, opts ...noteservice.Option) *Backend {
	t.Helper()
	svc := noteservice.NewService(TestDB(t), opts...)

	r := chi.NewRouter()
	r.Mount("/api", api.NewRouter(svc))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &Backend{Server: srv, Service: svc}
}
