// Package testutil provides shared test helpers for setting up libraries,
// catalogues and renderers.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/onepage/internal/export"
	"github.com/starford/onepage/internal/index"
	"github.com/starford/onepage/internal/storage"
)

// Scenario is a small analysis with one list field and one text field.
const Scenario = `{"values":["Trust","Craft"],"current_state":"Growing fast"}`

// TestDB creates a temporary SQLite catalogue that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "onepage-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary analysis library.
func TestLibrary(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestRenderer returns a renderer at pixel scale 1 to keep exports fast.
func TestRenderer(t *testing.T) *export.Renderer {
	t.Helper()
	opts := export.DefaultOptions()
	opts.PixelScale = 1
	r, err := export.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// QuietLogger discards all log output.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
