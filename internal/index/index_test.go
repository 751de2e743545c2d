package index

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/models"
	"github.com/starford/onepage/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "onepage-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func row(path, title, cs string) models.AnalysisMetadata {
	return models.AnalysisMetadata{Path: path, Title: title, Checksum: cs, Fields: 2, UpdatedAt: time.Now().UTC()}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM analyses`).Scan(&count); err != nil {
		t.Fatalf("analyses table missing: %v", err)
	}
}

func TestUpsertGetAndChecksum(t *testing.T) {
	db := testDB(t)
	m := row("acme.json", "acme", "abc123")
	m.Method = models.MethodLLM
	if err := db.Upsert(m, "grow revenue"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := db.Get("acme.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "acme" || got.Method != models.MethodLLM || got.Fields != 2 {
		t.Errorf("row = %+v", got)
	}
	cs, err := db.GetChecksum("acme.json")
	if err != nil || cs != "abc123" {
		t.Errorf("checksum = %q, %v", cs, err)
	}
}

func TestGet_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get("missing.json"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	cs, err := db.GetChecksum("missing.json")
	if err != nil || cs != "" {
		t.Errorf("GetChecksum = %q, %v", cs, err)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(row("up.json", "Old", "1"), "old text")
	_ = db.Upsert(row("up.json", "New", "2"), "new text")

	got, _ := db.Get("up.json")
	if got.Title != "New" || got.Checksum != "2" {
		t.Errorf("row not updated: %+v", got)
	}
	if _, total, _ := db.List(10, 0); total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(row("del.json", "del", "x"), "body")
	if err := db.Delete("del.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cs, _ := db.GetChecksum("del.json"); cs != "" {
		t.Errorf("deleted row still has checksum %q", cs)
	}
}

func TestListPaging(t *testing.T) {
	db := testDB(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range []string{"a.json", "b.json", "c.json"} {
		m := row(p, p, "cs")
		m.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
		_ = db.Upsert(m, "")
	}
	page, total, err := db.List(2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("total=%d len=%d", total, len(page))
	}
	if page[0].Path != "c.json" || page[1].Path != "b.json" {
		t.Errorf("order = %s, %s", page[0].Path, page[1].Path)
	}
	rest, _, _ := db.List(2, 2)
	if len(rest) != 1 || rest[0].Path != "a.json" {
		t.Errorf("second page = %+v", rest)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(row("s.json", "Search Me", "1"), "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.json" {
		t.Errorf("search results = %+v, want 1 hit for s.json", results)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Write("acme.json", []byte(`{"summary":"Grow","values":["Trust"],"analysis_method":"regex"}`))
	_ = store.Write("beta.yaml", []byte("summary: Beta\n"))
	_ = store.Write("broken.json", []byte(`{"summary":`))
	_ = db.Upsert(row("gone.json", "gone", "old"), "")

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	got, err := db.Get("acme.json")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Method != models.MethodRegex || got.Fields != 2 {
		t.Errorf("acme row = %+v", got)
	}
	if cs, _ := db.GetChecksum("beta.yaml"); cs == "" {
		t.Error("yaml payload not indexed")
	}
	if cs, _ := db.GetChecksum("broken.json"); cs != "" {
		t.Error("broken payload should be skipped")
	}
	if cs, _ := db.GetChecksum("gone.json"); cs != "" {
		t.Error("stale row should be removed")
	}
	if hits, _ := db.Search("Trust", 10); len(hits) != 1 {
		t.Errorf("search after sync = %+v", hits)
	}
}
