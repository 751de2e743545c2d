//go:build sqlite_fts5

package index

import "testing"

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM analyses_fts`).Scan(&count); err != nil {
		t.Fatalf("analyses_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	if err := db.Upsert(row("fts.json", "Acme", "f1"), "Become the most trusted logistics partner."); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	results, err := db.Search("logistics", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "fts.json" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteAndReplace(t *testing.T) {
	db := testDB(t)
	_ = db.Upsert(row("evo.json", "Old", "1"), "original text")
	_ = db.Upsert(row("evo.json", "New", "2"), "replacement text")
	if results, _ := db.Search("original", 10); len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	_ = db.Delete("evo.json")
	if results, _ := db.Search("replacement", 10); len(results) != 0 {
		t.Error("deleted row still in FTS index")
	}
}
