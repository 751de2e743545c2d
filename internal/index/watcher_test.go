package index

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/starford/onepage/internal/storage"
)

const payload = `{"summary":"Watch me","priorities":["Ship"]}`

func watcherTestEnv(t *testing.T) (string, storage.Provider, *DB) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, path string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+path)
	r.mu.Unlock()
}

func (r *recorder) has(e string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.events, e)
}

func startWatch(t *testing.T, dir string, store storage.Provider, db *DB, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go Watch(ctx, db, store, dir, quietLogger(), cb)
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewFileIndexed(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	rec := &recorder{}
	startWatch(t, dir, store, db, rec.record)

	_ = os.WriteFile(filepath.Join(dir, "new.json"), []byte(payload), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("new.json")
		return cs != ""
	}, "new file not indexed by watcher")
	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:new.json")
	}, "expected created:new.json callback")
}

func TestWatcher_UpdateReported(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "plan.json"), []byte(payload), 0o644)
	_ = Sync(db, store, quietLogger())

	rec := &recorder{}
	startWatch(t, dir, store, db, rec.record)

	_ = store.Write("plan.json", []byte(`{"summary":"Changed"}`))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("updated:plan.json")
	}, "expected updated:plan.json callback")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	startWatch(t, dir, store, db, nil)

	_ = os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# hi"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "ok.yaml"), []byte("summary: ok\n"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("ok.yaml")
		return cs != ""
	}, "yaml file not indexed")
	if cs, _ := db.GetChecksum("notes.md"); cs != "" {
		t.Error("markdown file should not be catalogued")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	startWatch(t, dir, store, db, nil)

	sub := filepath.Join(dir, "q3")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(200 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.json"), []byte(payload), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("q3/deep.json")
		return cs != ""
	}, "file in new subdir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "del.json"), []byte(payload), 0o644)
	_ = Sync(db, store, quietLogger())
	if cs, _ := db.GetChecksum("del.json"); cs == "" {
		t.Fatal("precondition: file should be indexed")
	}

	rec := &recorder{}
	startWatch(t, dir, store, db, rec.record)
	_ = os.Remove(filepath.Join(dir, "del.json"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum("del.json")
		return cs == "" && rec.has("deleted:del.json")
	}, "deleted file still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	dir, store, db := watcherTestEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "old.json"), []byte(payload), 0o644)
	_ = Sync(db, store, quietLogger())

	startWatch(t, dir, store, db, nil)
	_ = os.Rename(filepath.Join(dir, "old.json"), filepath.Join(dir, "renamed.json"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum("old.json")
		newCS, _ := db.GetChecksum("renamed.json")
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}
