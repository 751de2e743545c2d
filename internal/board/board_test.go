package board

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/export"
	"github.com/starford/onepage/internal/index"
	"github.com/starford/onepage/internal/models"
	"github.com/starford/onepage/internal/storage"
)

const scenario = `{"values":["Trust","Craft"],"current_state":"Growing fast"}`

type fixture struct {
	svc   *Service
	store *storage.FS
	emit  *MockEmitter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	opts := export.DefaultOptions()
	opts.PixelScale = 1
	r, err := export.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.SettleDelay = 20 * time.Millisecond
	emit := &MockEmitter{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return &fixture{svc: NewService(cfg, store, r, emit, logger), store: store, emit: emit}
}

func (f *fixture) open(t *testing.T) *View {
	t.Helper()
	if err := f.store.Write("acme-plan.json", []byte(scenario)); err != nil {
		t.Fatal(err)
	}
	v, err := f.svc.Open(context.Background(), "acme-plan.json")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return v
}

// eventually polls fn every 10ms until it returns true or two seconds pass.
func eventually(t *testing.T, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error(msg)
}

func boxByID(t *testing.T, v *View, id string) canvas.Box {
	t.Helper()
	for _, b := range v.Boxes {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("box %q not found", id)
	return canvas.Box{}
}

func TestOpenFromLibrary(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)

	if v.Title != "acme plan" {
		t.Errorf("title = %q", v.Title)
	}
	if len(v.Boxes) != 3 {
		t.Fatalf("boxes = %d, want summary, values, current", len(v.Boxes))
	}
	if v.History.Entries != 1 || v.History.CanUndo {
		t.Errorf("history = %+v", v.History)
	}
	if v.Source != "acme-plan.json" {
		t.Errorf("source = %q", v.Source)
	}
	if f.emit.Count(EventOpened) != 1 {
		t.Errorf("opened events = %d", f.emit.Count(EventOpened))
	}
}

func TestOpenErrors(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Open(context.Background(), "missing.json"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing file: %v", err)
	}
	bad := &models.Analysis{ConfidenceScores: map[string]float64{"summary": 2}}
	if _, err := f.svc.OpenPayload(context.Background(), bad, "x.pdf"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("invalid payload: %v", err)
	}
	if _, err := f.svc.Get("nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown session: %v", err)
	}
}

func TestEditsSettleIntoOneEntry(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)

	_ = f.svc.SetTitle(v.ID, "A")
	_ = f.svc.SetTitle(v.ID, "AB")
	eventually(t, func() bool {
		st, _ := f.svc.History(v.ID)
		return st.Entries == 2
	}, "burst was not settled into history")

	time.Sleep(50 * time.Millisecond)
	if st, _ := f.svc.History(v.ID); st.Entries != 2 {
		t.Errorf("entries = %d, want 2", st.Entries)
	}
	if f.emit.Count(EventUpdated) != 2 {
		t.Errorf("updated events = %d, want 2", f.emit.Count(EventUpdated))
	}
}

func TestUndoRecordsPendingEdit(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)

	_ = f.svc.SetTitle(v.ID, "Changed")
	st, err := f.svc.Undo(v.ID)
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !st.CanRedo {
		t.Errorf("status = %+v, want redo available", st)
	}
	got, _ := f.svc.Get(v.ID)
	if got.Title != "acme plan" {
		t.Errorf("title after undo = %q", got.Title)
	}

	if _, err := f.svc.Redo(v.ID); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	got, _ = f.svc.Get(v.ID)
	if got.Title != "Changed" {
		t.Errorf("title after redo = %q", got.Title)
	}

	time.Sleep(60 * time.Millisecond)
	if st, _ := f.svc.History(v.ID); st.Entries != 2 {
		t.Errorf("restore was captured again: %+v", st)
	}
}

func TestGestureLifecycle(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	container := canvas.Size{Width: 1000, Height: 700}
	start := GestureStart{Op: canvas.OpDrag, BoxID: "values", Pointer: canvas.Pointer{X: 100, Y: 300}, Container: container}

	if err := f.svc.BeginGesture(v.ID, start); err != nil {
		t.Fatalf("BeginGesture: %v", err)
	}
	if err := f.svc.BeginGesture(v.ID, start); !errors.Is(err, apperr.ErrGestureActive) {
		t.Errorf("second gesture: %v", err)
	}
	if _, err := f.svc.Export(context.Background(), v.ID, export.Request{}); !errors.Is(err, apperr.ErrGestureActive) {
		t.Errorf("export during gesture: %v", err)
	}
	if _, err := f.svc.Undo(v.ID); !errors.Is(err, apperr.ErrGestureActive) {
		t.Errorf("undo during gesture: %v", err)
	}

	b, err := f.svc.MoveGesture(v.ID, canvas.Pointer{X: 200, Y: 300, Source: canvas.SourceTouch})
	if err != nil {
		t.Fatalf("MoveGesture: %v", err)
	}
	if b.X != 12 {
		t.Errorf("x during drag = %v, want 12", b.X)
	}
	if f.emit.Count(EventGesture) != 1 {
		t.Errorf("gesture frames = %d", f.emit.Count(EventGesture))
	}

	moved, err := f.svc.EndGesture(v.ID)
	if err != nil || !moved {
		t.Fatalf("EndGesture = %v, %v", moved, err)
	}
	if _, err := f.svc.EndGesture(v.ID); !errors.Is(err, apperr.ErrNoGesture) {
		t.Errorf("end without gesture: %v", err)
	}
}

func TestCancelGestureRestoresBox(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	orig := boxByID(t, v, "values")
	start := GestureStart{Op: canvas.OpResize, BoxID: "values", Handle: canvas.HandleRight,
		Pointer: canvas.Pointer{X: 500, Y: 300}, Container: canvas.Size{Width: 1000, Height: 700}}

	_ = f.svc.BeginGesture(v.ID, start)
	_, _ = f.svc.MoveGesture(v.ID, canvas.Pointer{X: 300, Y: 300})
	b, err := f.svc.CancelGesture(v.ID)
	if err != nil {
		t.Fatalf("CancelGesture: %v", err)
	}
	if b.Width != orig.Width || b.X != orig.X {
		t.Errorf("box after cancel = %+v, want %+v", b, orig)
	}
	if st, _ := f.svc.History(v.ID); st.Entries != 1 {
		t.Errorf("cancel touched history: %+v", st)
	}
}

func TestMoveAndResizeBox(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)

	b, err := f.svc.MoveBox(v.ID, "values", 10, 20)
	if err != nil {
		t.Fatalf("MoveBox: %v", err)
	}
	if b.X != 10 || b.Y != 20 {
		t.Errorf("moved to (%v, %v), want (10, 20)", b.X, b.Y)
	}

	b, err = f.svc.ResizeBox(v.ID, "values", 5, 30)
	if err != nil {
		t.Fatalf("ResizeBox: %v", err)
	}
	if b.Width != 15 || b.Height != 30 {
		t.Errorf("size = %vx%v, want 15x30 (min width applies)", b.Width, b.Height)
	}

	b, _ = f.svc.MoveBox(v.ID, "values", 99, 99)
	if b.X+b.Width > 100 || b.Y+b.Height > 100 {
		t.Errorf("box left the canvas: %+v", b)
	}
}

func TestTextAndListEditing(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)

	converted, err := f.svc.SetText(v.ID, "current", "- first\n* second")
	if err != nil || !converted {
		t.Fatalf("SetText = %v, %v", converted, err)
	}
	got, err := f.svc.CommitItem(v.ID, "current", 0, "ünique")
	if err != nil || got != "Ünique" {
		t.Errorf("CommitItem = %q, %v", got, err)
	}
	caret, err := f.svc.SplitItem(v.ID, "current", 1, "second", 3, 3)
	if err != nil || caret.Item != 2 || caret.Offset != 0 {
		t.Errorf("SplitItem = %+v, %v", caret, err)
	}
	caret, removed, err := f.svc.BackspaceItem(v.ID, "current", 2, "ond")
	if err != nil || removed {
		t.Errorf("non-empty item removed: %+v %v %v", caret, removed, err)
	}
	sel, err := f.svc.SelectAll(v.ID, "current", 0)
	if err != nil || sel.End.Item != 2 {
		t.Errorf("SelectAll = %+v, %v", sel, err)
	}
	view, _ := f.svc.Get(v.ID)
	items := boxByID(t, view, "current").Items
	if len(items) != 3 || items[1] != "sec" || items[2] != "ond" {
		t.Errorf("items = %q", items)
	}
}

func TestPasteHTML(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	converted, err := f.svc.Paste(v.ID, "current", "", 0, "<ul><li>One</li><li>Two</li></ul>")
	if err != nil || !converted {
		t.Fatalf("Paste = %v, %v", converted, err)
	}
	view, _ := f.svc.Get(v.ID)
	if items := boxByID(t, view, "current").Items; len(items) != 2 || items[0] != "One" {
		t.Errorf("items = %q", items)
	}
}

func TestSettingsAndVisibility(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)

	if err := f.svc.SetDarkMode(v.ID, true); err != nil {
		t.Fatal(err)
	}
	if idx, _ := f.svc.StepFontSize(v.ID, 10); idx != len(canvas.FontSizes)-1 {
		t.Errorf("font size = %d", idx)
	}
	if _, err := f.svc.SetVisible(v.ID, "values", false); err != nil {
		t.Fatal(err)
	}
	added, err := f.svc.AddBox(v.ID)
	if err != nil {
		t.Fatal(err)
	}
	view, _ := f.svc.Get(v.ID)
	if !view.DarkMode || boxByID(t, view, "values").Visible {
		t.Errorf("view = %+v", view.State)
	}
	if boxByID(t, view, "values").Theme != canvas.ThemeWhite {
		t.Errorf("navy box not remapped in dark mode")
	}
	if added.Theme != canvas.ThemeMidblue {
		t.Errorf("added box theme = %s, want midblue in dark mode", added.Theme)
	}
}

func TestResetRestoresLayout(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	_, _ = f.svc.MoveBox(v.ID, "values", 30, 19)
	_ = f.svc.SetTitle(v.ID, "Other")

	st, err := f.svc.Reset(v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if st.Entries != 1 || st.CanUndo {
		t.Errorf("history after reset = %+v", st)
	}
	view, _ := f.svc.Get(v.ID)
	if view.Title != "acme plan" || boxByID(t, view, "values").X != 2 {
		t.Errorf("layout not reset: %+v", view.State)
	}
}

func TestExportClearsSelection(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	_, _ = f.svc.MoveBox(v.ID, "values", 10, 20)

	art, err := f.svc.Export(context.Background(), v.ID, export.Request{Viewport: 800})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if art.Filename != "acme-plan-strategy.jpg" {
		t.Errorf("filename = %q", art.Filename)
	}
	view, _ := f.svc.Get(v.ID)
	if view.Selected != "" || view.Exporting {
		t.Errorf("selected=%q exporting=%v after export", view.Selected, view.Exporting)
	}
	if f.emit.Count(EventExported) != 1 {
		t.Errorf("exported events = %d", f.emit.Count(EventExported))
	}
}

func TestExportFailureKeepsSessionUsable(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.Export(ctx, v.ID, export.Request{}); err == nil {
		t.Fatal("expected error from cancelled export")
	}
	if _, err := f.svc.Export(context.Background(), v.ID, export.Request{Format: export.FormatPNG}); err != nil {
		t.Fatalf("export after failure: %v", err)
	}
}

func TestReapExpiresIdleSessions(t *testing.T) {
	f := newFixture(t)
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return clock }
	v := f.open(t)

	clock = clock.Add(time.Hour)
	if n := f.svc.Reap(); n != 0 {
		t.Fatalf("reaped %d fresh sessions", n)
	}
	clock = clock.Add(3 * time.Hour)
	if n := f.svc.Reap(); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if _, err := f.svc.Get(v.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expired session still open: %v", err)
	}
}

func TestAnalysisChangedRebuildsSession(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	_ = f.svc.SetTitle(v.ID, "Edited")

	// Unchanged file content leaves the session alone.
	f.svc.AnalysisChanged(index.EventUpdated, "acme-plan.json")
	if view, _ := f.svc.Get(v.ID); view.Title != "Edited" {
		t.Fatalf("unchanged payload reset the session")
	}

	_ = f.store.Write("acme-plan.json", []byte(`{"summary":"New direction","priorities":["Focus"]}`))
	f.svc.AnalysisChanged(index.EventUpdated, "acme-plan.json")

	view, _ := f.svc.Get(v.ID)
	if view.Title != "acme plan" || view.History.Entries != 1 {
		t.Errorf("session not rebuilt: title=%q history=%+v", view.Title, view.History)
	}
	if boxByID(t, view, "priorities").Items[0] != "Focus" {
		t.Errorf("new payload not laid out")
	}
}

func TestImportReplacesSession(t *testing.T) {
	f := newFixture(t)
	old := f.open(t)
	summary := "Imported"
	a := &models.Analysis{Summary: &summary, Values: []string{"Care"}}

	v, err := f.svc.Import(context.Background(), a, "Board Pack.pdf", old.ID)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if v.Source != "Board Pack.json" || v.Title != "Board Pack" {
		t.Errorf("imported view source=%q title=%q", v.Source, v.Title)
	}
	if _, err := f.svc.Get(old.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("replaced session still open")
	}
	if _, err := f.store.Read("Board Pack.json"); err != nil {
		t.Errorf("payload not stored: %v", err)
	}
}

func TestCloseAndList(t *testing.T) {
	f := newFixture(t)
	a := f.open(t)
	b := f.open(t)
	if n := len(f.svc.List()); n != 2 {
		t.Fatalf("sessions = %d", n)
	}
	if err := f.svc.Close(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Close(a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("double close: %v", err)
	}
	list := f.svc.List()
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestSettleDuringGestureKeepsOrigin(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	orig := boxByID(t, v, "values")

	_ = f.svc.SetTitle(v.ID, "Edited")
	start := GestureStart{Op: canvas.OpDrag, BoxID: "values", Pointer: canvas.Pointer{X: 100, Y: 300},
		Container: canvas.Size{Width: 1000, Height: 700}}
	if err := f.svc.BeginGesture(v.ID, start); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.MoveGesture(v.ID, canvas.Pointer{X: 400, Y: 500}); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool {
		st, _ := f.svc.History(v.ID)
		return st.Entries == 2
	}, "title edit did not settle during the gesture")
	if _, err := f.svc.CancelGesture(v.ID); err != nil {
		t.Fatal(err)
	}

	_ = f.svc.SetTitle(v.ID, "Edited again")
	if _, err := f.svc.Undo(v.ID); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	got, _ := f.svc.Get(v.ID)
	if got.Title != "Edited" {
		t.Errorf("title after undo = %q, want %q", got.Title, "Edited")
	}
	b := boxByID(t, got, "values")
	if b.X != orig.X || b.Y != orig.Y || b.Width != orig.Width || b.Height != orig.Height {
		t.Errorf("box after undo = (%v,%v %vx%v), want (%v,%v %vx%v)",
			b.X, b.Y, b.Width, b.Height, orig.X, orig.Y, orig.Width, orig.Height)
	}
}

func TestImportKeepsExistingLibraryFile(t *testing.T) {
	f := newFixture(t)
	mine, other := "Mine", "Someone else"

	first, err := f.svc.Import(context.Background(), &models.Analysis{Summary: &mine}, "plan.pdf", "")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	_ = f.svc.SetTitle(first.ID, "My plan")

	second, err := f.svc.Import(context.Background(), &models.Analysis{Summary: &other}, "plan.pdf", "")
	if err != nil {
		t.Fatalf("second Import: %v", err)
	}
	if first.Source != "plan.json" || second.Source == first.Source {
		t.Fatalf("sources = %q, %q", first.Source, second.Source)
	}
	if second.Title != "plan" {
		t.Errorf("second title = %q", second.Title)
	}

	f.svc.AnalysisChanged(index.EventUpdated, first.Source)
	f.svc.AnalysisChanged(index.EventCreated, second.Source)
	got, _ := f.svc.Get(first.ID)
	if got.Title != "My plan" || boxByID(t, got, canvas.SummaryID).Content != "Mine" {
		t.Errorf("first session clobbered: title=%q summary=%q", got.Title, boxByID(t, got, canvas.SummaryID).Content)
	}

	// The same payload again reuses the existing file.
	again, err := f.svc.Import(context.Background(), &models.Analysis{Summary: &mine}, "plan.pdf", "")
	if err != nil {
		t.Fatal(err)
	}
	if again.Source != "plan.json" {
		t.Errorf("identical import source = %q", again.Source)
	}
}

func TestEditorFocusSurvivesUndo(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	title := canvas.FieldRef{BoxID: "values", Part: canvas.PartTitle}
	other := canvas.FieldRef{BoxID: "current", Part: canvas.PartTitle}
	origOther := boxByID(t, v, "current").Title

	changed := "Where we are"
	if _, err := f.svc.UpdateBox(v.ID, "current", canvas.Patch{Title: &changed}); err != nil {
		t.Fatal(err)
	}
	if fv, err := f.svc.FocusField(v.ID, title); err != nil || !fv.Focused {
		t.Fatalf("FocusField = %+v, %v", fv, err)
	}
	if _, err := f.svc.InputField(v.ID, "Draft"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Undo(v.ID); err != nil {
		t.Fatalf("Undo: %v", err)
	}

	if fv, _ := f.svc.Field(v.ID, title); fv.Value != "Draft" || !fv.Focused {
		t.Errorf("focused field = %+v, want the typed value", fv)
	}
	if fv, _ := f.svc.Field(v.ID, other); fv.Value != origOther {
		t.Errorf("other field = %q, want %q", fv.Value, origOther)
	}

	if err := f.svc.BlurField(v.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.svc.Get(v.ID)
	if boxByID(t, got, "values").Title != "Draft" {
		t.Errorf("blur did not commit: %q", boxByID(t, got, "values").Title)
	}
}

func TestEditorListKeys(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)
	item := canvas.FieldRef{BoxID: "values", Part: canvas.PartItem, Item: 0}

	if _, err := f.svc.FocusField(v.ID, item); err != nil {
		t.Fatal(err)
	}
	caret, err := f.svc.EnterField(v.ID, 5, 5)
	if err != nil {
		t.Fatalf("EnterField: %v", err)
	}
	if caret.Item != 1 {
		t.Errorf("caret = %+v", caret)
	}
	if sel, err := f.svc.SelectAllField(v.ID); err != nil || sel.Start.Item != 0 {
		t.Errorf("SelectAllField = %+v, %v", sel, err)
	}
	_, removed, err := f.svc.BackspaceField(v.ID)
	if err != nil || !removed {
		t.Fatalf("BackspaceField = %v, %v", removed, err)
	}
	got, _ := f.svc.Get(v.ID)
	if items := boxByID(t, got, "values").Items; len(items) != 2 {
		t.Errorf("items = %q", items)
	}
	if _, err := f.svc.InputField(v.ID, "x"); err != nil {
		t.Errorf("input after backspace: %v", err)
	}
}

func TestRenameAndDeleteAnalysis(t *testing.T) {
	f := newFixture(t)
	v := f.open(t)

	if err := f.svc.RenameAnalysis("acme-plan.json", "archive/acme.json"); err != nil {
		t.Fatalf("RenameAnalysis: %v", err)
	}
	if got, _ := f.svc.Get(v.ID); got.Source != "archive/acme.json" {
		t.Errorf("source after rename = %q", got.Source)
	}
	if _, err := f.store.Read("acme-plan.json"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("old file still readable: %v", err)
	}

	_ = f.store.Write("taken.json", []byte(scenario))
	if err := f.svc.RenameAnalysis("archive/acme.json", "taken.json"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("rename onto existing: %v", err)
	}
	if err := f.svc.RenameAnalysis("archive/acme.json", "acme.txt"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("rename to bad extension: %v", err)
	}

	if err := f.svc.DeleteAnalysis("archive/acme.json"); err != nil {
		t.Fatalf("DeleteAnalysis: %v", err)
	}
	got, err := f.svc.Get(v.ID)
	if err != nil || got.Source != "" {
		t.Errorf("session after delete = %+v, %v", got, err)
	}
	if err := f.svc.DeleteAnalysis("archive/acme.json"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}
