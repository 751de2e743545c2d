package board

import (
	"sync"
	"time"

	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/history"
	"github.com/starford/onepage/internal/models"
)

// Session is one live canvas with its history. All fields are guarded by mu;
// the lock is the single thread every canvas operation runs on.
type Session struct {
	id       string
	source   string // library path, empty for inline payloads and deleted files
	filename string
	checksum string // of the source file when opened from the library

	mu          sync.Mutex
	canvas      *canvas.Canvas
	editor      *canvas.Editor
	history     *history.Manager
	settle      *history.Settler
	revision    int64
	capturedRev int64
	exporting   bool
	touched     time.Time
	closed      bool
}

// View is the client representation of a session.
type View struct {
	ID        string         `json:"id"`
	Source    string         `json:"source,omitempty"`
	Revision  int64          `json:"revision"`
	History   history.Status `json:"history"`
	Exporting bool           `json:"exporting"`
	canvas.State
}

// Summary is the lightweight listing of a session.
type Summary struct {
	ID       string    `json:"id"`
	Source   string    `json:"source,omitempty"`
	Title    string    `json:"title"`
	Revision int64     `json:"revision"`
	Touched  time.Time `json:"touched"`
}

// Change is the payload of canvas.opened and canvas.updated events.
type Change struct {
	Session  string `json:"session"`
	Revision int64  `json:"revision"`
	Reason   string `json:"reason"`
}

// GestureFrame is the payload of canvas.gesture events.
type GestureFrame struct {
	Session string     `json:"session"`
	Box     canvas.Box `json:"box"`
}

// ThrottleKey groups gesture frames per session for rate limiting.
func (f GestureFrame) ThrottleKey() string { return f.Session }

// Exported is the payload of canvas.exported events.
type Exported struct {
	Session  string `json:"session"`
	Filename string `json:"filename"`
}

func newSession(id, source, filename string, a *models.Analysis, cfg Config, now time.Time) *Session {
	c := canvas.New(a, filename, canvas.WithLimits(cfg.Limits))
	ss := &Session{
		id:       id,
		source:   source,
		filename: filename,
		canvas:   c,
		editor:   canvas.NewEditor(c),
		history:  history.New(cfg.HistoryLimit),
		settle:   history.NewSettler(cfg.SettleDelay),
		touched:  now,
	}
	ss.history.Capture(c.Snapshot())
	return ss
}

// view must be called with mu held.
func (ss *Session) view() *View {
	return &View{
		ID:        ss.id,
		Source:    ss.source,
		Revision:  ss.revision,
		History:   ss.history.Status(),
		Exporting: ss.exporting,
		State:     ss.canvas.State(),
	}
}

// capture records the canvas in history unless that revision is already
// recorded. It must be called with mu held.
func (ss *Session) capture() {
	if ss.closed || ss.capturedRev == ss.revision {
		return
	}
	ss.history.Capture(ss.canvas.Snapshot())
	ss.capturedRev = ss.revision
}

// flush records a pending settle immediately. It must be called with mu held.
func (ss *Session) flush() {
	if ss.settle.Pending() {
		ss.settle.Cancel()
	}
	ss.capture()
}

// scheduleCapture restarts the settle timer. The capture itself takes the
// session lock when it fires.
func (ss *Session) scheduleCapture() {
	ss.settle.Schedule(func() {
		ss.mu.Lock()
		defer ss.mu.Unlock()
		ss.capture()
	})
}

// rebuild replaces the canvas with a fresh layout of a and starts a new
// history. Dark mode and font size carry over.
func (ss *Session) rebuild(a *models.Analysis, cfg Config) {
	ss.settle.Cancel()
	c := canvas.New(a, ss.filename, canvas.WithLimits(cfg.Limits))
	c.SetFontSize(ss.canvas.FontSize())
	if ss.canvas.DarkMode() {
		c.SetDarkMode(true)
	}
	ss.canvas = c
	ss.editor = canvas.NewEditor(c)
	ss.history = history.New(cfg.HistoryLimit)
	ss.revision++
	ss.history.Capture(c.Snapshot())
	ss.capturedRev = ss.revision
}
