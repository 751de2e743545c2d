// Package board hosts live canvases. Each session owns one canvas, its
// undo/redo history and its export guard, and serialises every operation on
// that canvas behind a per-session lock.
package board

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/onepage/internal/analysis"
	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/checksum"
	"github.com/starford/onepage/internal/export"
	"github.com/starford/onepage/internal/history"
	"github.com/starford/onepage/internal/index"
	"github.com/starford/onepage/internal/models"
	"github.com/starford/onepage/internal/storage"
)

// Config tunes the sessions created by a Service.
type Config struct {
	Limits       canvas.Limits
	HistoryLimit int
	SettleDelay  time.Duration
	SessionTTL   time.Duration
}

// DefaultConfig returns the stock session settings.
func DefaultConfig() Config {
	return Config{
		Limits:       canvas.DefaultLimits(),
		HistoryLimit: history.DefaultLimit,
		SettleDelay:  history.DefaultSettleDelay,
		SessionTTL:   2 * time.Hour,
	}
}

// Service manages canvas sessions.
type Service struct {
	cfg      Config
	store    storage.Provider
	renderer *export.Renderer
	emitter  Emitter
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates a session service. store may be nil when sessions are
// only opened from inline payloads.
func NewService(cfg Config, store storage.Provider, renderer *export.Renderer, emitter Emitter, logger *slog.Logger) *Service {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		store:    store,
		renderer: renderer,
		emitter:  emitter,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Open lays out a new canvas from the library file at path.
func (s *Service) Open(_ context.Context, path string) (*View, error) {
	if s.store == nil {
		return nil, fmt.Errorf("board: no analysis library: %w", apperr.ErrInvalid)
	}
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	a, err := analysis.Decode(data, path)
	if err != nil {
		return nil, err
	}
	return s.openNamed(path, path, checksum.Sum(data), a), nil
}

// Import stores a in the library and opens a canvas on it. The file is named
// <stem>.json after the uploaded document; when that name already holds a
// different payload a short random suffix is added, so sessions opened from
// the existing file keep their state. When replace names an open session
// that session is discarded first.
func (s *Service) Import(_ context.Context, a *models.Analysis, filename, replace string) (*View, error) {
	if s.store == nil {
		return nil, fmt.Errorf("board: no analysis library: %w", apperr.ErrInvalid)
	}
	analysis.Normalize(a)
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("board: %v: %w", err, apperr.ErrInvalid)
	}
	data, err := analysis.Encode(a)
	if err != nil {
		return nil, err
	}
	name := LibraryName(filename)
	path, err := s.freePath(name, data)
	if err != nil {
		return nil, err
	}
	if err := s.store.Write(path, data); err != nil {
		return nil, err
	}
	stored, err := analysis.Decode(data, path)
	if err != nil {
		return nil, err
	}
	s.Discard(replace)
	return s.openNamed(path, name, checksum.Sum(data), stored), nil
}

// freePath returns name when it is unused or already holds data, and a
// suffixed variant of it otherwise.
func (s *Service) freePath(name string, data []byte) (string, error) {
	existing, err := s.store.Read(name)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && bytes.Equal(existing, data)) {
		return name, nil
	}
	if err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for range 5 {
		candidate := stem + "-" + uuid.NewString()[:8] + ".json"
		if _, err := s.store.Read(candidate); errors.Is(err, apperr.ErrNotFound) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("board: no free library name for %s: %w", name, apperr.ErrConflict)
}

// Discard closes the session id when it is open. An empty id is ignored.
func (s *Service) Discard(id string) {
	if id == "" {
		return
	}
	_ = s.Close(id)
}

// OpenPayload lays out a new canvas from an in-memory analysis. filename seeds
// the page title.
func (s *Service) OpenPayload(_ context.Context, a *models.Analysis, filename string) (*View, error) {
	if a == nil {
		return nil, fmt.Errorf("board: missing analysis: %w", apperr.ErrInvalid)
	}
	analysis.Normalize(a)
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("board: %v: %w", err, apperr.ErrInvalid)
	}
	return s.openNamed("", filepath.Base(filename), "", a), nil
}

func (s *Service) openNamed(source, filename, sum string, a *models.Analysis) *View {
	ss := newSession(uuid.NewString(), source, filename, a, s.cfg, s.now())
	ss.checksum = sum

	s.mu.Lock()
	s.sessions[ss.id] = ss
	s.mu.Unlock()

	ss.mu.Lock()
	v := ss.view()
	ss.mu.Unlock()

	s.logger.Info("board: session opened", slog.String("session", ss.id), slog.String("source", source))
	s.emitter.Emit(EventOpened, Change{Session: ss.id, Revision: v.Revision, Reason: "open"})
	return v
}

// Get returns the current view of a session.
func (s *Service) Get(id string) (*View, error) {
	ss, err := s.session(id)
	if err != nil {
		return nil, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.touched = s.now()
	return ss.view(), nil
}

// List returns every open session, most recently used first.
func (s *Service) List() []Summary {
	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, ss := range s.sessions {
		all = append(all, ss)
	}
	s.mu.RUnlock()

	out := make([]Summary, 0, len(all))
	for _, ss := range all {
		ss.mu.Lock()
		out = append(out, Summary{
			ID:       ss.id,
			Source:   ss.source,
			Title:    ss.canvas.Title(),
			Revision: ss.revision,
			Touched:  ss.touched,
		})
		ss.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Touched.After(out[j].Touched) })
	return out
}

// Close discards a session and its history.
func (s *Service) Close(id string) error {
	s.mu.Lock()
	ss, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("board: session %s: %w", id, apperr.ErrNotFound)
	}

	ss.mu.Lock()
	ss.closed = true
	ss.settle.Cancel()
	ss.mu.Unlock()

	s.logger.Info("board: session closed", slog.String("session", id))
	s.emitter.Emit(EventClosed, Change{Session: id, Reason: "close"})
	return nil
}

func (s *Service) session(id string) (*Session, error) {
	s.mu.RLock()
	ss, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("board: session %s: %w", id, apperr.ErrNotFound)
	}
	return ss, nil
}

// update runs fn under the session lock. When fn reports a change the
// revision is bumped, a history capture is scheduled and clients are told.
func (s *Service) update(id, reason string, fn func(ss *Session) (bool, error)) error {
	ss, err := s.session(id)
	if err != nil {
		return err
	}
	ss.mu.Lock()
	ss.touched = s.now()
	changed, err := fn(ss)
	if err != nil || !changed {
		ss.mu.Unlock()
		return err
	}
	ss.revision++
	rev := ss.revision
	ss.scheduleCapture()
	ss.mu.Unlock()

	s.emitter.Emit(EventUpdated, Change{Session: id, Revision: rev, Reason: reason})
	return nil
}

// Reap closes sessions idle for longer than the session TTL and returns how
// many were closed.
func (s *Service) Reap() int {
	if s.cfg.SessionTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.SessionTTL)

	var stale []string
	for _, sum := range s.List() {
		if sum.Touched.Before(cutoff) {
			stale = append(stale, sum.ID)
		}
	}
	for _, id := range stale {
		if err := s.Close(id); err == nil {
			s.logger.Info("board: session expired", slog.String("session", id))
		}
	}
	return len(stale)
}

// RunReaper calls Reap every interval until ctx is cancelled.
func (s *Service) RunReaper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Reap()
		}
	}
}

// AnalysisChanged rebuilds every session opened from path after the file
// changed on disk. It has the shape of an index.EventCallback.
func (s *Service) AnalysisChanged(kind, path string) {
	if kind != index.EventCreated && kind != index.EventUpdated {
		return
	}
	var affected []*Session
	s.mu.RLock()
	for _, ss := range s.sessions {
		ss.mu.Lock()
		if ss.source == path {
			affected = append(affected, ss)
		}
		ss.mu.Unlock()
	}
	s.mu.RUnlock()
	if len(affected) == 0 || s.store == nil {
		return
	}

	data, err := s.store.Read(path)
	if err != nil {
		s.logger.Warn("board: reload failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	a, err := analysis.Decode(data, path)
	if err != nil {
		s.logger.Warn("board: reload failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	sum := checksum.Sum(data)
	for _, ss := range affected {
		ss.mu.Lock()
		if ss.closed || ss.source != path || ss.checksum == sum {
			ss.mu.Unlock()
			continue
		}
		ss.checksum = sum
		ss.rebuild(a, s.cfg)
		rev := ss.revision
		ss.mu.Unlock()
		s.logger.Info("board: session reloaded", slog.String("session", ss.id), slog.String("path", path))
		s.emitter.Emit(EventUpdated, Change{Session: ss.id, Revision: rev, Reason: "reload"})
	}
}
