package board

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/onepage/internal/apperr"
	"github.com/starford/onepage/internal/canvas"
	"github.com/starford/onepage/internal/export"
	"github.com/starford/onepage/internal/history"
)

// Undo restores the previous history entry. A pending settle is recorded
// first so the latest edit is the one undone.
func (s *Service) Undo(id string) (history.Status, error) {
	return s.restore(id, "undo", (*history.Manager).Undo)
}

// Redo restores the next history entry.
func (s *Service) Redo(id string) (history.Status, error) {
	return s.restore(id, "redo", (*history.Manager).Redo)
}

func (s *Service) restore(id, reason string, step func(*history.Manager) (canvas.Snapshot, bool)) (history.Status, error) {
	var status history.Status
	err := s.update(id, reason, func(ss *Session) (bool, error) {
		if _, active := ss.canvas.Gesture(); active {
			return false, fmt.Errorf("board: %s during gesture: %w", reason, apperr.ErrGestureActive)
		}
		ss.flush()
		snap, ok := step(ss.history)
		status = ss.history.Status()
		if !ok {
			return false, nil
		}
		ss.canvas.Restore(snap)
		ss.editor.Refresh()
		return true, nil
	})
	return status, err
}

// Reset discards all edits and history and lays the canvas out again from
// its analysis.
func (s *Service) Reset(id string) (history.Status, error) {
	var status history.Status
	err := s.update(id, "reset", func(ss *Session) (bool, error) {
		ss.settle.Cancel()
		ss.canvas.Reset()
		ss.editor.Refresh()
		ss.history.Clear()
		ss.history.Capture(ss.canvas.Snapshot())
		status = ss.history.Status()
		return true, nil
	})
	return status, err
}

// Commit records any pending change in history immediately.
func (s *Service) Commit(id string) (history.Status, error) {
	ss, err := s.session(id)
	if err != nil {
		return history.Status{}, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.flush()
	return ss.history.Status(), nil
}

// History returns the history position of a session.
func (s *Service) History(id string) (history.Status, error) {
	ss, err := s.session(id)
	if err != nil {
		return history.Status{}, err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.history.Status(), nil
}

// Export renders the canvas. The selection is cleared first; exports are
// refused while a gesture is active or another export of the same canvas is
// running. The exporting flag is always cleared, so a failed export leaves
// the session usable.
func (s *Service) Export(ctx context.Context, id string, req export.Request) (*export.Artifact, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("board: export disabled: %w", apperr.ErrInvalid)
	}
	ss, err := s.session(id)
	if err != nil {
		return nil, err
	}

	ss.mu.Lock()
	if _, active := ss.canvas.Gesture(); active {
		ss.mu.Unlock()
		return nil, fmt.Errorf("board: export during gesture: %w", apperr.ErrGestureActive)
	}
	if ss.exporting {
		ss.mu.Unlock()
		return nil, fmt.Errorf("board: export: %w", apperr.ErrExportInProgress)
	}
	ss.exporting = true
	ss.touched = s.now()
	_ = ss.canvas.Select("")
	state := ss.canvas.State()
	ss.mu.Unlock()

	defer func() {
		ss.mu.Lock()
		ss.exporting = false
		ss.mu.Unlock()
	}()

	art, err := s.renderer.Export(ctx, state, req)
	if err != nil {
		s.logger.Error("board: export failed", slog.String("session", id), slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.Info("board: exported", slog.String("session", id), slog.String("file", art.Filename), slog.Int("bytes", len(art.Data)))
	s.emitter.Emit(EventExported, Exported{Session: id, Filename: art.Filename})
	return art, nil
}
