package board

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/onepage/internal/analysis"
	"github.com/starford/onepage/internal/apperr"
)

// DeleteAnalysis removes a payload from the library. Canvases opened from it
// stay open but no longer follow a file.
func (s *Service) DeleteAnalysis(path string) error {
	if s.store == nil {
		return fmt.Errorf("board: no analysis library: %w", apperr.ErrInvalid)
	}
	if err := s.store.Delete(path); err != nil {
		return err
	}
	n := s.retarget(path, "")
	s.logger.Info("board: analysis deleted", slog.String("path", path), slog.Int("detached", n))
	return nil
}

// RenameAnalysis moves a payload within the library. Canvases opened from it
// follow the new path.
func (s *Service) RenameAnalysis(from, to string) error {
	if s.store == nil {
		return fmt.Errorf("board: no analysis library: %w", apperr.ErrInvalid)
	}
	if !analysis.IsAnalysisFile(to) {
		return fmt.Errorf("board: %s is not a .json or .yaml name: %w", to, apperr.ErrInvalid)
	}
	if _, err := s.store.Read(from); err != nil {
		return err
	}
	if _, err := s.store.Read(to); err == nil {
		return fmt.Errorf("board: %s: %w", to, apperr.ErrAlreadyExists)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if err := s.store.Move(from, to); err != nil {
		return err
	}
	n := s.retarget(from, to)
	s.logger.Info("board: analysis renamed", slog.String("from", from), slog.String("to", to), slog.Int("sessions", n))
	return nil
}

// retarget points every session opened from path at to and returns how many
// sessions it changed.
func (s *Service) retarget(path, to string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, ss := range s.sessions {
		ss.mu.Lock()
		if ss.source == path {
			ss.source = to
			if to == "" {
				ss.checksum = ""
			}
			n++
		}
		ss.mu.Unlock()
	}
	return n
}
