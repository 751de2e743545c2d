package index

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/onepage/internal/analysis"
	"github.com/starford/onepage/internal/checksum"
	"github.com/starford/onepage/internal/models"
	"github.com/starford/onepage/internal/storage"
)

// Sync brings the catalogue in line with the library: new or changed files
// are decoded and upserted, rows whose file is gone are deleted. Files that
// fail to decode are logged and skipped.
func Sync(db Catalogue, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if checksums[m.Path] == m.Checksum {
			continue
		}
		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: indexed", slog.String("path", m.Path))
	}

	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.Delete(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("sync: removed stale", slog.String("path", p))
	}
	return nil
}

// indexFile decodes data and upserts its catalogue row.
func indexFile(db Catalogue, path string, data []byte, updated time.Time) error {
	a, err := analysis.Decode(data, path)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	return db.Upsert(models.AnalysisMetadata{
		Path:      path,
		Title:     analysis.Title(path),
		Method:    a.AnalysisMethod,
		Fields:    analysis.FieldCount(a),
		Checksum:  checksum.Sum(data),
		UpdatedAt: updated,
	}, analysis.SearchText(a))
}
