package index

import "github.com/starford/onepage/internal/models"

// Catalogue is the read/write surface of the analysis catalogue. Consumers
// depend on it rather than on *DB so tests can swap in fakes.
type Catalogue interface {
	Upsert(m models.AnalysisMetadata, body string) error
	Delete(path string) error
	Get(path string) (*models.AnalysisMetadata, error)
	GetChecksum(path string) (string, error)
	List(limit, offset int) ([]models.AnalysisMetadata, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ Catalogue = (*DB)(nil)
