package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gearhound/gearpage-scraper/internal/models"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a search query into a filesystem-friendly slug.
func Slugify(query string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(query), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "search"
	}
	return slug
}

// BatchStore writes one JSON file per results page into a directory.
type BatchStore struct {
	dir string
}

func NewBatchStore(dir string) *BatchStore {
	return &BatchStore{dir: dir}
}

// SaveBatch persists a batch as <query-slug>-page-NNN.json and returns the
// written path. The write goes through a temp file so a crash never leaves
// a truncated batch behind.
func (s *BatchStore) SaveBatch(batch *models.PageBatch) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s-page-%03d.json", Slugify(batch.Query), batch.Page))

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write batch file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to finalize batch file: %w", err)
	}

	return path, nil
}

// ReadBatch loads a previously persisted batch file.
func (s *BatchStore) ReadBatch(path string) (*models.PageBatch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var batch models.PageBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode batch file %s: %w", path, err)
	}
	return &batch, nil
}
