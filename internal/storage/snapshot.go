package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maltedev/laptop-listing-extractor/internal/models"
)

var (
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrSnapshotMalformed = errors.New("snapshot is malformed")
	ErrSnapshotEmpty     = errors.New("snapshot holds no products")
	ErrNothingToSave     = errors.New("refusing to save an empty snapshot")
)

// Snapshot is the JSON file holding the last successful extraction.
type Snapshot struct {
	mu   sync.RWMutex
	path string
}

func NewSnapshot(path string) *Snapshot {
	return &Snapshot{path: path}
}

func (s *Snapshot) Path() string {
	return s.path
}

// Save replaces the snapshot with records. The file is written next to the
// target and renamed over it, so readers never see a partial write.
func (s *Snapshot) Save(records []models.ProductRecord) error {
	if len(records) == 0 {
		return ErrNothingToSave
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ProductRecord, len(records))
	for i, r := range records {
		if r.Specifications == nil {
			r.Specifications = map[string]string{}
		}
		out[i] = r
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot dir: %w", err)
		}
	}

	tmpFile := s.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if err := os.Rename(tmpFile, s.path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot. Missing, malformed and empty files are reported
// with distinct errors.
func (s *Snapshot) Load() ([]models.ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	var records []models.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", s.path, ErrSnapshotMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", s.path, ErrSnapshotEmpty)
	}

	for i := range records {
		if records[i].Specifications == nil {
			records[i].Specifications = map[string]string{}
		}
	}
	return records, nil
}

func (s *Snapshot) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Age is the time since the snapshot was last written.
func (s *Snapshot) Age(now time.Time) (time.Duration, bool) {
	info, err := os.Stat(s.path)
	if err != nil || info.IsDir() {
		return 0, false
	}
	return now.Sub(info.ModTime()), true
}

// IsFresh reports whether the snapshot exists and is strictly younger than maxAge.
func (s *Snapshot) IsFresh(now time.Time, maxAge time.Duration) bool {
	age, ok := s.Age(now)
	return ok && age < maxAge
}
