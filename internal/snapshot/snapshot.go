// Package snapshot keeps local JSON copies of progress records.
// Files are a non-authoritative backup used when the relational store is unavailable.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/learnstate/pkg/models"
)

// FileStore reads and writes snapshot files under a directory.
//
// Layout:
//
//	<dir>/<user>/<curriculum>.json   per-user snapshot
//	<dir>/<curriculum>.json          legacy shared snapshot from before per-user files
type FileStore struct {
	dir string
}

// NewFileStore creates a snapshot store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the root directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the per-user snapshot path
func (s *FileStore) Path(userID, curriculumID string) string {
	return filepath.Join(s.dir, safeName(userID), safeName(curriculumID)+".json")
}

// LegacyPath returns the shared pre-per-user snapshot path
func (s *FileStore) LegacyPath(curriculumID string) string {
	return filepath.Join(s.dir, safeName(curriculumID)+".json")
}

// Load reads the per-user snapshot. Missing, unreadable or malformed files report ok=false.
func (s *FileStore) Load(userID, curriculumID string) (*models.Progress, bool) {
	p, err := readProgress(s.Path(userID, curriculumID))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("snapshot: ignoring %s/%s: %v", userID, curriculumID, err)
		}
		return nil, false
	}
	if p.UserID != "" && p.UserID != userID {
		log.Printf("snapshot: ignoring %s/%s: file belongs to another user", userID, curriculumID)
		return nil, false
	}
	p.UserID = userID
	p.CurriculumID = curriculumID
	return p, true
}

// LoadLegacy reads the shared legacy snapshot and tags it with userID
func (s *FileStore) LoadLegacy(userID, curriculumID string) (*models.Progress, bool) {
	p, err := readProgress(s.LegacyPath(curriculumID))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("snapshot: ignoring legacy snapshot %s: %v", curriculumID, err)
		}
		return nil, false
	}
	p.UserID = userID
	p.CurriculumID = curriculumID
	return p, true
}

// Save writes the per-user snapshot through a temporary file and rename
func (s *FileStore) Save(p *models.Progress) error {
	if p.UserID == "" || p.CurriculumID == "" {
		return fmt.Errorf("snapshot: user and curriculum are required")
	}
	path := s.Path(p.UserID, p.CurriculumID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	payload, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Delete removes the per-user snapshot; a missing file is not an error
func (s *FileStore) Delete(userID, curriculumID string) error {
	err := os.Remove(s.Path(userID, curriculumID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func readProgress(path string) (*models.Progress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p models.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("malformed snapshot: %w", err)
	}
	return &p, nil
}

// safeName keeps identifiers from escaping the snapshot directory
func safeName(id string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", "..", "_", string(os.PathSeparator), "_")
	name := r.Replace(strings.TrimSpace(id))
	if name == "" || name == "." {
		return "_"
	}
	return name
}
