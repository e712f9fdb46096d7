// Package project loads and saves project documents. A project serializes
// as a JSON document with stable field names; load→save round-trips are
// field-preserving except for the updated timestamp and the implicit file
// path.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clipforge/clipforge/internal/models"
)

// Store reads and writes project documents on the local filesystem.
type Store struct{}

// NewStore creates a project store.
func NewStore() *Store {
	return &Store{}
}

// New creates an empty project with default settings.
func (s *Store) New(name string) *models.Project {
	now := time.Now().UTC()
	return &models.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Version:   "1.0",
		CreatedAt: now,
		UpdatedAt: now,
		Settings:  models.DefaultProjectSettings(),
	}
}

// Load reads a project document. Missing files fail with models.ErrNotFound.
func (s *Store) Load(path string) (*models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project %s: %w", path, models.ErrNotFound)
		}
		return nil, fmt.Errorf("reading project %s: %w", path, err)
	}

	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project %s: %w", path, err)
	}
	p.FilePath = path
	return &p, nil
}

// Save writes the project atomically (temp file + rename) and refreshes the
// updated timestamp.
func (s *Store) Save(p *models.Project, path string) error {
	p.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding project: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".clipforge-project-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing project file: %w", err)
	}

	p.FilePath = path
	return nil
}
