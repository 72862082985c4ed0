// projects.go - Project persistence as JSON documents
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/layout-studio/backend/internal/models"
)

// ProjectStore defines the interface for layout project persistence.
type ProjectStore interface {
	// SaveProject writes the full project document.
	SaveProject(p *models.Project) error
	// LoadProject reads a project by ID.
	LoadProject(id string) (*models.Project, error)
	// ListProjects returns summaries sorted by last update, newest first.
	ListProjects() ([]*models.ProjectInfo, error)
	// DeleteProject removes a stored project.
	DeleteProject(id string) error
}

// LocalProjectStore keeps each project as <id>.json under projectDir.
// Writes go through a temp file and rename so a crash mid-save never
// leaves a truncated document.
type LocalProjectStore struct {
	mu         sync.RWMutex
	projectDir string
}

// NewLocalProjectStore creates a project store rooted at projectDir.
func NewLocalProjectStore(projectDir string) (*LocalProjectStore, error) {
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}

	return &LocalProjectStore{projectDir: projectDir}, nil
}

func (s *LocalProjectStore) projectPath(id string) string {
	return filepath.Join(s.projectDir, id+".json")
}

// SaveProject writes the full project document.
func (s *LocalProjectStore) SaveProject(p *models.Project) error {
	if p.ID == "" {
		return fmt.Errorf("project has no ID")
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling project: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.projectPath(p.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing project: %w", err)
	}
	if err := os.Rename(tmp, s.projectPath(p.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing project: %w", err)
	}

	return nil
}

// LoadProject reads a project by ID.
func (s *LocalProjectStore) LoadProject(id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.projectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("reading project: %w", err)
	}

	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing project %s: %w", id, err)
	}
	if p.Components == nil {
		p.Components = make(map[string]*models.Component)
	}

	return &p, nil
}

// ListProjects returns summaries for all stored projects, newest first.
func (s *LocalProjectStore) ListProjects() ([]*models.ProjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.projectDir)
	if err != nil {
		return nil, fmt.Errorf("reading project directory: %w", err)
	}

	list := make([]*models.ProjectInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.projectDir, name))
		if err != nil {
			continue
		}
		var p models.Project
		if err := json.Unmarshal(data, &p); err != nil || p.ID == "" {
			continue
		}
		list = append(list, p.Info())
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})

	return list, nil
}

// DeleteProject removes a stored project.
func (s *LocalProjectStore) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.projectPath(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	return nil
}
