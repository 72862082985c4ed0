// manager.go - Drawing file storage layer
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/layout-studio/backend/internal/models"
)

// Store defines the interface for drawing file storage.
type Store interface {
	// Save stores a drawing from a reader and returns its metadata.
	Save(projectID string, name string, r io.Reader) (*models.FileInfo, error)
	// Get retrieves drawing metadata by ID.
	Get(id string) (*models.FileInfo, error)
	// List returns drawings sorted newest first. Empty projectID lists all
	// projects. limit <= 0 means no limit.
	List(projectID string, limit int) ([]*models.FileInfo, error)
	// Delete removes a drawing and its metadata.
	Delete(id string) error
	// Rename updates the display name of a drawing.
	Rename(id string, newName string) (*models.FileInfo, error)
	// SetStatus updates the processing status of a drawing.
	SetStatus(id string, status string) (*models.FileInfo, error)
	// GetFilePath returns the absolute path to the stored drawing.
	GetFilePath(id string) (string, error)
	// SaveChunk stores a single chunk of a chunked upload.
	SaveChunk(uploadID string, chunkIndex int, r io.Reader) error
	// CompleteChunkedUpload assembles all chunks into the final drawing.
	CompleteChunkedUpload(uploadID string, projectID string, name string, totalChunks int) (*models.FileInfo, error)
}

// LocalStore implements Store using the local filesystem. Blobs live
// directly under uploadDir named by ID, metadata sidecars under
// uploadDir/meta, and in-flight chunks under uploadDir/chunks/<uploadID>.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*models.FileInfo
}

// NewLocalStore creates a LocalStore rooted at uploadDir and reloads
// metadata for drawings saved by previous runs.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(uploadDir, "meta"), 0755); err != nil {
		return nil, fmt.Errorf("creating metadata directory: %w", err)
	}

	s := &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*models.FileInfo),
	}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}

	return s, nil
}

// loadIndex rebuilds the in-memory index from metadata sidecars. Sidecars
// whose blob went missing are skipped.
func (s *LocalStore) loadIndex() error {
	metaDir := filepath.Join(s.uploadDir, "meta")
	entries, err := os.ReadDir(metaDir)
	if err != nil {
		return fmt.Errorf("reading metadata directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(metaDir, entry.Name()))
		if err != nil {
			continue
		}
		var info models.FileInfo
		if err := json.Unmarshal(data, &info); err != nil || info.ID == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.uploadDir, info.ID)); err != nil {
			continue
		}
		s.files[info.ID] = &info
	}

	return nil
}

// writeMeta persists the metadata sidecar for a drawing. Caller holds the lock.
func (s *LocalStore) writeMeta(info *models.FileInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	path := filepath.Join(s.uploadDir, "meta", info.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// Save stores a drawing from a reader.
func (s *LocalStore) Save(projectID string, name string, r io.Reader) (*models.FileInfo, error) {
	id := uuid.New().String()
	path := filepath.Join(s.uploadDir, id)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	size, err := io.Copy(f, r)
	f.Close()
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	info := &models.FileInfo{
		ID:         id,
		ProjectID:  projectID,
		Name:       name,
		Size:       size,
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeMeta(info); err != nil {
		os.Remove(path)
		return nil, err
	}
	s.files[id] = info

	return info, nil
}

// SaveBytes stores a drawing from a byte slice.
func (s *LocalStore) SaveBytes(projectID string, name string, data []byte) (*models.FileInfo, error) {
	return s.Save(projectID, name, strings.NewReader(string(data)))
}

// Get retrieves drawing metadata by ID.
func (s *LocalStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}

	return info, nil
}

// List returns stored drawings, newest first.
func (s *LocalStore) List(projectID string, limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.FileInfo, 0, len(s.files))
	for _, info := range s.files {
		if projectID != "" && info.ProjectID != projectID {
			continue
		}
		list = append(list, info)
	}

	// Sort by UploadedAt desc
	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}

	return list, nil
}

// Delete removes a drawing, its sidecar, and the index entry.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, ErrNotFound)
	}

	path := filepath.Join(s.uploadDir, id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	os.Remove(filepath.Join(s.uploadDir, "meta", id+".json"))

	delete(s.files, id)

	return nil
}

// Rename updates the display name of a drawing.
func (s *LocalStore) Rename(id string, newName string) (*models.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}

	info.Name = newName
	if err := s.writeMeta(info); err != nil {
		return nil, err
	}

	return info, nil
}

// SetStatus updates the processing status of a drawing.
func (s *LocalStore) SetStatus(id string, status string) (*models.FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}

	info.Status = status
	if err := s.writeMeta(info); err != nil {
		return nil, err
	}

	return info, nil
}

// GetFilePath returns the absolute path to a stored drawing.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[id]; !ok {
		return "", fmt.Errorf("file %s: %w", id, ErrNotFound)
	}

	return filepath.Join(s.uploadDir, id), nil
}

// RegisterFile adds metadata for a file already present on disk.
func (s *LocalStore) RegisterFile(info *models.FileInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[info.ID] = info
	s.writeMeta(info)
}

// SaveChunk saves a single chunk to a temporary location.
func (s *LocalStore) SaveChunk(uploadID string, chunkIndex int, r io.Reader) error {
	chunkDir := filepath.Join(s.uploadDir, "chunks", uploadID)
	if err := os.MkdirAll(chunkDir, 0755); err != nil {
		return fmt.Errorf("creating chunk directory: %w", err)
	}

	path := filepath.Join(chunkDir, fmt.Sprintf("chunk_%d", chunkIndex))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chunk file: %w", err)
	}
	defer f.Close()

	_, err = io.Copy(f, r)
	if err != nil {
		return fmt.Errorf("writing chunk: %w", err)
	}

	return nil
}

// SaveChunkBytes saves a single chunk from a byte slice.
func (s *LocalStore) SaveChunkBytes(uploadID string, chunkIndex int, data []byte) error {
	return s.SaveChunk(uploadID, chunkIndex, strings.NewReader(string(data)))
}

// CompleteChunkedUpload assembles all chunks into a final drawing.
func (s *LocalStore) CompleteChunkedUpload(uploadID string, projectID string, name string, totalChunks int) (*models.FileInfo, error) {
	id := uuid.New().String()
	finalPath := filepath.Join(s.uploadDir, id)
	chunkDir := filepath.Join(s.uploadDir, "chunks", uploadID)

	out, err := os.Create(finalPath)
	if err != nil {
		return nil, fmt.Errorf("creating final file: %w", err)
	}

	var totalSize int64
	for i := 0; i < totalChunks; i++ {
		chunkPath := filepath.Join(chunkDir, fmt.Sprintf("chunk_%d", i))
		in, err := os.Open(chunkPath)
		if err != nil {
			out.Close()
			os.Remove(finalPath)
			return nil, fmt.Errorf("opening chunk %d: %w", i, err)
		}

		n, err := io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			os.Remove(finalPath)
			return nil, fmt.Errorf("copying chunk %d: %w", i, err)
		}
		totalSize += n
	}
	out.Close()

	info := &models.FileInfo{
		ID:         id,
		ProjectID:  projectID,
		Name:       name,
		Size:       totalSize,
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}

	s.mu.Lock()
	if err := s.writeMeta(info); err != nil {
		s.mu.Unlock()
		os.Remove(finalPath)
		return nil, err
	}
	s.files[id] = info
	s.mu.Unlock()

	// Cleanup chunks
	os.RemoveAll(chunkDir)

	return info, nil
}
