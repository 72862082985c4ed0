// manager_test.go - Tests for drawing file storage
package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/layout-studio/backend/internal/models"
)

func createTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		store := createTestStore(t)

		if store == nil {
			t.Fatal("Expected store to be created")
		}
		if store.uploadDir == "" {
			t.Error("Expected uploadDir to be set")
		}
	})

	t.Run("creates upload and meta directories", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads")

		_, err := NewLocalStore(uploadDir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
		if _, err := os.Stat(filepath.Join(uploadDir, "meta")); os.IsNotExist(err) {
			t.Error("Expected meta directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file from reader", func(t *testing.T) {
		store := createTestStore(t)

		content := "<svg></svg>"
		info, err := store.Save("proj-1", "plant.svg", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.ProjectID != "proj-1" {
			t.Errorf("Expected project 'proj-1', got %v", info.ProjectID)
		}
		if info.Name != "plant.svg" {
			t.Errorf("Expected name 'plant.svg', got %v", info.Name)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.Status != "uploaded" {
			t.Errorf("Expected status 'uploaded', got %v", info.Status)
		}
	})

	t.Run("creates physical file", func(t *testing.T) {
		store := createTestStore(t)

		content := "Test content"
		info, err := store.Save("proj-1", "test.txt", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(store.uploadDir, info.ID))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})

	t.Run("writes metadata sidecar", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("proj-1", "test.txt", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		metaPath := filepath.Join(store.uploadDir, "meta", info.ID+".json")
		if _, err := os.Stat(metaPath); os.IsNotExist(err) {
			t.Error("Expected metadata sidecar to exist")
		}
	})
}

func TestLocalStore_Reload(t *testing.T) {
	t.Run("second store sees files saved by the first", func(t *testing.T) {
		dir := t.TempDir()

		first, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		info, err := first.Save("proj-1", "plant.svg", strings.NewReader("<svg/>"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		second, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}

		reloaded, err := second.Get(info.ID)
		if err != nil {
			t.Fatalf("Failed to get reloaded file: %v", err)
		}
		if reloaded.Name != "plant.svg" {
			t.Errorf("Expected name 'plant.svg', got %v", reloaded.Name)
		}
		if reloaded.ProjectID != "proj-1" {
			t.Errorf("Expected project 'proj-1', got %v", reloaded.ProjectID)
		}
	})

	t.Run("skips sidecar whose blob is gone", func(t *testing.T) {
		dir := t.TempDir()

		first, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		info, err := first.Save("proj-1", "plant.svg", strings.NewReader("<svg/>"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		os.Remove(filepath.Join(dir, info.ID))

		second, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}
		if _, err := second.Get(info.ID); err == nil {
			t.Error("Expected orphaned sidecar to be skipped")
		}
	})
}

func TestLocalStore_Get(t *testing.T) {
	t.Run("gets existing file", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("proj-1", "test.txt", strings.NewReader("content"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		retrieved, err := store.Get(info.ID)
		if err != nil {
			t.Fatalf("Failed to get file: %v", err)
		}
		if retrieved.ID != info.ID {
			t.Errorf("Expected ID %s, got %s", info.ID, retrieved.ID)
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		store := createTestStore(t)

		if _, err := store.Get("non-existent-id"); err == nil {
			t.Error("Expected error for non-existent file")
		}
	})
}

func TestLocalStore_List(t *testing.T) {
	t.Run("filters by project", func(t *testing.T) {
		store := createTestStore(t)

		for i := 0; i < 3; i++ {
			if _, err := store.Save("proj-a", "a.svg", strings.NewReader("x")); err != nil {
				t.Fatalf("Failed to save file: %v", err)
			}
		}
		if _, err := store.Save("proj-b", "b.svg", strings.NewReader("x")); err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		files, err := store.List("proj-a", 0)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 3 {
			t.Errorf("Expected 3 files for proj-a, got %d", len(files))
		}

		all, err := store.List("", 0)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(all) != 4 {
			t.Errorf("Expected 4 files in total, got %d", len(all))
		}
	})

	t.Run("limits results", func(t *testing.T) {
		store := createTestStore(t)

		for i := 0; i < 10; i++ {
			if _, err := store.Save("proj-a", "file.svg", strings.NewReader("x")); err != nil {
				t.Fatalf("Failed to save file: %v", err)
			}
		}

		files, err := store.List("", 3)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 3 {
			t.Errorf("Expected 3 files, got %d", len(files))
		}
	})

	t.Run("sorts by upload time descending", func(t *testing.T) {
		store := createTestStore(t)

		ids := make([]string, 3)
		for i := 0; i < 3; i++ {
			info, err := store.Save("proj-a", "file.svg", strings.NewReader("x"))
			if err != nil {
				t.Fatalf("Failed to save file: %v", err)
			}
			ids[i] = info.ID
			time.Sleep(20 * time.Millisecond)
		}

		files, err := store.List("", 3)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if files[0].ID != ids[2] {
			t.Error("Expected files to be sorted by time descending")
		}
	})
}

func TestLocalStore_Delete(t *testing.T) {
	t.Run("deletes file and sidecar", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("proj-1", "test.txt", strings.NewReader("content"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if err := store.Delete(info.ID); err != nil {
			t.Fatalf("Failed to delete file: %v", err)
		}

		if _, err := store.Get(info.ID); err == nil {
			t.Error("Expected error when getting deleted file")
		}
		if _, err := os.Stat(filepath.Join(store.uploadDir, info.ID)); !os.IsNotExist(err) {
			t.Error("Physical file should be deleted")
		}
		metaPath := filepath.Join(store.uploadDir, "meta", info.ID+".json")
		if _, err := os.Stat(metaPath); !os.IsNotExist(err) {
			t.Error("Metadata sidecar should be deleted")
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		store := createTestStore(t)

		if err := store.Delete("non-existent-id"); err == nil {
			t.Error("Expected error when deleting non-existent file")
		}
	})
}

func TestLocalStore_Rename(t *testing.T) {
	t.Run("renames and persists", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		info, err := store.Save("proj-1", "oldname.svg", strings.NewReader("content"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		updated, err := store.Rename(info.ID, "newname.svg")
		if err != nil {
			t.Fatalf("Failed to rename file: %v", err)
		}
		if updated.Name != "newname.svg" {
			t.Errorf("Expected name 'newname.svg', got %v", updated.Name)
		}

		reopened, err := NewLocalStore(dir)
		if err != nil {
			t.Fatalf("Failed to reopen store: %v", err)
		}
		reloaded, err := reopened.Get(info.ID)
		if err != nil {
			t.Fatalf("Failed to get file: %v", err)
		}
		if reloaded.Name != "newname.svg" {
			t.Errorf("Expected persisted name 'newname.svg', got %v", reloaded.Name)
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		store := createTestStore(t)

		if _, err := store.Rename("non-existent-id", "newname.svg"); err == nil {
			t.Error("Expected error when renaming non-existent file")
		}
	})
}

func TestLocalStore_SetStatus(t *testing.T) {
	t.Run("updates status", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("proj-1", "plant.svg", strings.NewReader("<svg/>"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		updated, err := store.SetStatus(info.ID, "processed")
		if err != nil {
			t.Fatalf("Failed to set status: %v", err)
		}
		if updated.Status != "processed" {
			t.Errorf("Expected status 'processed', got %v", updated.Status)
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		store := createTestStore(t)

		if _, err := store.SetStatus("non-existent-id", "processed"); err == nil {
			t.Error("Expected error for non-existent file")
		}
	})
}

func TestLocalStore_GetFilePath(t *testing.T) {
	t.Run("returns file path for existing file", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("proj-1", "test.txt", strings.NewReader("content"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		path, err := store.GetFilePath(info.ID)
		if err != nil {
			t.Fatalf("Failed to get file path: %v", err)
		}
		expected := filepath.Join(store.uploadDir, info.ID)
		if path != expected {
			t.Errorf("Expected path %s, got %s", expected, path)
		}
	})

	t.Run("returns error for non-existent file", func(t *testing.T) {
		store := createTestStore(t)

		if _, err := store.GetFilePath("non-existent-id"); err == nil {
			t.Error("Expected error when getting path for non-existent file")
		}
	})
}

func TestLocalStore_SaveChunk(t *testing.T) {
	t.Run("saves chunk", func(t *testing.T) {
		store := createTestStore(t)

		uploadID := "upload-123"
		content := "Chunk data"

		if err := store.SaveChunk(uploadID, 0, strings.NewReader(content)); err != nil {
			t.Fatalf("Failed to save chunk: %v", err)
		}

		chunkPath := filepath.Join(store.uploadDir, "chunks", uploadID, "chunk_0")
		data, err := os.ReadFile(chunkPath)
		if err != nil {
			t.Fatalf("Failed to read chunk: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected chunk content %q, got %q", content, string(data))
		}
	})
}

func TestLocalStore_CompleteChunkedUpload(t *testing.T) {
	t.Run("assembles chunks into final file", func(t *testing.T) {
		store := createTestStore(t)

		uploadID := "upload-complete"
		chunks := []string{"Hello ", "World", "!"}

		for i, content := range chunks {
			if err := store.SaveChunk(uploadID, i, strings.NewReader(content)); err != nil {
				t.Fatalf("Failed to save chunk %d: %v", i, err)
			}
		}

		info, err := store.CompleteChunkedUpload(uploadID, "proj-1", "assembled.svg", len(chunks))
		if err != nil {
			t.Fatalf("Failed to complete upload: %v", err)
		}

		if info.Name != "assembled.svg" {
			t.Errorf("Expected name 'assembled.svg', got %v", info.Name)
		}
		if info.ProjectID != "proj-1" {
			t.Errorf("Expected project 'proj-1', got %v", info.ProjectID)
		}

		data, err := os.ReadFile(filepath.Join(store.uploadDir, info.ID))
		if err != nil {
			t.Fatalf("Failed to read assembled file: %v", err)
		}
		if string(data) != "Hello World!" {
			t.Errorf("Expected 'Hello World!', got %q", string(data))
		}

		chunkDir := filepath.Join(store.uploadDir, "chunks", uploadID)
		if _, err := os.Stat(chunkDir); !os.IsNotExist(err) {
			t.Error("Chunk directory should be cleaned up")
		}
	})

	t.Run("returns error for missing chunks", func(t *testing.T) {
		store := createTestStore(t)

		uploadID := "upload-incomplete"
		if err := store.SaveChunk(uploadID, 0, strings.NewReader("chunk0")); err != nil {
			t.Fatalf("Failed to save chunk: %v", err)
		}

		if _, err := store.CompleteChunkedUpload(uploadID, "proj-1", "incomplete.svg", 3); err == nil {
			t.Error("Expected error when chunks are missing")
		}
	})
}

func TestLocalStore_RegisterFile(t *testing.T) {
	t.Run("registers existing file", func(t *testing.T) {
		store := createTestStore(t)

		content := []byte("Existing content")
		if err := os.WriteFile(filepath.Join(store.uploadDir, "existing-file"), content, 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}

		store.RegisterFile(&models.FileInfo{
			ID:         "existing-file",
			ProjectID:  "proj-1",
			Name:       "registered.svg",
			Size:       int64(len(content)),
			UploadedAt: time.Now(),
			Status:     "uploaded",
		})

		retrieved, err := store.Get("existing-file")
		if err != nil {
			t.Fatalf("Failed to get registered file: %v", err)
		}
		if retrieved.Name != "registered.svg" {
			t.Errorf("Expected name 'registered.svg', got %v", retrieved.Name)
		}
	})
}

func TestLocalStore_ConcurrentAccess(t *testing.T) {
	t.Run("handles concurrent saves", func(t *testing.T) {
		store := createTestStore(t)

		done := make(chan bool, 10)
		for i := 0; i < 10; i++ {
			go func(n int) {
				content := bytes.Repeat([]byte{byte('0' + n)}, 8)
				_, err := store.Save("proj-1", "file.svg", bytes.NewReader(content))
				if err != nil {
					t.Errorf("Failed to save file: %v", err)
				}
				done <- true
			}(i)
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		files, err := store.List("", 0)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 10 {
			t.Errorf("Expected 10 files, got %d", len(files))
		}
	})
}

// failingReader simulates a read error mid-stream.
type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestLocalStore_ErrorHandling(t *testing.T) {
	t.Run("handles read error during save", func(t *testing.T) {
		store := createTestStore(t)

		if _, err := store.Save("proj-1", "test.svg", failingReader{}); err == nil {
			t.Error("Expected error when reader fails")
		}
	})

	t.Run("failed save leaves nothing behind", func(t *testing.T) {
		store := createTestStore(t)

		_, _ = store.Save("proj-1", "test.svg", failingReader{})

		files, err := store.List("", 0)
		if err != nil {
			t.Fatalf("Failed to list files: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("Expected no files after failed save, got %d", len(files))
		}
	})
}
