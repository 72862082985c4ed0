package upload

import (
	"bytes"
	"compress/gzip"
	"os"
	"testing"
	"time"

	"github.com/layout-studio/backend/internal/testutil"
)

// pngHeader is the 8-byte PNG signature plus enough trailing bytes for the
// content sniffer.
var pngHeader = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 24)...)

func waitForJob(t *testing.T, m *Manager, id string) Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := m.SnapshotJob(id)
		if !ok {
			t.Fatalf("job %s disappeared", id)
		}
		if job.Status == StatusComplete || job.Status == StatusError {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return Job{}
}

func TestStartJobCompletesAndSniffsType(t *testing.T) {
	store := testutil.NewMockStorageWithTempDir(t.TempDir())
	m := NewManager(t.TempDir(), store)

	if err := store.SaveChunkBytes("up-1", 0, pngHeader[:16]); err != nil {
		t.Fatalf("SaveChunkBytes: %v", err)
	}
	if err := store.SaveChunkBytes("up-1", 1, pngHeader[16:]); err != nil {
		t.Fatalf("SaveChunkBytes: %v", err)
	}

	job := m.StartJob("up-1", "p1", "floorplan.png", 2, int64(len(pngHeader)), int64(len(pngHeader)), "binary")
	done := waitForJob(t, m, job.ID)

	if done.Status != StatusComplete {
		t.Fatalf("status = %s (%s)", done.Status, done.Error)
	}
	if done.Progress != 100 {
		t.Errorf("progress = %v, want 100", done.Progress)
	}
	if done.FileInfo == nil {
		t.Fatal("completed job has no file info")
	}
	if done.FileInfo.ProjectID != "p1" {
		t.Errorf("project = %q, want p1", done.FileInfo.ProjectID)
	}
	if done.FileInfo.ContentType != "image/png" {
		t.Errorf("content type = %q, want image/png", done.FileInfo.ContentType)
	}
	if done.FileInfo.Status != "processed" {
		t.Errorf("file status = %q, want processed", done.FileInfo.Status)
	}
}

func TestStartJobDecompressesGzip(t *testing.T) {
	store := testutil.NewMockStorageWithTempDir(t.TempDir())
	m := NewManager(t.TempDir(), store)

	original := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><text x="1" y="2">CV-001</text></svg>`)
	var compressed bytes.Buffer
	zw := gzip.NewWriter(&compressed)
	if _, err := zw.Write(original); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	if err := store.SaveChunkBytes("up-2", 0, compressed.Bytes()); err != nil {
		t.Fatalf("SaveChunkBytes: %v", err)
	}

	job := m.StartJob("up-2", "p1", "layout.svg", 1, int64(len(original)), int64(compressed.Len()), "gzip")
	done := waitForJob(t, m, job.ID)

	if done.Status != StatusComplete {
		t.Fatalf("status = %s (%s)", done.Status, done.Error)
	}
	if done.FileInfo.Size != int64(len(original)) {
		t.Errorf("size = %d, want decompressed %d", done.FileInfo.Size, len(original))
	}
	if done.FileInfo.ContentType != "image/svg+xml" {
		t.Errorf("content type = %q, want image/svg+xml", done.FileInfo.ContentType)
	}

	path, err := store.GetFilePath(done.FileInfo.ID)
	if err != nil {
		t.Fatalf("GetFilePath: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored blob: %v", err)
	}
	if !bytes.Equal(data, original) {
		t.Error("stored blob was not replaced with the decompressed bytes")
	}
}

func TestStartJobMissingChunksFails(t *testing.T) {
	store := testutil.NewMockStorageWithTempDir(t.TempDir())
	m := NewManager(t.TempDir(), store)

	job := m.StartJob("up-missing", "p1", "nothing.png", 3, 100, 100, "binary")
	done := waitForJob(t, m, job.ID)

	if done.Status != StatusError {
		t.Fatalf("status = %s, want error", done.Status)
	}
	if done.Error == "" {
		t.Error("failed job carries no error message")
	}
}

func TestSnapshotJobUnknown(t *testing.T) {
	m := NewManager(t.TempDir(), testutil.NewMockStorage())
	if _, ok := m.SnapshotJob("nope"); ok {
		t.Error("unknown job should report ok=false")
	}
	if _, ok := m.GetJob("nope"); ok {
		t.Error("unknown job should report ok=false")
	}
}

func TestCleanupOldJobs(t *testing.T) {
	store := testutil.NewMockStorageWithTempDir(t.TempDir())
	m := NewManager(t.TempDir(), store)

	if err := store.SaveChunkBytes("up-3", 0, pngHeader); err != nil {
		t.Fatalf("SaveChunkBytes: %v", err)
	}
	job := m.StartJob("up-3", "p1", "a.png", 1, int64(len(pngHeader)), int64(len(pngHeader)), "binary")
	waitForJob(t, m, job.ID)

	time.Sleep(20 * time.Millisecond)
	m.CleanupOldJobs(time.Millisecond)

	if _, ok := m.GetJob(job.ID); ok {
		t.Error("finished job older than maxAge survived cleanup")
	}
}
