package models

import "time"

// FileInfo represents metadata about an uploaded drawing file.
type FileInfo struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId,omitempty"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"` // sniffed, not client-supplied
	UploadedAt  time.Time `json:"uploadedAt"`
	Status      string    `json:"status"` // "uploaded", "processing", "processed", "error"
}
