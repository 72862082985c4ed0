package models

import (
	"encoding/json"
	"time"
)

// Snapshot is one entry in a project's version history. Document holds the
// full project JSON; listings omit it and carry only the header fields.
type Snapshot struct {
	ID             string          `json:"id"`
	ProjectID      string          `json:"projectId"`
	Label          string          `json:"label,omitempty"`
	ComponentCount int             `json:"componentCount"`
	CreatedAt      time.Time       `json:"createdAt"`
	Document       json.RawMessage `json:"document,omitempty"`
}
