package models

// SessionStatus represents the status of a detection session.
type SessionStatus string

const (
	SessionStatusPending  SessionStatus = "pending"
	SessionStatusRunning  SessionStatus = "running"
	SessionStatusComplete SessionStatus = "complete"
	SessionStatusError    SessionStatus = "error"
)

// DetectSession tracks one background detection run over an uploaded
// drawing: text block extraction, pattern matching and the resulting
// component suggestions.
type DetectSession struct {
	ID               string        `json:"id"`
	ProjectID        string        `json:"projectId"`
	FileID           string        `json:"fileId"`
	Status           SessionStatus `json:"status"`
	Progress         float64       `json:"progress"` // 0-100
	BlockCount       int           `json:"blockCount,omitempty"`
	MatchCount       int           `json:"matchCount,omitempty"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	StartTime        int64         `json:"startTime,omitempty"` // Unix ms
	EndTime          int64         `json:"endTime,omitempty"`   // Unix ms
	Suggestions      []Suggestion  `json:"suggestions,omitempty"`
	Errors           []DetectError `json:"errors,omitempty"`
}

// Suggestion is one detected component candidate: a type, the text block
// that triggered it, a proposed placement box and the conveyor properties
// the matching rule prescribes.
type Suggestion struct {
	Type        ComponentType `json:"type"`
	EquipmentID string        `json:"equipmentId,omitempty"`
	Label       string        `json:"label,omitempty"`
	X           float64       `json:"x"`
	Y           float64       `json:"y"`
	Width       float64       `json:"width"`
	Height      float64       `json:"height"`
	BeltWidth   float64       `json:"beltWidth,omitempty"`
	CurveAngle  float64       `json:"curveAngle,omitempty"`
	Confidence  float64       `json:"confidence"` // 0-1
	BlockID     string        `json:"blockId,omitempty"`
}

// DetectError represents a failure against one text block.
type DetectError struct {
	BlockID string `json:"blockId,omitempty"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// NewDetectSession creates a new DetectSession in pending status.
func NewDetectSession(id, projectID, fileID string) *DetectSession {
	return &DetectSession{
		ID:        id,
		ProjectID: projectID,
		FileID:    fileID,
		Status:    SessionStatusPending,
		Progress:  0,
		Errors:    make([]DetectError, 0),
	}
}
