package models

// TextBlock is one piece of text lifted from an uploaded drawing, with its
// position on the drawing in canvas units. Blocks come from OCR output or
// from the text elements of an SVG drawing.
type TextBlock struct {
	ID          string  `json:"id"`
	FileID      string  `json:"fileId"`
	Text        string  `json:"text"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Confidence  float64 `json:"confidence"` // 0-1, from the extractor
	ComponentID string  `json:"componentId,omitempty"`
	Consumed    bool    `json:"consumed,omitempty"` // claimed by a detection match
}
