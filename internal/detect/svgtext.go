package detect

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/layout-studio/backend/internal/models"
)

const defaultFontSize = 12.0

// ExtractSVGText lifts the text elements out of an SVG drawing, however
// deeply they nest, and returns them as positioned text blocks. Block sizes
// are estimated from the font size since SVG text carries no box of its own.
func ExtractSVGText(r io.Reader, fileID string) ([]models.TextBlock, error) {
	decoder := xml.NewDecoder(r)
	var blocks []models.TextBlock

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse svg: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "text" {
			continue
		}

		var x, y, fontSize float64
		fontSize = defaultFontSize
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "x":
				x = parseLength(attr.Value)
			case "y":
				y = parseLength(attr.Value)
			case "font-size":
				if v := parseLength(attr.Value); v > 0 {
					fontSize = v
				}
			}
		}

		text, err := collectText(decoder)
		if err != nil {
			return nil, fmt.Errorf("parse svg text element: %w", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		blocks = append(blocks, models.TextBlock{
			ID:     fmt.Sprintf("%s-t%d", fileID, len(blocks)),
			FileID: fileID,
			Text:   text,
			X:      x,
			// The y attribute is the baseline; lift it to the box top.
			Y:      y - fontSize,
			Width:  float64(len(text)) * fontSize * 0.6,
			Height: fontSize,
		})
	}
	return blocks, nil
}

// collectText gathers all character data under the current element, tspan
// children included, until its end tag.
func collectText(decoder *xml.Decoder) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := decoder.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	return sb.String(), nil
}

// parseLength reads an SVG length, tolerating a trailing unit such as "px".
func parseLength(s string) float64 {
	s = strings.TrimSpace(s)
	end := len(s)
	for end > 0 {
		ch := s[end-1]
		if (ch >= '0' && ch <= '9') || ch == '.' {
			break
		}
		end--
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseBlocksJSON reads pre-extracted text blocks, the hand-off format of
// external OCR tooling: a JSON array of blocks with text and box fields.
func ParseBlocksJSON(r io.Reader, fileID string) ([]models.TextBlock, error) {
	var blocks []models.TextBlock
	if err := json.NewDecoder(r).Decode(&blocks); err != nil {
		return nil, fmt.Errorf("parse text blocks: %w", err)
	}
	for i := range blocks {
		blocks[i].FileID = fileID
		if blocks[i].ID == "" {
			blocks[i].ID = fmt.Sprintf("%s-t%d", fileID, i)
		}
	}
	return blocks, nil
}
