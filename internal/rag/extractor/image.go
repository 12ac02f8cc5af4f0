package extractor

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// tesseractEngine runs Tesseract over preprocessed PNG bytes and reports
// word-level confidences.
type tesseractEngine struct{}

func (e *tesseractEngine) Recognize(png []byte) (string, []float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	// Single uniform block of text, matching scanned page material.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", nil, fmt.Errorf("failed to configure OCR engine: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", nil, fmt.Errorf("failed to load image into OCR engine: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", nil, fmt.Errorf("OCR recognition failed: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read OCR confidences: %w", err)
	}
	confidences := make([]float64, 0, len(boxes))
	for _, box := range boxes {
		confidences = append(confidences, box.Confidence)
	}

	return strings.TrimSpace(text), confidences, nil
}

var _ OCREngine = (*tesseractEngine)(nil)
