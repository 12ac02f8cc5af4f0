package extractor

import (
	"fmt"
	"time"

	"StudyMind/internal/models"
	"StudyMind/pkg/logger"
)

// PDFStrategy is one extraction method in the ordered fallback chain. A
// strategy that cannot produce text returns an empty string or an error;
// either way the chain proceeds to the next strategy.
type PDFStrategy interface {
	// Name identifies the method in result metadata.
	Name() string
	// Extract returns the plain text and page count of the document.
	Extract(data []byte) (text string, pages int, err error)
}

// OCREngine turns preprocessed image bytes into text plus per-token
// confidence scores.
type OCREngine interface {
	Recognize(png []byte) (text string, confidences []float64, err error)
}

// Metadata is the structural metadata recorded with an extraction.
type Metadata struct {
	Pages       int             `json:"pages,omitempty"`
	Method      string          `json:"method"`
	Confidence  float64         `json:"avg_confidence,omitempty"`
	ImageWidth  int             `json:"image_width,omitempty"`
	ImageHeight int             `json:"image_height,omitempty"`
	Filename    string          `json:"filename"`
	FileType    models.FileType `json:"file_type"`
	Timestamp   time.Time       `json:"upload_timestamp"`
}

// Result is the tagged outcome of one extraction call. FileID is set even
// on failure so the identity can be correlated with error reporting.
type Result struct {
	Status   models.Status `json:"status"`
	Message  string        `json:"message,omitempty"`
	Text     string        `json:"text"`
	FileID   string        `json:"file_id"`
	Metadata Metadata      `json:"metadata"`
}

// Extractor converts raw file bytes into plain text plus metadata, trying
// multiple methods in priority order for PDFs and OCR for images.
type Extractor struct {
	strategies []PDFStrategy
	ocr        OCREngine
	log        *logger.Logger
}

// New builds an Extractor with the default chain: layout-aware extraction
// first, then table/column-aware, then basic page text; Tesseract for
// images.
func New(log *logger.Logger) *Extractor {
	return &Extractor{
		strategies: []PDFStrategy{
			&layoutStrategy{},
			&rowStrategy{},
			&plainTextStrategy{},
		},
		ocr: &tesseractEngine{},
		log: log,
	}
}

// NewWithStrategies builds an Extractor with an explicit chain and engine.
func NewWithStrategies(strategies []PDFStrategy, ocr OCREngine, log *logger.Logger) *Extractor {
	return &Extractor{strategies: strategies, ocr: ocr, log: log}
}

// FromPDF runs the fallback chain over data and stops at the first method
// yielding non-empty text. A panicking or failing method is logged and
// treated as empty so the chain proceeds; only exhaustion of every method
// produces an error result.
func (e *Extractor) FromPDF(data []byte, filename string) *Result {
	now := time.Now()
	res := &Result{
		FileID: NewFileID(filename, now),
		Metadata: Metadata{
			Method:    "failed",
			Filename:  filename,
			FileType:  models.FileTypePDF,
			Timestamp: now,
		},
	}

	for _, s := range e.strategies {
		text, pages, err := e.tryStrategy(s, data)
		if err != nil {
			e.log.WithErr(err).Warn(fmt.Sprintf("PDF extraction method %s failed, trying next", s.Name()))
			continue
		}
		if pages > res.Metadata.Pages {
			res.Metadata.Pages = pages
		}
		if text == "" {
			e.log.Debug(fmt.Sprintf("PDF extraction method %s yielded no text", s.Name()))
			continue
		}

		res.Status = models.StatusSuccess
		res.Text = text
		res.Metadata.Method = s.Name()
		return res
	}

	res.Status = models.StatusError
	res.Message = "no text could be extracted from PDF"
	return res
}

// tryStrategy isolates one method so a panic inside a PDF library is
// contained and treated like any other method failure.
func (e *Extractor) tryStrategy(s PDFStrategy, data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("extraction method %s panicked: %v", s.Name(), r)
		}
	}()
	return s.Extract(data)
}

// FromImage preprocesses the image (grayscale, denoise, adaptive-threshold
// binarize) and runs OCR. Empty OCR output is a warning, not an error: a
// blank or image-only page is not a processing failure.
func (e *Extractor) FromImage(data []byte, filename string) *Result {
	now := time.Now()
	res := &Result{
		FileID: NewFileID(filename, now),
		Metadata: Metadata{
			Method:    "ocr",
			Filename:  filename,
			FileType:  models.FileTypeImage,
			Timestamp: now,
		},
	}

	processed, width, height, err := preprocessForOCR(data)
	if err != nil {
		res.Status = models.StatusError
		res.Message = fmt.Sprintf("error processing image: %v", err)
		return res
	}
	res.Metadata.ImageWidth = width
	res.Metadata.ImageHeight = height

	text, confidences, err := e.ocr.Recognize(processed)
	if err != nil {
		res.Status = models.StatusError
		res.Message = fmt.Sprintf("error processing image: %v", err)
		return res
	}

	res.Metadata.Confidence = meanPositiveConfidence(confidences)
	res.Text = text
	if text == "" {
		res.Status = models.StatusWarning
		res.Message = "no text could be extracted from image"
		return res
	}

	res.Status = models.StatusSuccess
	return res
}

// meanPositiveConfidence averages the positive per-token confidence scores.
// Tokens the engine marks with confidence <= 0 are layout artifacts, not
// recognitions, and are excluded. No positive tokens means confidence 0.
func meanPositiveConfidence(confidences []float64) float64 {
	var sum float64
	var n int
	for _, c := range confidences {
		if c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
