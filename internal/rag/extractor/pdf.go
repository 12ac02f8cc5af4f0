package extractor

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	uniextractor "github.com/unidoc/unipdf/v3/extractor"
	unimodel "github.com/unidoc/unipdf/v3/model"
)

// layoutStrategy is the primary, high-fidelity method: unipdf's extractor
// reconstructs reading order from the page content streams.
type layoutStrategy struct{}

func (s *layoutStrategy) Name() string { return "layout" }

func (s *layoutStrategy) Extract(data []byte) (string, int, error) {
	reader, err := unimodel.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", 0, fmt.Errorf("failed to read page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", numPages, fmt.Errorf("failed to load page %d: %w", i, err)
		}
		ex, err := uniextractor.New(page)
		if err != nil {
			return "", numPages, fmt.Errorf("failed to create extractor for page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return "", numPages, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			fmt.Fprintf(&sb, "\n--- Page %d ---\n%s\n", i, text)
		}
	}

	return strings.TrimSpace(sb.String()), numPages, nil
}

// rowStrategy is the secondary method: row-grouped extraction that keeps
// table and column cells together when the layout-aware pass yields
// nothing.
type rowStrategy struct{}

func (s *rowStrategy) Name() string { return "rows" }

func (s *rowStrategy) Extract(data []byte) (string, int, error) {
	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return "", numPages, fmt.Errorf("failed to read rows on page %d: %w", i, err)
		}
		for _, row := range rows {
			var cells []string
			for _, word := range row.Content {
				if word.S != "" {
					cells = append(cells, word.S)
				}
			}
			if len(cells) > 0 {
				sb.WriteString(strings.Join(cells, " "))
				sb.WriteString("\n")
			}
		}
	}

	return strings.TrimSpace(sb.String()), numPages, nil
}

// plainTextStrategy is the tertiary, last-resort method: the basic
// whole-document text stream.
type plainTextStrategy struct{}

func (s *plainTextStrategy) Name() string { return "plain" }

func (s *plainTextStrategy) Extract(data []byte) (string, int, error) {
	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := reader.NumPage()
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", numPages, fmt.Errorf("failed to read plain text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", numPages, fmt.Errorf("failed to read plain text: %w", err)
	}

	return strings.TrimSpace(string(raw)), numPages, nil
}
