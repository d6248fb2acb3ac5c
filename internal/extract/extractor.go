// Package extract pulls plain text out of uploaded resume files.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Extractor converts resume files to plain text. Errors are per-file; a batch
// caller skips the failed file and moves on.
type Extractor struct{}

// NewExtractor creates a text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractText returns the plain text of one file, dispatching on extension.
func (e *Extractor) ExtractText(ctx context.Context, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty file: %s", fileName)
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return e.extractPDF(data)
	case ".txt", ".md", "":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", fileName)
	}
}

// extractPDF concatenates the text layer of every page.
func (e *Extractor) extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("PDF contains no extractable text")
	}
	return out, nil
}
