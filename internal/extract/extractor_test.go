package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_PlainText(t *testing.T) {
	e := NewExtractor()

	text, err := e.ExtractText(context.Background(), "resume.txt", []byte("ten years of Go"))
	require.NoError(t, err)
	assert.Equal(t, "ten years of Go", text)

	text, err = e.ExtractText(context.Background(), "resume.md", []byte("# Alice"))
	require.NoError(t, err)
	assert.Equal(t, "# Alice", text)
}

func TestExtractText_EmptyFile(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText(context.Background(), "resume.txt", nil)
	assert.Error(t, err)
}

func TestExtractText_UnsupportedType(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText(context.Background(), "resume.docx", []byte("zip bytes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestExtractText_CorruptPDF(t *testing.T) {
	e := NewExtractor()

	_, err := e.ExtractText(context.Background(), "resume.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}
