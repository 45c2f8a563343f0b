package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedType is returned for files that are neither .txt nor .pdf.
var ErrUnsupportedType = errors.New("unsupported file type")

// SupportedExt reports whether the filename has an ingestible extension.
func SupportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// Load reads the plain-text content of a document, choosing the parser by
// file extension.
func Load(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("ingest: read %s: %w", path, err)
		}
		return string(b), nil
	case ".pdf":
		return loadPDF(path)
	default:
		return "", fmt.Errorf("ingest: %s: %w", path, ErrUnsupportedType)
	}
}

func loadPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("ingest: open pdf %s: %w", path, err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("ingest: extract pdf text %s: %w", path, err)
	}
	b, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("ingest: read pdf text %s: %w", path, err)
	}
	return string(b), nil
}
