package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupported marks file types the extractor cannot turn into text.
var ErrUnsupported = errors.New("unsupported file type")

// Text reads an uploaded document and returns its plain-text content.
// Markdown, JSON and CSV pass through as-is; the chunker downstream deals
// with their structure. PDF needs an OCR toolchain this service does not
// ship with, so it is reported as unsupported and the job fails cleanly.
func Text(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".md", ".json", ".csv":
		return readPlainText(path)
	case ".pdf":
		return "", fmt.Errorf("%w: %s (pdf extraction requires an external OCR service)", ErrUnsupported, ext)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8 text", ErrUnsupported)
	}
	return string(data), nil
}
