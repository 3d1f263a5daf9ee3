package textract

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Extractor converts an uploaded file into plain text ready for
// chunking.
type Extractor interface {
	Extract(filename string, data []byte) (string, error)
	Supports(filename string) bool
}

type PlainText struct{}

func (PlainText) Supports(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case "", ".txt", ".md", ".text":
		return true
	}
	return false
}

func (PlainText) Extract(filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file %s is not valid UTF-8 text", filename)
	}
	return string(data), nil
}

// ForFile picks the first extractor claiming the filename.
func ForFile(filename string, extractors ...Extractor) (Extractor, error) {
	if len(extractors) == 0 {
		extractors = []Extractor{PlainText{}}
	}
	for _, ex := range extractors {
		if ex.Supports(filename) {
			return ex, nil
		}
	}
	return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
}
