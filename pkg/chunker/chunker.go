package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/chronicle-ai/chronicle/pkg/types"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts normalized text into overlapping windows of at most size
// runes. A window that stops short of the text end is snapped back to the
// last space, provided that space lies past the window midpoint, so words
// are not cut in half. The next window rewinds by overlap runes to keep
// context continuity across chunk boundaries.
func (c *Chunker) Split(documentID string, text string) []types.Chunk {
	normalized := Sanitize(text)
	var chunks []types.Chunk
	if normalized == "" {
		return chunks
	}

	runes := []rune(normalized)
	start := 0
	index := 0
	for start < len(runes) {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		if end < len(runes) {
			candidate := string(runes[start:end])
			if lastSpace := strings.LastIndex(candidate, " "); lastSpace >= 0 {
				// compare rune positions, LastIndex yields bytes
				if cut := len([]rune(candidate[:lastSpace])); cut > c.size/2 {
					end = start + cut
				}
			}
		}

		chunks = append(chunks, types.Chunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			ChunkIndex: index,
			Content:    strings.TrimSpace(string(runes[start:end])),
		})
		index++

		if end == len(runes) {
			break
		}
		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// Sanitize replaces null bytes and control characters with spaces
// (postgres rejects them in text columns) and collapses whitespace runs.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == 0 || unicode.IsControl(r) {
			return ' '
		}
		return r
	}, text)
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
}
