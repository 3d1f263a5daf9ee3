package chunker

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  hello   world  ", "hello world"},
		{"a\tb\nc\r\nd", "a b c d"},
		{"null\x00byte", "null byte"},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSplitShortText(t *testing.T) {
	c := New(100, 20)
	chunks := c.Split("doc-1", "a short document")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Content != "a short document" {
		t.Fatalf("unexpected content %q", chunks[0].Content)
	}
	if chunks[0].ChunkIndex != 0 || chunks[0].DocumentID != "doc-1" {
		t.Fatalf("unexpected chunk metadata %+v", chunks[0])
	}
}

func TestSplitEmptyText(t *testing.T) {
	c := New(100, 20)
	if chunks := c.Split("doc-1", "   \n\t "); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

// 250 spaceless runes with size 100 and overlap 20 must produce windows
// [0,100), [80,180), [160,250): lengths 100, 100, 90.
func TestSplitOverlapWindows(t *testing.T) {
	text := strings.Repeat("x", 250)
	c := New(100, 20)
	chunks := c.Split("doc-1", text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantLens := []int{100, 100, 90}
	for i, want := range wantLens {
		if got := len(chunks[i].Content); got != want {
			t.Fatalf("chunk %d length = %d, want %d", i, got, want)
		}
		if chunks[i].ChunkIndex != i {
			t.Fatalf("chunk %d index = %d", i, chunks[i].ChunkIndex)
		}
	}
}

func TestSplitSnapsToWordBoundary(t *testing.T) {
	// The space at offset 9 lies past the midpoint of a size-10 window,
	// so the first window must stop there instead of splitting a word.
	c := New(10, 0)
	chunks := c.Split("doc-1", "aaaa aaaa aaaa")

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "aaaa aaaa" {
		t.Fatalf("chunk 0 = %q", chunks[0].Content)
	}
	if chunks[1].Content != "aaaa" {
		t.Fatalf("chunk 1 = %q", chunks[1].Content)
	}
}

// Boundary snapping is defined over rune positions. In multibyte text a
// space early in the window sits at a large byte offset, which must not
// be mistaken for a past-midpoint space.
func TestSplitMultibyteBoundary(t *testing.T) {
	c := New(10, 0)

	// space at rune 4 of a size-10 window: before the midpoint, no snap
	chunks := c.Split("doc-1", strings.Repeat("語", 4)+" "+strings.Repeat("語", 7))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if want := strings.Repeat("語", 4) + " " + strings.Repeat("語", 5); chunks[0].Content != want {
		t.Fatalf("chunk 0 = %q, want %q", chunks[0].Content, want)
	}
	if want := strings.Repeat("語", 2); chunks[1].Content != want {
		t.Fatalf("chunk 1 = %q, want %q", chunks[1].Content, want)
	}

	// space at rune 6: past the midpoint, the window snaps back to it
	chunks = c.Split("doc-1", strings.Repeat("語", 6)+" "+strings.Repeat("語", 7))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if want := strings.Repeat("語", 6); chunks[0].Content != want {
		t.Fatalf("chunk 0 = %q, want %q", chunks[0].Content, want)
	}
	if want := strings.Repeat("語", 7); chunks[1].Content != want {
		t.Fatalf("chunk 1 = %q, want %q", chunks[1].Content, want)
	}
}

// A pathological overlap must not stall the walk: the next window always
// starts strictly after the previous one.
func TestSplitAlwaysProgresses(t *testing.T) {
	c := New(4, 3)
	chunks := c.Split("doc-1", strings.Repeat("y", 40))
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	total := 0
	for _, chunk := range chunks {
		total += len(chunk.Content)
	}
	if total < 40 {
		t.Fatalf("chunks cover %d runes, want at least 40", total)
	}
}
