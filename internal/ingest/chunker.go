package ingest

import (
	"strings"
	"unicode"
)

// Chunker splits raw text into overlapping windows of at most Size
// characters, preferring to cut on structural boundaries: paragraph break
// first, then line break, then sentence end, then word boundary, with a hard
// character cut as the last resort.
//
// Splitting is deterministic for identical input and configuration.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. size must be positive; overlap must be
// smaller than size (both enforced by config validation, re-checked here
// with safe fallbacks so a zero value cannot loop forever).
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split chunks text. Empty or whitespace-only input yields nil, not an error.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)

	var chunks []string
	start := 0
	for start < n {
		end := start + c.size
		if end >= n {
			appendChunk(&chunks, runes[start:n])
			break
		}

		cut := c.findCut(runes, start, end)
		appendChunk(&chunks, runes[start:cut])

		next := cut - c.overlap
		if next <= start {
			// Overlap would stall the scan; give up the overlap for this
			// window to guarantee forward progress.
			next = cut
		}
		start = next
	}

	return chunks
}

// findCut picks the cut position within (start, end]. Boundaries are only
// honored in the second half of the window so structural breaks near the
// window start cannot produce degenerate slivers.
func (c *Chunker) findCut(runes []rune, start, end int) int {
	window := string(runes[start:end])
	floor := c.size / 2

	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		// Cut after the separator so the break stays with the left chunk.
		// LastIndex returns a byte offset; convert to a rune offset.
		cut := len([]rune(window[:idx])) + len([]rune(sep))
		if cut > floor {
			return start + cut
		}
	}

	return end
}

func appendChunk(chunks *[]string, runes []rune) {
	chunk := string(runes)
	if strings.TrimFunc(chunk, unicode.IsSpace) == "" {
		return
	}
	*chunks = append(*chunks, chunk)
}
