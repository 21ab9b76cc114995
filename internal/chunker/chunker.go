// Package chunker splits dataset documents into retrievable chunks.
//
// The splitter understands line-oriented Q&A documents: a line starting
// with "Query:" is merged with the line that follows it into a single
// chunk, so a question and its answer are always retrieved together. A
// "Response:" line is only ever consumed by such a pairing; on its own it
// is noise and dropped. Every other line stands alone. Candidates shorter
// than the minimum length are skipped and reported, not stored.
package chunker

import "strings"

// DefaultMinLength is the minimum chunk length in characters. Shorter
// candidates carry too little signal to be worth an embedding.
const DefaultMinLength = 20

// Line markers for Q&A pairing.
const (
	queryMarker  = "Query:"
	answerMarker = "Response:"
)

// Chunk is one retrievable unit of a document.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Ordinal is the chunk's position in the document, counting from 0
	// over the kept chunks.
	Ordinal int
}

// Result is the outcome of splitting one document.
type Result struct {
	// Chunks are the kept chunks in document order.
	Chunks []Chunk

	// Skipped lists candidates dropped for being below the minimum length.
	Skipped []string
}

// Splitter splits document text into chunks.
type Splitter struct {
	minLength int
}

// New creates a Splitter. A non-positive minLength falls back to
// DefaultMinLength.
func New(minLength int) *Splitter {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return &Splitter{minLength: minLength}
}

// MinLength returns the configured minimum chunk length.
func (s *Splitter) MinLength() int {
	return s.minLength
}

// Split splits text into chunks.
//
// Splitting is deterministic: the same text always produces the same
// chunks in the same order. A "Query:" line consumes the immediately
// following line into one chunk; a "Query:" on the last line stands alone
// and still passes through the length gate.
func (s *Splitter) Split(text string) Result {
	lines := normalizeLines(text)

	var result Result
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		var candidate string
		switch {
		case strings.HasPrefix(line, queryMarker):
			candidate = line
			if i+1 < len(lines) {
				candidate = line + "\n" + lines[i+1]
				i++
			}
		case strings.HasPrefix(line, answerMarker):
			continue
		default:
			candidate = line
		}

		if len(candidate) < s.minLength {
			result.Skipped = append(result.Skipped, candidate)
			continue
		}

		result.Chunks = append(result.Chunks, Chunk{
			Text:    candidate,
			Ordinal: len(result.Chunks),
		})
	}

	return result
}

// normalizeLines trims whitespace and drops empty lines.
func normalizeLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		trimmed := strings.TrimSpace(l)
		if trimmed == "" {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}
