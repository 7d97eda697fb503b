package service

import "strings"

// Chunker splits document text into overlapping windows sized for the
// embedding model. Windows prefer to end on a sentence boundary when one
// falls in the second half of the window.
type Chunker struct {
	chunkSize int
	overlap   int
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Split cuts text into chunks. Offsets are in runes so multi-byte characters
// are never split mid-sequence.
func (c *Chunker) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}

		// Snap to the last sentence end inside the window, but only when
		// it leaves at least half a window of content.
		if end < len(runes) {
			if period := lastPeriod(runes, start, end); period > start+c.chunkSize/2 {
				end = period + 1
			}
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}
		start = end - c.overlap
	}

	return chunks
}

func lastPeriod(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		if runes[i] == '.' {
			return i
		}
	}
	return -1
}
