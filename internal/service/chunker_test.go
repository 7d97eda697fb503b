package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerShortTextSingleChunk(t *testing.T) {
	chunker := NewChunker(1000, 200)

	chunks := chunker.Split("A short support article about refunds.")

	require.Len(t, chunks, 1)
	assert.Equal(t, "A short support article about refunds.", chunks[0])
}

func TestChunkerEmptyText(t *testing.T) {
	chunker := NewChunker(1000, 200)

	assert.Nil(t, chunker.Split(""))
	assert.Nil(t, chunker.Split("   \n\t  "))
}

func TestChunkerRespectsChunkSize(t *testing.T) {
	chunker := NewChunker(1000, 200)
	text := strings.Repeat("x", 2500)

	chunks := chunker.Split(text)

	require.Len(t, chunks, 3)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 1000)
	}
}

func TestChunkerOverlapCarriesContext(t *testing.T) {
	chunker := NewChunker(100, 20)
	text := strings.Repeat("abcdefghij", 30)

	chunks := chunker.Split(text)

	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-20:])
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d must start with the tail of chunk %d", i, i-1)
	}
}

func TestChunkerSnapsToSentenceBoundary(t *testing.T) {
	chunker := NewChunker(100, 20)
	// One sentence ends at position 80, inside the second half of the window.
	text := strings.Repeat("a", 79) + ". " + strings.Repeat("b", 200)

	chunks := chunker.Split(text)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "."),
		"first chunk should end at the sentence boundary, got %q", chunks[0])
	assert.Len(t, []rune(chunks[0]), 80)
}

func TestChunkerIgnoresEarlySentenceBoundary(t *testing.T) {
	chunker := NewChunker(100, 20)
	// The only period sits in the first half of the window, so the cut
	// stays at the full window size.
	text := strings.Repeat("a", 30) + ". " + strings.Repeat("b", 300)

	chunks := chunker.Split(text)

	require.Greater(t, len(chunks), 1)
	assert.Len(t, []rune(chunks[0]), 100)
}

func TestChunkerCoversWholeText(t *testing.T) {
	chunker := NewChunker(200, 50)
	text := "Billing questions are answered within one business day. " +
		strings.Repeat("Refunds are processed weekly. ", 40)

	chunks := chunker.Split(text)

	joined := strings.Join(chunks, " ")
	assert.Contains(t, joined, "Billing questions")
	assert.Contains(t, chunks[len(chunks)-1], "Refunds are processed weekly.")
}
