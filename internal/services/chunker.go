package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// ChunkText implements TextChunker.
// Sentences are packed into chunks of at most maxChunkSize runes; each chunk after
// the first starts with the last overlap runes of the previous one. A single
// sentence longer than maxChunkSize is split hard.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	fresh := false

	flush := func() {
		chunk := current.String()
		chunks = append(chunks, chunk)
		current.Reset()
		currentLen = 0
		fresh = false
		if tail := lastNRunes(chunk, overlap); tail != "" {
			current.WriteString(tail)
			currentLen = utf8.RuneCountInString(tail)
		}
	}

	// Leave room for the overlap and a separating space.
	pieceSize := max(maxChunkSize-overlap-1, 1)

	for _, sentence := range splitIntoSentences(text) {
		for _, piece := range splitRunes(sentence, pieceSize) {
			pieceLen := utf8.RuneCountInString(piece)
			if fresh && currentLen+1+pieceLen > maxChunkSize {
				flush()
			}
			if currentLen > 0 {
				current.WriteString(" ")
				currentLen++
			}
			current.WriteString(piece)
			currentLen += pieceLen
			fresh = true
		}
	}

	if fresh {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func splitIntoSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func splitRunes(s string, size int) []string {
	if size <= 0 {
		size = 1
	}
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}

	var parts []string
	for len(runes) > 0 {
		n := min(size, len(runes))
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}

func lastNRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
