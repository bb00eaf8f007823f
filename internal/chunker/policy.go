package chunker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/codechunk/pkg/types"
)

const (
	// MergeSeparator joins the texts of merged chunks
	MergeSeparator = "\n\n"

	mergedIDSeparator = "+"
	partIDSeparator   = "#"
)

// TextLength is the size measure shared by the merge and split passes:
// the number of Unicode code points in text.
func TextLength(text string) int {
	return utf8.RuneCountInString(text)
}

// MergeChunks walks chunks left to right and folds each chunk into the
// running one while the joined text stays within maxSize. The merged chunk
// keeps the earlier chunk's type and drops the name. Chunks from different
// files are never merged. Sequences of length <= 1 are returned unchanged.
func MergeChunks(chunks []types.Chunk, maxSize int) []types.Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	merged := make([]types.Chunk, 0, len(chunks))
	current := chunks[0]
	currentLen := TextLength(current.Text)
	sepLen := TextLength(MergeSeparator)

	for _, next := range chunks[1:] {
		nextLen := TextLength(next.Text)
		combinedLen := currentLen + sepLen + nextLen

		if next.File != current.File || combinedLen > maxSize {
			merged = append(merged, current)
			current = next
			currentLen = nextLen
			continue
		}

		current = types.Chunk{
			ID:   current.ID + mergedIDSeparator + next.ID,
			Text: current.Text + MergeSeparator + next.Text,
			Type: current.Type,
			File: current.File,
		}
		currentLen = combinedLen
	}

	return append(merged, current)
}

// SplitChunk breaks a chunk whose text exceeds maxSize into parts along
// line boundaries. Lines are accumulated greedily; a single line longer than
// maxSize becomes its own part. Parts are numbered from 1 and otherwise copy
// the original chunk. A chunk within the bound is returned as is.
func SplitChunk(chunk types.Chunk, maxSize int) []types.Chunk {
	if TextLength(chunk.Text) <= maxSize {
		return []types.Chunk{chunk}
	}

	var (
		parts     []types.Chunk
		part      strings.Builder
		partLen   int
		partLines int
	)

	flush := func() {
		text := part.String()
		part.Reset()
		partLen, partLines = 0, 0
		if strings.TrimSpace(text) == "" {
			return
		}
		p := chunk
		p.ID = chunk.ID + partIDSeparator + strconv.Itoa(len(parts)+1)
		p.Text = text
		parts = append(parts, p)
	}

	for _, line := range strings.Split(chunk.Text, "\n") {
		lineLen := TextLength(line)
		if partLines > 0 && partLen+1+lineLen > maxSize {
			flush()
		}
		if partLines > 0 {
			part.WriteByte('\n')
			partLen++
		}
		part.WriteString(line)
		partLen += lineLen
		partLines++
	}
	flush()

	if len(parts) == 0 {
		return []types.Chunk{chunk}
	}
	return parts
}

// SplitChunks applies SplitChunk to every chunk, preserving order
func SplitChunks(chunks []types.Chunk, maxSize int) []types.Chunk {
	out := make([]types.Chunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, SplitChunk(c, maxSize)...)
	}
	return out
}
