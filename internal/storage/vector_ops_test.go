package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeVector(t *testing.T) {
	vec := []float32{0, -1.5, 3.25, 1e-7}
	blob := serializeVector(vec)
	assert.Len(t, blob, 16)
	assert.Equal(t, vec, deserializeVector(blob))

	encoded, err := encodeVector(vec)
	assert.NoError(t, err)
	assert.Equal(t, blob, encoded)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 1}, []float32{5, 5}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestFilter_MatchFile(t *testing.T) {
	tests := []struct {
		pattern string
		file    string
		want    bool
	}{
		{"", "any/file.go", true},
		{"*.go", "main.go", true},
		{"*.go", "pkg/main.go", false},
		{"**/*.go", "pkg/sub/main.go", true},
		{"internal/**", "internal/a/b.go", true},
		{"internal/**", "cmd/main.go", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.file, func(t *testing.T) {
			f := &Filter{FilePattern: tt.pattern}
			assert.Equal(t, tt.want, f.matchFile(tt.file))
		})
	}

	var nilFilter *Filter
	assert.True(t, nilFilter.matchFile("x.go"))
	assert.NoError(t, nilFilter.Validate())
}

func TestSortCandidates(t *testing.T) {
	c := []Match{
		{Record: Record{ID: "b"}, Score: 0.5},
		{Record: Record{ID: "a"}, Score: 0.5},
		{Record: Record{ID: "c"}, Score: 0.9},
	}
	sortCandidates(c)
	assert.Equal(t, "c", c[0].ID)
	assert.Equal(t, "a", c[1].ID)
	assert.Equal(t, "b", c[2].ID)
}
