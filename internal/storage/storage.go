package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidRecord is returned when a record cannot be stored
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidFilter is returned for malformed query filters.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Store persists embedded chunks and answers nearest-neighbour queries.
type Store interface {
	// Upsert inserts or replaces records by ID in a single transaction.
	Upsert(ctx context.Context, records []Record) error

	// Query returns up to topK records ranked by cosine similarity to vector.
	Query(ctx context.Context, vector []float32, topK int, filter *Filter) ([]Match, error)

	// DeleteFile removes every record and the content hash for file.
	DeleteFile(ctx context.Context, file string) error

	// GetFileHash returns the content hash recorded at the last index of file.
	GetFileHash(ctx context.Context, file string) (string, error)

	// SetFileHash records the content hash of an indexed file.
	SetFileHash(ctx context.Context, file, hash string) error

	// ListFiles returns all indexed file paths in sorted order.
	ListFiles(ctx context.Context) ([]string, error)

	// GetChunk returns a single record by chunk ID.
	GetChunk(ctx context.Context, id string) (*Record, error)

	// Stats summarizes the store contents.
	Stats(ctx context.Context) (*Stats, error)

	Close() error
}

// Record is one embedded chunk.
type Record struct {
	ID       string
	File     string
	Type     string
	Name     string
	Text     string
	Vector   []float32
	Provider string
	Model    string
}

// Validate checks the fields required to store r.
func (r *Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if r.File == "" {
		return fmt.Errorf("%w: %s has no file", ErrInvalidRecord, r.ID)
	}
	if len(r.Vector) == 0 {
		return fmt.Errorf("%w: %s has no vector", ErrInvalidRecord, r.ID)
	}
	return nil
}

// Match is a record with its similarity to the query vector.
type Match struct {
	Record
	Score float64
}

// Filter narrows a Query.
type Filter struct {
	Types       []string // Chunk types to keep; empty keeps all
	FilePattern string   // doublestar glob over file paths
	MinScore    float64  // Minimum cosine similarity
}

// Validate rejects malformed glob patterns.
func (f *Filter) Validate() error {
	if f == nil || f.FilePattern == "" {
		return nil
	}
	if !doublestar.ValidatePattern(f.FilePattern) {
		return fmt.Errorf("%w: file pattern %q", ErrInvalidFilter, f.FilePattern)
	}
	return nil
}

// matchFile reports whether file passes the filter's glob.
func (f *Filter) matchFile(file string) bool {
	if f == nil || f.FilePattern == "" {
		return true
	}
	ok, err := doublestar.Match(f.FilePattern, file)
	return err == nil && ok
}

// Stats summarizes the store.
type Stats struct {
	Files         int
	Chunks        int
	ChunksByType  map[string]int
	Providers     []string
	IndexSizeMB   float64
	LastIndexedAt time.Time
	BuildMode     string
}
