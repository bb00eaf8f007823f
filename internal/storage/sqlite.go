package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStore opens (or creates) the database at dbPath and migrates it.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces records in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, file, chunk_type, name, content, vector, dimension, provider, model, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file = excluded.file,
			chunk_type = excluded.chunk_type,
			name = excluded.name,
			content = excluded.content,
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, r := range records {
		blob, err := encodeVector(r.Vector)
		if err != nil {
			return fmt.Errorf("encode vector for %s: %w", r.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.File, r.Type, r.Name, r.Text, blob, len(r.Vector), r.Provider, r.Model, now); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Query returns up to topK matches ordered by cosine similarity. Only rows
// with the query vector's dimension are considered.
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, topK int, filter *Filter) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", ErrInvalidRecord)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []Match{}, nil
	}
	return searchVector(ctx, s.db, vector, topK, filter)
}

// DeleteFile removes a file's chunks and its recorded hash.
func (s *SQLiteStore) DeleteFile(ctx context.Context, file string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE file = ?", file); err != nil {
		return fmt.Errorf("delete chunks of %s: %w", file, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM files WHERE path = ?", file); err != nil {
		return fmt.Errorf("delete file %s: %w", file, err)
	}
	return tx.Commit()
}

// GetFileHash returns the hash recorded for file, or ErrNotFound.
func (s *SQLiteStore) GetFileHash(ctx context.Context, file string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, "SELECT content_hash FROM files WHERE path = ?", file).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get file hash: %w", err)
	}
	return hash, nil
}

// SetFileHash records hash as the indexed state of file.
func (s *SQLiteStore) SetFileHash(ctx context.Context, file, hash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO files (path, content_hash, indexed_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content_hash = excluded.content_hash, indexed_at = excluded.indexed_at
	`, file, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set file hash: %w", err)
	}
	return nil
}

// ListFiles returns every file with a recorded hash, sorted by path.
func (s *SQLiteStore) ListFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, rows.Err()
}

// GetChunk returns the stored record with the given id, or ErrNotFound.
func (s *SQLiteStore) GetChunk(ctx context.Context, id string) (*Record, error) {
	var r Record
	var name sql.NullString
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, file, chunk_type, name, content, vector, provider, model
		FROM chunks WHERE id = ?
	`, id).Scan(&r.ID, &r.File, &r.Type, &name, &r.Text, &blob, &r.Provider, &r.Model)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get chunk: %w", err)
	}
	r.Name = name.String
	r.Vector = deserializeVector(blob)
	return &r, nil
}

// Stats summarizes the index contents.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ChunksByType: make(map[string]int),
		Providers:    []string{},
		BuildMode:    BuildMode,
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&stats.Files); err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT chunk_type, COUNT(*) FROM chunks GROUP BY chunk_type")
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	for rows.Next() {
		var chunkType string
		var n int
		if err := rows.Scan(&chunkType, &n); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.ChunksByType[chunkType] = n
		stats.Chunks += n
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, "SELECT DISTINCT provider || '/' || model FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.Providers = append(stats.Providers, p)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(stats.Providers)

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(indexed_at) FROM files").Scan(&last); err == nil && last.Valid {
		stats.LastIndexedAt = parseTimestamp(last.String)
	}

	var pageCount, pageSize int
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return stats, nil
}

// Drivers disagree on how TIMESTAMP columns come back through MAX().
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
