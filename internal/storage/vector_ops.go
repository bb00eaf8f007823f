package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

const recordColumns = "id, file, chunk_type, name, content, provider, model"

// searchVector ranks stored chunks by cosine similarity to queryVector.
func searchVector(ctx context.Context, db *sql.DB, queryVector []float32, limit int, filter *Filter) ([]Match, error) {
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, queryVector, limit, filter)
	}
	return searchVectorFallback(ctx, db, queryVector, limit, filter)
}

// searchVectorOptimized lets sqlite-vec compute and sort similarities. The
// glob filter is applied while streaming, so LIMIT is only pushed into SQL
// when there is no glob.
func searchVectorOptimized(ctx context.Context, db *sql.DB, queryVector []float32, limit int, filter *Filter) ([]Match, error) {
	blob, err := encodeVector(queryVector)
	if err != nil {
		return nil, fmt.Errorf("encode query vector: %w", err)
	}

	// vec_distance_cosine returns a distance; similarity is 1 - distance.
	query := `SELECT ` + recordColumns + `, 1.0 - vec_distance_cosine(vector, ?) AS similarity
		FROM chunks WHERE dimension = ?`
	args := []interface{}{blob, len(queryVector)}
	query, args = applyTypeFilter(query, args, filter)

	if filter != nil && filter.MinScore > 0 {
		query += " AND (1.0 - vec_distance_cosine(vector, ?)) >= ?"
		args = append(args, blob, filter.MinScore)
	}
	query += " ORDER BY similarity DESC, id ASC"
	if filter == nil || filter.FilePattern == "" {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]Match, 0, limit)
	for rows.Next() && len(results) < limit {
		var m Match
		var name sql.NullString
		if err := rows.Scan(&m.ID, &m.File, &m.Type, &name, &m.Text, &m.Provider, &m.Model, &m.Score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		m.Name = name.String
		if !filter.matchFile(m.File) {
			continue
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// searchVectorFallback loads candidate vectors and scores them in Go.
func searchVectorFallback(ctx context.Context, db *sql.DB, queryVector []float32, limit int, filter *Filter) ([]Match, error) {
	query := `SELECT ` + recordColumns + `, vector FROM chunks WHERE dimension = ?`
	args := []interface{}{len(queryVector)}
	query, args = applyTypeFilter(query, args, filter)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := computeSimilarityScores(rows, queryVector, filter)
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// applyTypeFilter appends an IN clause for the filter's chunk types.
func applyTypeFilter(query string, args []interface{}, filter *Filter) (string, []interface{}) {
	if filter == nil || len(filter.Types) == 0 {
		return query, args
	}
	placeholders := make([]string, len(filter.Types))
	for i, t := range filter.Types {
		placeholders[i] = "?"
		args = append(args, t)
	}
	query += " AND chunk_type IN (" + strings.Join(placeholders, ",") + ")"
	return query, args
}

// computeSimilarityScores scores each row, dropping those below the filter.
func computeSimilarityScores(rows *sql.Rows, queryVector []float32, filter *Filter) ([]Match, error) {
	candidates := make([]Match, 0, 256)

	for rows.Next() {
		var m Match
		var name sql.NullString
		var blob []byte
		if err := rows.Scan(&m.ID, &m.File, &m.Type, &name, &m.Text, &m.Provider, &m.Model, &blob); err != nil {
			return nil, err
		}
		m.Name = name.String

		if !filter.matchFile(m.File) {
			continue
		}

		vector := deserializeVector(blob)
		if len(vector) != len(queryVector) {
			continue
		}

		m.Score = cosineSimilarity(queryVector, vector)
		if filter != nil && filter.MinScore > 0 && m.Score < filter.MinScore {
			continue
		}
		candidates = append(candidates, m)
	}

	return candidates, rows.Err()
}

// serializeVector converts a float32 slice to a little-endian byte blob, the
// same layout sqlite-vec uses.
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity returns 0 for mismatched or zero vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortCandidates orders by score descending, then id for stable output.
func sortCandidates(candidates []Match) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ID < candidates[j].ID
	})
}

// CosineSimilarity is the similarity used by the Go fallback path.
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
