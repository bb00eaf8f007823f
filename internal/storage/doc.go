// Package storage persists embedded chunks in SQLite and answers
// nearest-neighbour queries over them.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migrations, ordered by semantic version
//   - files: indexed file paths and the content hash seen at index time
//   - chunks: chunk id, file, type, name, text, and the embedding vector as a
//     little-endian float32 blob with its dimension, provider and model
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStore(ctx, ".codechunk/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	err = store.Upsert(ctx, []storage.Record{{
//	    ID: "main.go::main", File: "main.go", Type: "function",
//	    Text: "Function: main ...", Vector: vec, Provider: "local", Model: "m",
//	}})
//
//	matches, err := store.Query(ctx, queryVec, 10, &storage.Filter{
//	    Types:       []string{"function"},
//	    FilePattern: "internal/**",
//	})
//
// # Build Modes
//
// The default build uses modernc.org/sqlite and scores vectors in Go. Building
// with -tags sqlite_vec (CGO required) switches to mattn/go-sqlite3 with the
// sqlite-vec extension, which computes vec_distance_cosine inside SQLite.
// Both modes read the same files.
//
// Only rows whose dimension equals the query's are compared, so switching
// embedding providers never mixes vector spaces.
package storage
