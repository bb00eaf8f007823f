// Package types provides shared type definitions for codechunk.
//
// This package defines the data contracts that flow between the analysis
// stage, the chunking core, and the embedding and storage collaborators.
//
// # Syntax Summaries
//
// SyntaxSummary is the per-file inventory produced by static analysis:
//
//	summary := types.SyntaxSummary{
//	    Functions: []types.FunctionInfo{{Name: "Greet", Params: []string{"name"}, IsExported: true}},
//	    Imports:   []types.ImportInfo{{Source: "fmt", Imports: []string{"fmt"}, IsDefault: true}},
//	    Classes:   []string{"User"},
//	}
//
// Categories are plain slices, so an absent category is simply empty.
//
// # Chunks
//
// Chunk is the unit handed to the embedding collaborator:
//
//	chunk := types.Chunk{
//	    ID:   "internal/user.go::Greet",
//	    Text: "Function: Greet\n...",
//	    Type: types.ChunkFunction,
//	    File: "internal/user.go",
//	    Name: "Greet",
//	}
//
// Ids embed the file path as a namespace prefix. Merged chunks join ids
// with "+", split parts append "#<n>".
//
// # Options
//
// ChunkOptions carries the sizing band. The maximum is a ceiling for both
// the merge and split passes; the minimum is advisory only:
//
//	opts := types.DefaultChunkOptions()
//	opts.MaxCharactersPerChunk = 500
//	if err := opts.Validate(); err != nil {
//	    return err
//	}
package types
