// Package searcher answers natural-language queries over indexed chunks.
//
// A query is embedded with the same provider used at index time, then the
// store returns the nearest chunks by cosine similarity:
//
//	s := searcher.New(store, emb)
//	resp, err := s.Search(ctx, searcher.Request{
//	    Query:  "where is the config file parsed",
//	    Limit:  5,
//	    Filter: &storage.Filter{Types: []string{"function"}},
//	})
//	for _, r := range resp.Results {
//	    fmt.Printf("%d. %s (%.2f)\n", r.Rank, r.ChunkID, r.RelevanceScore)
//	}
//
// Ranks start at 1 and relevance is clamped into [0, 1]. Non-empty responses
// are cached in an expiring LRU keyed by query, limit and filter; call
// InvalidateCache after re-indexing.
package searcher
