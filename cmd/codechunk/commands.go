package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/codechunk/internal/chunker"
	"github.com/dshills/codechunk/internal/indexer"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/internal/mcp"
	"github.com/dshills/codechunk/internal/parser"
	"github.com/dshills/codechunk/internal/searcher"
	"github.com/dshills/codechunk/internal/storage"
	"github.com/dshills/codechunk/pkg/types"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			a.Log.Info("starting MCP server",
				"version", version,
				"build_mode", storage.BuildMode,
				"driver", storage.DriverName,
				"vector_extension", storage.VectorExtensionAvailable,
			)
			return mcp.NewServer(a).Serve(cmd.Context())
		},
	}
}

// chunkFlags are the chunk command's overrides of the chunking config
type chunkFlags struct {
	format   string
	maxChars int
	minChars int
	combine  bool
	split    bool
}

// chunkReport is the serialized output of the chunk command
type chunkReport struct {
	RunID      string                  `json:"run_id" yaml:"run_id"`
	Files      int                     `json:"files" yaml:"files"`
	ChunkCount int                     `json:"chunk_count" yaml:"chunk_count"`
	ByType     map[types.ChunkType]int `json:"by_type" yaml:"by_type"`
	Undersized int                     `json:"undersized" yaml:"undersized"`
	Oversized  int                     `json:"oversized" yaml:"oversized"`
	Chunks     []types.Chunk           `json:"chunks" yaml:"chunks"`
}

func newChunkCmd(opts *rootOptions) *cobra.Command {
	flags := &chunkFlags{}

	cmd := &cobra.Command{
		Use:   "chunk <file|dir>",
		Short: "Print the chunks of a Go file or every Go file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			chunkOpts := cfg.Chunking
			if cmd.Flags().Changed("max-chars") {
				chunkOpts.MaxCharactersPerChunk = flags.maxChars
			}
			if cmd.Flags().Changed("min-chars") {
				chunkOpts.MinCharactersPerChunk = flags.minChars
			}
			if cmd.Flags().Changed("combine") {
				chunkOpts.Combine = flags.combine
			}
			if cmd.Flags().Changed("split") {
				chunkOpts.Split = flags.split
			}

			c, err := chunker.New(chunkOpts)
			if err != nil {
				return err
			}
			log := logger.New(cfg.LoggerConfig())

			analyses, err := analyzePath(args[0], &cfg.Indexing, log)
			if err != nil {
				return err
			}

			agg := chunker.NewAggregator(c, chunker.WithLogger(log), chunker.WithWorkers(cfg.Indexing.Workers))
			result, err := agg.Aggregate(cmd.Context(), analyses)
			if err != nil {
				return err
			}

			report := chunkReport{
				RunID:      result.Stats.RunID,
				Files:      result.Stats.Files,
				ChunkCount: result.Stats.Chunks,
				ByType:     result.Stats.ByType,
				Undersized: result.Stats.Undersized,
				Oversized:  result.Stats.Oversized,
				Chunks:     result.Chunks,
			}
			return writeReport(cmd.OutOrStdout(), flags.format, &report)
		},
	}

	defaults := types.DefaultChunkOptions()
	cmd.Flags().StringVar(&flags.format, "format", "json", "Output format: json or yaml")
	cmd.Flags().IntVar(&flags.maxChars, "max-chars", defaults.MaxCharactersPerChunk, "Chunk size ceiling in characters")
	cmd.Flags().IntVar(&flags.minChars, "min-chars", defaults.MinCharactersPerChunk, "Advisory lower bound in characters")
	cmd.Flags().BoolVar(&flags.combine, "combine", defaults.Combine, "Merge adjacent small chunks")
	cmd.Flags().BoolVar(&flags.split, "split", defaults.Split, "Split oversized chunks on line boundaries")

	return cmd
}

// analyzePath parses one file, or every file under a directory that the
// indexing config accepts. Chunk ids use paths relative to the directory.
func analyzePath(path string, cfg *indexer.Config, log logger.Logger) ([]types.FileAnalysis, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	p := parser.New()
	if !info.IsDir() {
		result, err := p.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return []types.FileAnalysis{result.Analysis(filepath.ToSlash(path))}, nil
	}

	files, err := indexer.DiscoverFiles(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	analyses := make([]types.FileAnalysis, 0, len(files))
	for _, rel := range files {
		result, err := p.ParseFile(filepath.Join(path, filepath.FromSlash(rel)))
		if err != nil {
			log.Warn("skipping unreadable file", "file", rel, "error", err)
			continue
		}
		if result.HasErrors() {
			log.Warn("syntax errors, chunking recovered declarations", "file", rel, "errors", len(result.Errors))
		}
		analyses = append(analyses, result.Analysis(rel))
	}
	return analyses, nil
}

func writeReport(w io.Writer, format string, report *chunkReport) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var includeTests, includeVendor bool

	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Chunk, embed and store every Go file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			cfg := a.Config.Indexing
			if cmd.Flags().Changed("include-tests") {
				cfg.IncludeTests = includeTests
			}
			if cmd.Flags().Changed("include-vendor") {
				cfg.IncludeVendor = includeVendor
			}

			stats, err := a.IndexRepository(cmd.Context(), root, &cfg)
			if err != nil {
				return err
			}
			printStatistics(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeTests, "include-tests", false, "Index *_test.go files")
	cmd.Flags().BoolVar(&includeVendor, "include-vendor", false, "Index the vendor/ directory")

	return cmd
}

func printStatistics(w io.Writer, stats *indexer.Statistics) {
	fmt.Fprintf(w, "Run:     %s\n", stats.RunID)
	if stats.Module != "" {
		fmt.Fprintf(w, "Module:  %s\n", stats.Module)
	}
	fmt.Fprintf(w, "Files:   %d indexed, %d skipped, %d failed, %d removed\n",
		stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed, stats.FilesRemoved)
	fmt.Fprintf(w, "Chunks:  %d (%d undersized)\n", stats.ChunksCreated, stats.Undersized)
	fmt.Fprintf(w, "Elapsed: %s\n", stats.Duration.Round(time.Millisecond))
	for _, msg := range stats.ErrorMessages {
		fmt.Fprintf(w, "  error: %s\n", msg)
	}
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		limit       int
		chunkTypes  []string
		filePattern string
		minScore    float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed chunks with a natural language query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			resp, err := a.Searcher.Search(cmd.Context(), searcher.Request{
				Query: strings.Join(args, " "),
				Limit: limit,
				Filter: &storage.Filter{
					Types:       chunkTypes,
					FilePattern: filePattern,
					MinScore:    minScore,
				},
			})
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), resp.Results)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", searcher.DefaultLimit, "Maximum number of results (1-100)")
	cmd.Flags().StringSliceVar(&chunkTypes, "type", nil, "Only return chunks of these types")
	cmd.Flags().StringVar(&filePattern, "file-pattern", "", "Glob pattern for file paths")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Minimum relevance score (0-1)")

	return cmd
}

func printResults(w io.Writer, results []types.SearchResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tTYPE\tCHUNK")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%.3f\t%s\t%s\n", r.Rank, r.RelevanceScore, r.Type, r.ChunkID)
	}
	_ = tw.Flush()
}
