package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/codechunk/internal/app"
	"github.com/dshills/codechunk/internal/config"
	"github.com/dshills/codechunk/internal/logger"
	"github.com/dshills/codechunk/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "codechunk",
		Short:         "Chunk, embed and search Go repositories",
		Long:          "codechunk turns Go source files into labeled, size-bounded chunks, stores their embeddings in SQLite and serves semantic search over MCP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newChunkCmd(opts),
		newIndexCmd(opts),
		newSearchCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads the config file and applies flag overrides
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = strings.ToLower(o.logLevel)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// openApp loads configuration and wires every component. Logs go to
// stderr; stdout is reserved for command output and the MCP protocol.
func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LoggerConfig())
	return app.New(ctx, cfg, log)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and storage build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "codechunk\n")
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
			fmt.Fprintf(out, "Vector Extension: %v\n", storage.VectorExtensionAvailable)
		},
	}
}
