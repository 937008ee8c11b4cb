package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/heaptrace/internal/repository"
	"github.com/heaptrace/internal/service"
	"github.com/heaptrace/internal/storage"
	"github.com/heaptrace/internal/summary"
)

var (
	// Parse command flags
	inputPath   string
	outputDir   string
	outputFmt   string
	compress    string
	gzipOutput  bool
	runID       string
	traceFormat string
	storeTrace  bool
	topN        int
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse an xperf heap trace dump",
	Long: `Parse the text printed by "xperf -i" for a heap trace.

The header must declare the HeapCreate, HeapDestroy, HeapAlloc, HeapFree,
HeapRealloc and Stack layouts before EndHeader. Every heap event is paired
with the next completed stack; the parse fails if the counts differ.

Outputs are written to <output>/<run-id>/:
  - events.json or events.jsonl, optionally .gz or .zst
  - summary.json`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	binName := BinName()
	parseCmd.Example = `  # Parse and write JSON lines, gzipped
  ` + binName + ` parse -i ./trace.txt --format jsonl --gzip

  # Parse with a fixed run ID and store the result
  ` + binName + ` parse -i ./trace.txt --run-id notepad-001 --store`

	parseCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Trace dump: local path or cos://key (required)")
	parseCmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from config: ./output)")
	parseCmd.Flags().StringVarP(&outputFmt, "format", "f", "", "Event export format: json or jsonl")
	parseCmd.Flags().StringVar(&compress, "compression", "", "Event export compression: none, gzip or zstd")
	parseCmd.Flags().BoolVar(&gzipOutput, "gzip", false, "Shorthand for --compression gzip")
	parseCmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (generated if empty)")
	parseCmd.Flags().StringVar(&traceFormat, "parser", service.DefaultFormat, "Input format")
	parseCmd.Flags().BoolVar(&storeTrace, "store", false, "Store the parsed trace in the database")
	parseCmd.Flags().IntVarP(&topN, "top", "n", 0, "Number of top allocating symbols in the summary")
	parseCmd.MarkFlagRequired("input")
	parseCmd.MarkFlagsMutuallyExclusive("gzip", "compression")
}

func applyParseFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Dir = outputDir
	}
	if flags.Changed("format") {
		cfg.Output.Format = outputFmt
	}
	if flags.Changed("compression") {
		cfg.Output.Compression = compress
	}
	if gzipOutput {
		cfg.Output.Compression = "gzip"
	}
	if flags.Changed("top") {
		cfg.Output.TopN = topN
	}
	return cfg.Validate()
}

func runParse(cmd *cobra.Command, args []string) error {
	if err := applyParseFlags(cmd); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := service.Options{Config: cfg, Logger: logger}

	if storage.StorageType(cfg.Storage.Type) == storage.StorageTypeCOS {
		remote, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			return err
		}
		opts.Remote = remote
	}

	store := storeTrace || cfg.Database.Enabled
	if store {
		repos, err := openRepositories(ctx)
		if err != nil {
			return err
		}
		defer repos.Close()
		opts.Repository = repos.Trace
	}

	svc, err := service.New(opts)
	if err != nil {
		return err
	}

	res, err := svc.Run(ctx, service.Request{
		Input:  inputPath,
		RunID:  runID,
		Format: traceFormat,
		Store:  store,
	})
	if err != nil {
		logger.Error("Parse failed: %v", err)
		return err
	}

	logger.Info("")
	summary.Log(res.Summary, logger)
	logger.Info("")
	logger.Info("=== Output Files ===")
	logger.Info("  Events:  %s (%.1f%% of %d bytes)", res.Output.Path, res.Output.CompressionPct, res.Output.JSONSize)
	logger.Info("  Summary: %s", res.SummaryPath)
	for _, url := range res.Uploaded {
		logger.Info("  Uploaded: %s", url)
	}
	if res.Stored {
		logger.Info("  Stored as run %s", res.RunID)
	}
	return nil
}

func openRepositories(ctx context.Context) (*repository.Repositories, error) {
	logger.Debug("Opening %s database", cfg.Database.Type)
	return repository.Open(ctx, repository.FromConfig(cfg.Database))
}
