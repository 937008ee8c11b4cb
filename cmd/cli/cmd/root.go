package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/heaptrace/pkg/config"
	"github.com/heaptrace/pkg/telemetry"
	"github.com/heaptrace/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg               *config.Config
	logger            utils.Logger = &utils.NullLogger{}
	telemetryShutdown func(context.Context) error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "heaptrace",
	Short: "Parse Windows heap traces exported by xperf",
	Long: `heaptrace reads the text dump printed by "xperf -i" for a heap trace
session and pairs every heap action (create, destroy, alloc, free, realloc)
with the call stack captured when it fired.

Traces are read from a local path or from COS (cos://key). Parsed events are
exported as JSON or JSON lines together with a summary, and can be stored in
a SQLite, MySQL or PostgreSQL database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		level := utils.ParseLogLevel(cfg.Log.Level)
		if verbose {
			level = utils.LevelDebug
		}
		if cfg.Log.OutputPath != "" {
			fileLogger, err := utils.NewFileLogger(level, cfg.Log.OutputPath)
			if err != nil {
				return err
			}
			logger = fileLogger
		} else {
			logger = utils.NewDefaultLogger(level, cmd.OutOrStdout())
		}

		telemetry.Configure(cfg.TelemetrySettings(Version))
		telemetryShutdown, err = telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Telemetry disabled: %v", err)
		} else if telemetry.Enabled() {
			logger.Debug("Telemetry enabled, exporting to %s", telemetry.GetConfig().Endpoint)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown == nil {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(ctx); err != nil {
			logger.Warn("Failed to flush telemetry: %v", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: ./heaptrace.yaml)")

	binName := BinName()
	rootCmd.Example = `  # Parse a local dump
  ` + binName + ` parse -i ./notepad_heap.txt

  # Parse a gzipped dump stored in COS and keep the result in the database
  ` + binName + ` parse -i cos://traces/notepad_heap.txt.gz --store

  # List stored runs
  ` + binName + ` show`
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}
