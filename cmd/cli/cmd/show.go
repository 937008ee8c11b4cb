package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/heaptrace/internal/summary"
	"github.com/heaptrace/pkg/compression"
	"github.com/heaptrace/pkg/writer"
)

var (
	// Show command flags
	listLimit  int
	showEvents bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "List stored runs or summarise one of them",
	Long: `Without arguments, list the most recent runs stored in the database.
With a run ID, load that run and print its summary; --events also prints
every event as a JSON line.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repos, err := openRepositories(cmd.Context())
		if err != nil {
			return err
		}
		defer repos.Close()

		if err := repos.Trace.DeleteTrace(cmd.Context(), args[0]); err != nil {
			return err
		}
		logger.Info("Deleted run %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)

	showCmd.Flags().IntVarP(&listLimit, "limit", "l", 20, "Number of runs to list")
	showCmd.Flags().BoolVar(&showEvents, "events", false, "Print the run's events as JSON lines")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	repos, err := openRepositories(ctx)
	if err != nil {
		return err
	}
	defer repos.Close()

	if len(args) == 0 {
		runs, err := repos.Trace.ListRuns(ctx, listLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-36s  %8s  %-19s  %s\n", "RUN", "EVENTS", "CREATED", "SOURCE")
		for _, r := range runs {
			fmt.Fprintf(out, "%-36s  %8d  %-19s  %s\n", r.RunID, r.EventCount, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source)
		}
		return nil
	}

	run, events, err := repos.Trace.GetTrace(ctx, args[0])
	if err != nil {
		return err
	}

	if showEvents {
		return writer.NewEventWriter(writer.FormatJSONL, compression.TypeNone).Write(events, cmd.OutOrStdout())
	}

	logger.Info("Run %s from %s, stored %s", run.RunID, run.Source, run.CreatedAt.Format("2006-01-02 15:04:05"))
	summary.Log(summary.NewCalculator(summary.WithTopN(cfg.Output.TopN)).Calculate(events), logger)
	return nil
}
