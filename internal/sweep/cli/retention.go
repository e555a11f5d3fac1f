package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slidecast/slidecast/internal/thumbnail"
)

var retentionCmd = &cobra.Command{
	Use:   "retention",
	Short: "Delete slide files past the retention window",
	Long: `Delete storage objects for slides whose retention window has elapsed and
soft-delete their records. Slides whose object deletion fails are left
untouched and retried on the next run.

Examples:
  slidecast-sweep retention
  slidecast-sweep retention --window=72h
  slidecast-sweep retention --json | jq .deleted_count`,
	RunE: runRetention,
}

var (
	retentionWindow time.Duration
	retentionBatch  int32
)

func init() {
	retentionCmd.Flags().DurationVar(&retentionWindow, "window", 0, "Retention window (0 = configured default)")
	retentionCmd.Flags().Int32Var(&retentionBatch, "batch", 0, "Max slides per run (0 = configured default)")
}

func runRetention(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := thumbnail.RetentionSweeperConfig{
		Store:   rt.queries,
		Storage: rt.store,
		Window:  rt.cfg.RetentionWindow,
	}
	if retentionWindow > 0 {
		cfg.Window = retentionWindow
	}
	if retentionBatch > 0 {
		cfg.BatchSize = retentionBatch
	}

	summary, err := thumbnail.NewRetentionSweeper(cfg).Run(ctx)
	if err != nil {
		return fmt.Errorf("retention sweep: %w", err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Printf("%s expired slides: %d\n", color.CyanString("→"), summary.ProcessedCount)
	fmt.Printf("%s deleted: %d\n", color.GreenString("✓"), summary.DeletedCount)
	if len(summary.Errors) > 0 {
		fmt.Printf("%s failed: %d\n", color.RedString("✗"), len(summary.Errors))
		for _, e := range summary.Errors {
			fmt.Printf("  %s slide %s (%s): %s\n", color.HiBlackString("└─"), e.SlideID, e.StorageKey, e.Error)
		}
	}
	return nil
}
