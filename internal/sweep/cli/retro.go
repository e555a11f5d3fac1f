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

var retroCmd = &cobra.Command{
	Use:   "retro",
	Short: "Submit thumbnails for eligible slides that never got one",
	Long: `Scan recent uploads for slides without a thumbnail and submit them for
conversion, under per-tenant and global caps.

Examples:
  slidecast-sweep retro
  slidecast-sweep retro --global-cap=100 --pacing=1s
  slidecast-sweep retro --json | jq .processed`,
	RunE: runRetro,
}

var (
	retroPerTenantCap int
	retroGlobalCap    int
	retroLookback     time.Duration
	retroPacing       time.Duration
)

func init() {
	retroCmd.Flags().IntVar(&retroPerTenantCap, "per-tenant-cap", 0, "Max submissions per tenant per run (0 = configured default)")
	retroCmd.Flags().IntVar(&retroGlobalCap, "global-cap", 0, "Max submissions per run (0 = configured default)")
	retroCmd.Flags().DurationVar(&retroLookback, "lookback", 0, "Only consider uploads newer than this (0 = configured default)")
	retroCmd.Flags().DurationVar(&retroPacing, "pacing", -1, "Delay between submissions (negative = configured default)")
}

func runRetro(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := thumbnail.RetroSweeperConfig{
		Store:        rt.queries,
		Submitter:    rt.submitter,
		Ledger:       rt.ledger,
		PerTenantCap: rt.cfg.SweepPerTenantCap,
		GlobalCap:    rt.cfg.SweepGlobalCap,
		Lookback:     rt.cfg.SweepLookBack,
		Pacing:       rt.cfg.SweepPacing,
	}
	if retroPerTenantCap > 0 {
		cfg.PerTenantCap = retroPerTenantCap
	}
	if retroGlobalCap > 0 {
		cfg.GlobalCap = retroGlobalCap
	}
	if retroLookback > 0 {
		cfg.Lookback = retroLookback
	}
	if retroPacing >= 0 {
		cfg.Pacing = retroPacing
	}

	summary, err := thumbnail.NewRetroSweeper(cfg).Run(ctx)
	if err != nil {
		return fmt.Errorf("retroactive sweep: %w", err)
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Printf("%s eligible slides: %d\n", color.CyanString("→"), summary.Total)
	fmt.Printf("%s processed: %d\n", color.GreenString("✓"), summary.Processed)
	if summary.Skipped > 0 {
		fmt.Printf("%s skipped: %d\n", color.YellowString("!"), summary.Skipped)
	}
	if summary.QuotaExhausted > 0 {
		fmt.Printf("%s quota exhausted: %d\n", color.YellowString("!"), summary.QuotaExhausted)
	}
	if summary.Failed > 0 {
		fmt.Printf("%s failed: %d\n", color.RedString("✗"), summary.Failed)
		for _, e := range summary.Errors {
			fmt.Printf("  %s %s\n", color.HiBlackString("└─"), e)
		}
	}
	return nil
}
