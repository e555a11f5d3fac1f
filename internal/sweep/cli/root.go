// Package cli implements the slidecast-sweep command. It runs the
// maintenance sweeps directly against the database and object store,
// outside the queue, for operators and cron jobs.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "slidecast-sweep",
	Short: "Run slidecast maintenance sweeps",
	Long: `slidecast-sweep runs maintenance sweeps against the slidecast database
and object store.

Commands:
  slidecast-sweep retro       # Submit thumbnails for slides that never got one
  slidecast-sweep retention   # Delete slide files past the retention window

Connection settings come from the same environment variables the API and
worker use (DATABASE_URL, MINIO_*, CONVERT_*). Sweep tuning can be
overridden per run with flags or a YAML file via --config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output the summary as JSON (for scripting)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML file with sweep overrides")

	rootCmd.AddCommand(retroCmd)
	rootCmd.AddCommand(retentionCmd)
}
