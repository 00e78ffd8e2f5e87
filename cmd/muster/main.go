package main

import (
	"fmt"
	"os"

	"github.com/musterhq/muster/pkg/config"
	"github.com/musterhq/muster/pkg/log"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// exitCode is the process exit status once Execute succeeds. Run commands
// set it to the job's exit status so callers can propagate it.
var exitCode int

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

var rootCmd = &cobra.Command{
	Use:   "muster",
	Short: "Muster - cluster membership and correlated metrics orchestrator",
	Long: `Muster assembles a small analytics cluster around one coordinator:
it tracks worker membership, keeps the NFS export table in sync with it,
drives the compute engine daemons, and wraps every job run in telemetry
collected on all nodes under a single run token.

Per-node output lands on a shared directory and is joined post-hoc by the
token embedded in each run directory's name.`,
	Version: Version,
}

// cfg is loaded by the root command before any subcommand runs.
var cfg *config.Config

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Muster version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("config", "",
		fmt.Sprintf("Path to the configuration file (default %s)", config.DefaultPath))
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit JSON logs instead of console output (overrides config)")
	rootCmd.PersistentPreRunE = initConfig
}

// initConfig loads the configuration file and initializes logging before any
// subcommand runs. CLI flags win over the file.
func initConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = cfg.Log.Level
	}
	jsonOut := cfg.Log.JSON
	if cmd.Flags().Changed("log-json") {
		jsonOut, _ = cmd.Flags().GetBool("log-json")
	}
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
	return nil
}
