package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/musterhq/muster/pkg/telemetry"
	"github.com/spf13/cobra"
)

// Metrics commands
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Control the node-local telemetry collectors",
}

var metricsStartCmd = &cobra.Command{
	Use:   "start RUN_DIR",
	Short: "Start the collector set into a fresh run directory",
	Long: `Start the CPU/RAM sampler and the disk-free sampler, writing into
RUN_DIR. The directory must not exist yet; every run's output is isolated by
the token in its directory name. The collectors run detached until
'muster metrics stop'.

The orchestrator issues this command over SSH on every registered worker at
the start of a cluster run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newTelemetryController().Start(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Collectors started in %s\n", args[0])
		return nil
	},
}

var metricsStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the collector set",
	Long: `Stop the collectors tracked on this node, disk sampler first. A
collector that is not running is skipped; a collector that cannot be killed
keeps its handle so the stop can be retried.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newTelemetryController().Stop(context.Background()); err != nil {
			return err
		}
		fmt.Println("✓ Collectors stopped")
		return nil
	},
}

var metricsCollectDFCmd = &cobra.Command{
	Use:   "collect-df FILE INTERVAL",
	Short: "Sample disk usage into a CSV until interrupted",
	Long: `Append one disk-usage row per interval to FILE, sampling the volume
the file lives on. This is the disk sampler's own entry point: 'metrics
start' re-invokes the muster binary with this command as a detached process.

INTERVAL is a duration like "5s"; a bare integer is taken as seconds.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, err := parseInterval(args[1])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return telemetry.CollectDiskFree(ctx, args[0], interval)
	},
}

// parseInterval accepts Go duration strings and, for operators used to the
// old shell tooling, bare integer seconds.
func parseInterval(raw string) (time.Duration, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("interval must be positive, got %q", raw)
		}
		return d, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("interval must be positive, got %q", raw)
		}
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid interval %q: use a duration like 5s or a number of seconds", raw)
}

func init() {
	metricsCmd.AddCommand(metricsStartCmd)
	metricsCmd.AddCommand(metricsStopCmd)
	metricsCmd.AddCommand(metricsCollectDFCmd)

	rootCmd.AddCommand(metricsCmd)
}
