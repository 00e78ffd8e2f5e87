package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/musterhq/muster/pkg/engine"
	"github.com/musterhq/muster/pkg/events"
	"github.com/musterhq/muster/pkg/orchestrator"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/musterhq/muster/pkg/remote"
	"github.com/musterhq/muster/pkg/types"
	"github.com/spf13/cobra"
)

// Run commands
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a topic-model job wrapped in telemetry",
}

var runLocalCmd = &cobra.Command{
	Use:   "local ENGINE_DIR TRAIN_DIR TARGET_DIR TOPICS ITERATIONS ALGORITHM",
	Short: "Run the job on this node only",
	Long: `Run the job on the coordinator alone, sized by an ad-hoc memory
budget derived from host RAM. Local collectors run for the duration of the
job; no worker is contacted.`,
	Args: cobra.ExactArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(types.RunModeLocal, args)
	},
}

var runClusterCmd = &cobra.Command{
	Use:   "cluster ENGINE_DIR TRAIN_DIR TARGET_DIR TOPICS ITERATIONS ALGORITHM",
	Short: "Run the job on the cluster",
	Long: `Submit the job to the coordinator's engine endpoint with telemetry
collected on the coordinator and on every registered worker, all correlated
by one run token. A worker whose collectors fail to start or stop is recorded
and skipped; it never aborts the run.`,
	Args: cobra.ExactArgs(6),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJob(types.RunModeCluster, args)
	},
}

func runJob(mode types.RunMode, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	topics, err := strconv.Atoi(args[3])
	if err != nil || topics <= 0 {
		return fmt.Errorf("topic count must be a positive integer, got %q", args[3])
	}
	iterations, err := strconv.Atoi(args[4])
	if err != nil || iterations <= 0 {
		return fmt.Errorf("iteration count must be a positive integer, got %q", args[4])
	}

	engineDir := args[0]
	install, err := engine.OpenInstall(engineDir)
	if err != nil {
		return err
	}

	job := engine.JobSpec{
		TrainDir:    args[1],
		TargetDir:   args[2],
		Topics:      topics,
		Iterations:  iterations,
		Algorithm:   args[5],
		ArtifactJar: cfg.Engine.ArtifactJar,
		MainClass:   cfg.Engine.MainClass,
	}

	jnl, err := openJournal()
	if err != nil {
		return err
	}
	defer jnl.Close()

	var (
		channel remote.Channel
		members orchestrator.MemberSource
	)
	if mode == types.RunModeCluster {
		ch, err := newChannel()
		if err != nil {
			return err
		}
		channel = ch
		members = newMemberSource()
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	fmt.Printf("Starting %s run...\n", mode)
	fmt.Printf("  Engine: %s\n", engineDir)
	fmt.Printf("  Train Data: %s\n", job.TrainDir)
	fmt.Printf("  Target Data: %s\n", job.TargetDir)
	fmt.Printf("  Topics: %d\n", job.Topics)
	fmt.Printf("  Iterations: %d\n", job.Iterations)
	fmt.Printf("  Algorithm: %s\n", job.Algorithm)
	fmt.Println()

	sub := broker.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub {
			if ev.Worker != "" {
				fmt.Printf("  [%s] %s\n", ev.Worker, ev.Message)
			} else {
				fmt.Printf("  %s\n", ev.Message)
			}
		}
	}()

	orch := orchestrator.New(
		newTelemetryController(),
		engine.NewSubmitter(install, proc.ExecRunner{}, engineConfig()),
		members,
		channel,
		jnl,
		broker,
		orchestrator.Config{
			DataRoot:            cfg.DataRoot,
			RemoteBinary:        cfg.Telemetry.RemoteBinary,
			Cooldown:            cfg.Telemetry.Cooldown.Std(),
			LocalDriverFraction: cfg.Memory.LocalDriverFraction,
			LocalResultFraction: cfg.Memory.LocalResultFraction,
		},
	)

	record, runErr := orch.Run(ctx, orchestrator.Request{Mode: mode, EngineDir: engineDir, Job: job})
	broker.Unsubscribe(sub)
	<-done

	if runErr != nil {
		return runErr
	}

	fmt.Println()
	fmt.Printf("✓ Run %s finished\n", record.Token)
	fmt.Printf("  Status: %s\n", record.Status)
	fmt.Printf("  Exit code: %d\n", record.ExitCode)
	fmt.Printf("  Job log: %s\n", record.LogPath)
	for _, w := range record.Workers {
		if w.StartError == "" && w.StopError == "" {
			fmt.Printf("  Worker %s: telemetry collected\n", w.Address)
			continue
		}
		if w.StartError != "" {
			fmt.Printf("  Worker %s: telemetry start failed: %s\n", w.Address, w.StartError)
		}
		if w.StopError != "" {
			fmt.Printf("  Worker %s: telemetry stop failed: %s\n", w.Address, w.StopError)
		}
	}

	// The job's own exit status becomes the process exit status so wrapping
	// scripts can branch on it.
	exitCode = record.ExitCode
	return nil
}

var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		jnl, err := openJournal()
		if err != nil {
			return err
		}
		defer jnl.Close()

		records, err := jnl.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		fmt.Printf("%-36s  %-15s  %-7s  %-9s  %-4s  %s\n",
			"ID", "TOKEN", "MODE", "STATUS", "EXIT", "STARTED")
		for _, r := range records {
			fmt.Printf("%-36s  %-15s  %-7s  %-9s  %-4d  %s\n",
				r.ID, r.Token, r.Mode, r.Status, r.ExitCode, r.StartedAt.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	runCmd.AddCommand(runLocalCmd)
	runCmd.AddCommand(runClusterCmd)
	runCmd.AddCommand(runListCmd)

	rootCmd.AddCommand(runCmd)
}
