package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/musterhq/muster/pkg/engine"
	"github.com/musterhq/muster/pkg/proc"
	"github.com/spf13/cobra"
)

// Cluster commands
var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage the engine daemon pair on the coordinator",
}

var clusterStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the engine master and worker daemons",
	Long: `Start the compute engine daemon pair on this node: the master bound
to the configured interface, then a worker pointed at it once the master has
had time to bind.

Daemon memory sizing comes from the install's generated environment file;
run 'muster engine config-memory' first to regenerate it from host RAM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		install, err := engine.OpenInstall(cfg.Engine.Dir)
		if err != nil {
			return err
		}

		fmt.Println("Starting engine daemons...")
		fmt.Printf("  Install: %s\n", cfg.Engine.Dir)
		fmt.Printf("  Interface: %s\n", cfg.Engine.Interface)
		fmt.Printf("  Service Port: %d\n", cfg.Engine.ServicePort)
		fmt.Println()

		lifecycle := engine.NewLifecycle(install, proc.ExecRunner{}, engineConfig(), nil)
		if err := lifecycle.StartCluster(ctx); err != nil {
			return err
		}

		fmt.Println("✓ Engine daemons started")
		return nil
	},
}

var clusterStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the engine daemons, worker first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		install, err := engine.OpenInstall(cfg.Engine.Dir)
		if err != nil {
			return err
		}

		lifecycle := engine.NewLifecycle(install, proc.ExecRunner{}, engineConfig(), nil)
		if err := lifecycle.StopCluster(ctx); err != nil {
			return err
		}

		fmt.Println("✓ Engine daemons stopped")
		return nil
	},
}

func init() {
	clusterCmd.AddCommand(clusterStartCmd)
	clusterCmd.AddCommand(clusterStopCmd)

	rootCmd.AddCommand(clusterCmd)
}
