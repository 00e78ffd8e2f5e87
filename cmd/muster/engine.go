package main

import (
	"fmt"

	"github.com/musterhq/muster/pkg/budget"
	"github.com/musterhq/muster/pkg/engine"
	"github.com/spf13/cobra"
)

// Engine commands
var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Manage the compute engine installation",
}

var engineConfigMemoryCmd = &cobra.Command{
	Use:   "config-memory ENGINE_DIR",
	Short: "Write the daemon memory budget into the install",
	Long: `Derive the cluster memory budget from this host's RAM and write it
into the install's environment file. The OS reserve and one reserve per
engine daemon are taken off the top; what remains is split evenly between
executor and driver.

The budget is recomputed from scratch on every call and persisted nowhere
else, so re-running after a RAM change is always safe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		install, err := engine.OpenInstall(args[0])
		if err != nil {
			return err
		}

		totalMB, err := budget.HostMemoryMB()
		if err != nil {
			return err
		}

		b, err := budget.ForCluster(budget.ClusterProfile{
			TotalMB:         totalMB,
			OSReserveMB:     cfg.Memory.OSReserveMB,
			DaemonReserveMB: cfg.Memory.DaemonReserveMB,
		})
		if err != nil {
			return err
		}

		if err := engine.ConfigureMemory(install, b); err != nil {
			return err
		}

		fmt.Printf("✓ Memory configuration written to %s\n", install.EnvFile())
		fmt.Printf("  Host RAM: %d MB\n", totalMB)
		fmt.Printf("  Daemon: %d MB\n", b.DaemonMB)
		fmt.Printf("  Executor: %d MB\n", b.ExecutorMB)
		fmt.Printf("  Driver: %d MB\n", b.DriverMB)
		return nil
	},
}

func init() {
	engineCmd.AddCommand(engineConfigMemoryCmd)

	rootCmd.AddCommand(engineCmd)
}
