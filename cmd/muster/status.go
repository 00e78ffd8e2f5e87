package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/musterhq/muster/pkg/client"
	"github.com/spf13/cobra"
)

// Status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show coordinator status from the status server",
	Long: `Query the status server and print health, membership, collector
state and recent runs. Works from any machine that can reach the server;
nothing is read from local state.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("server", "", "Status server address (overrides config)")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	addr, _ := cmd.Flags().GetString("server")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	c := client.NewClient(addr)

	health, err := c.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Coordinator: %s\n", health.Status)
	if health.Version != "" {
		fmt.Printf("  Version: %s\n", health.Version)
	}
	if health.Uptime != "" {
		fmt.Printf("  Uptime: %s\n", health.Uptime)
	}
	names := make([]string, 0, len(health.Components))
	for name := range health.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, health.Components[name])
	}

	slaves, err := c.ListSlaves(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nWorkers: %d\n", len(slaves))
	for _, s := range slaves {
		fmt.Printf("  %s\n", s)
	}

	collectors, err := c.ListCollectors(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("\nCollectors: %d\n", len(collectors))
	for _, h := range collectors {
		fmt.Printf("  %s (pid %d)\n", h.Role, h.PID)
	}

	runs, err := c.ListRuns(ctx)
	if err != nil {
		return err
	}
	fmt.Println("\nRecent runs:")
	if len(runs) == 0 {
		fmt.Println("  none recorded")
		return nil
	}
	if len(runs) > 5 {
		runs = runs[:5]
	}
	for _, r := range runs {
		fmt.Printf("  %s  %-9s  exit %d  (%s)\n", r.Token, r.Status, r.ExitCode, r.Mode)
	}
	return nil
}
