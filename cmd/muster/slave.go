package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Slave commands
var slaveCmd = &cobra.Command{
	Use:   "slave",
	Short: "Manage worker membership",
}

var slaveAddCmd = &cobra.Command{
	Use:   "add ADDRESS",
	Short: "Register a worker node",
	Long: `Register a worker by hostname or IPv4 address.

The worker is probed over SSH and granted access to the shared data directory
before it is recorded in the membership file, so a member on the roll is
always trusted and exported. Re-adding an existing member repairs any drift
left by an earlier interrupted attempt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		channel, err := newChannel()
		if err != nil {
			return err
		}

		addr, err := newRegistry(channel).Add(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("✓ Worker registered: %s\n", addr)
		return nil
	},
}

var slaveRemoveCmd = &cobra.Command{
	Use:   "remove ADDRESS",
	Short: "Deregister a worker node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Removal revokes the export rule and edits the membership file;
		// the worker itself is never contacted, so no channel is needed.
		addr, err := newRegistry(nil).Remove(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("✓ Worker deregistered: %s\n", addr)
		return nil
	},
}

var slaveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		addrs, err := newMemberSource().List()
		if err != nil {
			return err
		}

		if len(addrs) == 0 {
			fmt.Println("No workers registered.")
			return nil
		}
		for _, addr := range addrs {
			fmt.Println(addr)
		}
		return nil
	},
}

func init() {
	slaveCmd.AddCommand(slaveAddCmd)
	slaveCmd.AddCommand(slaveRemoveCmd)
	slaveCmd.AddCommand(slaveListCmd)

	rootCmd.AddCommand(slaveCmd)
}
