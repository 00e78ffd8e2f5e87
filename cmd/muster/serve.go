package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/musterhq/muster/pkg/api"
	"github.com/musterhq/muster/pkg/metrics"
	"github.com/spf13/cobra"
)

// Serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the read-only status server",
	Long: `Serve membership, run history, collector state, health and
prometheus metrics over HTTP. Every endpoint is a GET; mutation stays on
the CLI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		jnl, err := openJournal()
		if err != nil {
			return err
		}
		defer jnl.Close()

		members := newMemberSource()
		procMgr := newProcManager()

		metrics.SetVersion(Version)
		metrics.RegisterComponent("journal", true, "journal open")
		if _, err := members.List(); err != nil {
			metrics.RegisterComponent("membership", false, err.Error())
		} else {
			metrics.RegisterComponent("membership", true, "membership file readable")
		}

		refresher := metrics.NewRefresher(procMgr, members, cfg.Server.RefreshInterval.Std())
		refresher.Start()
		defer refresher.Stop()

		fmt.Printf("Status server listening on %s. Press Ctrl+C to stop.\n", addr)
		return api.NewServer(members, jnl, procMgr).Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
