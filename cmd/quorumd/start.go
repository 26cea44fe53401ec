package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/iov-one/quorum/cmd/quorumd/node"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

func startCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd.Context())
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
				logger.Info(fmt.Sprintf(format, args...))
			})); err != nil {
				logger.Error("cannot set GOMAXPROCS", "err", err)
			}

			n, err := node.New(cfg, logger)
			if err != nil {
				return err
			}
			defer n.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger.Info("starting node", "version", version, "chain", cfg.ChainID, "store", cfg.Store)
			return n.Run(ctx)
		},
	}
}
