// Command quorumd runs a single node chain guarding a shared treasury with
// M-of-N owner approvals.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/quorum/cmd/quorumd/config"
	"github.com/iov-one/quorum/errors"
	"github.com/spf13/cobra"
	"github.com/tendermint/tendermint/libs/log"
)

// version is set at build time.
var version = "dev"

type ctxKey string

const configContextKey ctxKey = "quorumd.config"

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configContextKey).(*config.Config)
	return cfg
}

func defaultHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".quorumd")
	}
	return ".quorumd"
}

// newLogger returns a logger writing to stdout filtered to given level.
func newLogger(level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(logger, opt).With("module", "quorumd"), nil
}

func rootCommand() *cobra.Command {
	var home, configFile string
	root := &cobra.Command{
		Use:           "quorumd",
		Short:         "M-of-N collective authorization node",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(home, configFile)
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&home, "home", defaultHome(), "directory to store files under")
	root.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (default <home>/"+config.FileName+")")

	root.AddCommand(initCommand())
	root.AddCommand(startCommand())
	root.AddCommand(versionCommand())
	return root
}

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
