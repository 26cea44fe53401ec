package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/cmd/quorumd/config"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/crypto"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x/cash"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/spf13/cobra"
)

// KeysFile is written by init with the generated owner keys.
const KeysFile = "owner_keys.json"

// OwnerKey is a generated owner key as stored in the KeysFile.
type OwnerKey struct {
	Address    quorum.Address `json:"address"`
	PrivateKey string         `json:"private_key"`
}

type initOptions struct {
	owners    int
	threshold uint32
	ticker    string
	treasury  coin.Coin
	allowance coin.Coin
}

func initCommand() *cobra.Command {
	opts := initOptions{
		treasury:  coin.NewCoin(1000, 0, "IOV"),
		allowance: coin.NewCoin(10, 0, "IOV"),
	}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config, genesis and owner keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, configFrom(cmd.Context()), opts)
		},
	}
	cmd.Flags().IntVar(&opts.owners, "owners", 3, "number of owner keys to generate")
	cmd.Flags().Uint32Var(&opts.threshold, "threshold", 2, "approvals required to execute a proposal")
	cmd.Flags().StringVar(&opts.ticker, "ticker", "IOV", "ticker of the native currency")
	cmd.Flags().Var(&opts.treasury, "treasury", "native coins issued to the treasury")
	cmd.Flags().Var(&opts.allowance, "allowance", "native coins issued to every owner")
	return cmd
}

func runInit(cmd *cobra.Command, cfg *config.Config, opts initOptions) error {
	if opts.owners < 1 {
		return errors.Wrap(errors.ErrInput, "at least one owner is required")
	}
	if opts.threshold < 1 || int(opts.threshold) > opts.owners {
		return errors.Wrapf(errors.ErrInput, "threshold %d out of range for %d owners", opts.threshold, opts.owners)
	}
	if err := os.MkdirAll(cfg.Home, 0o755); err != nil {
		return err
	}
	cfgPath := filepath.Join(cfg.Home, config.FileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := cfg.Write(cfgPath); err != nil {
			return err
		}
	}

	keys := make([]OwnerKey, opts.owners)
	owners := make([]quorum.Address, opts.owners)
	accounts := make([]cash.GenesisAccount, opts.owners)
	for i := range keys {
		priv := crypto.GenPrivKeyEd25519()
		owners[i] = priv.PublicKey().Address()
		keys[i] = OwnerKey{Address: owners[i], PrivateKey: hex.EncodeToString(priv.Ed25519)}
		accounts[i] = cash.GenesisAccount{Address: owners[i], Coins: []coin.Coin{opts.allowance}}
	}

	ms, err := json.Marshal(multisig.Genesis{
		Owners:       owners,
		Threshold:    opts.threshold,
		NativeTicker: opts.ticker,
		Treasury:     []coin.Coin{opts.treasury},
	})
	if err != nil {
		return err
	}
	cs, err := json.Marshal(accounts)
	if err != nil {
		return err
	}
	gen := &app.Genesis{
		ChainID: cfg.ChainID,
		AppState: quorum.Options{
			"multisig": ms,
			"cash":     cs,
			"token":    []byte("[]"),
		},
	}
	if err := app.WriteGenesis(cfg.GenesisPath(), gen); err != nil {
		return err
	}

	rawKeys, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cfg.Home, KeysFile), rawKeys, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialized chain %s in %s with %d owners, threshold %d, treasury %s\n",
		cfg.ChainID, cfg.Home, opts.owners, opts.threshold, multisig.TreasuryAddress(cfg.ChainID))
	return nil
}
