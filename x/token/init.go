package token

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
)

const optKey = "token"

// GenesisToken describes a token created at genesis together with the
// initial holdings.
type GenesisToken struct {
	Ticker   string           `json:"ticker"`
	Name     string           `json:"name"`
	Holdings []GenesisHolding `json:"holdings"`
}

// GenesisHolding is an amount minted for an owner at genesis.
type GenesisHolding struct {
	Owner  quorum.Address `json:"owner"`
	Amount coin.Coin      `json:"amount"`
}

// Initializer creates tokens declared in the genesis file.
type Initializer struct{}

var _ quorum.Initializer = Initializer{}

func (Initializer) FromGenesis(ctx quorum.Context, opts quorum.Options, kv quorum.KVStore) error {
	var tokens []GenesisToken
	if err := opts.ReadOptions(optKey, &tokens); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	reg := NewRegistry()
	for _, t := range tokens {
		s, err := reg.Create(kv, TokenInfo{Ticker: t.Ticker, Name: t.Name})
		if err != nil {
			return errors.Wrapf(err, "token %q", t.Ticker)
		}
		for _, h := range t.Holdings {
			if err := s.Mint(ctx, kv, h.Owner, h.Amount); err != nil {
				return errors.Wrapf(err, "token %q holding", t.Ticker)
			}
		}
	}
	return nil
}
