package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x/cash"
)

const optKey = "multisig"

// Genesis is the initial multisig state.
type Genesis struct {
	Owners       []quorum.Address `json:"owners"`
	Threshold    uint32           `json:"threshold"`
	NativeTicker string           `json:"native_ticker"`
	// Treasury is issued to the treasury address at genesis.
	Treasury []coin.Coin `json:"treasury,omitempty"`
}

// TreasuryAddress returns the address holding the shared funds on given
// chain. No key can sign for it.
func TreasuryAddress(chainID string) quorum.Address {
	return quorum.NewCondition("multisig", "treasury", []byte(chainID)).Address()
}

// Initializer sets up the owner registry from genesis. The registry can
// be initialized only once.
type Initializer struct {
	Cash cash.Controller
}

var _ quorum.Initializer = Initializer{}

func (i Initializer) FromGenesis(ctx quorum.Context, opts quorum.Options, kv quorum.KVStore) error {
	var gen Genesis
	if err := opts.ReadOptions(optKey, &gen); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if !coin.IsCC(gen.NativeTicker) {
		return errors.Wrapf(errors.ErrCurrency, "native ticker %q", gen.NativeTicker)
	}
	treasury := TreasuryAddress(quorum.GetChainID(ctx))
	if err := NewRegistry().Initialize(kv, gen.Owners, gen.Threshold, gen.NativeTicker, treasury); err != nil {
		return errors.Wrap(err, "multisig")
	}
	for _, c := range gen.Treasury {
		if c.Ticker != gen.NativeTicker {
			return errors.Wrapf(errors.ErrCurrency, "treasury funds in %s", c.Ticker)
		}
		if i.Cash == nil {
			return errors.Wrap(errors.ErrHuman, "no cash controller to fund the treasury")
		}
		if err := i.Cash.IssueCoins(kv, treasury, c); err != nil {
			return errors.Wrap(err, "treasury")
		}
	}
	quorum.GetLogger(ctx).Info("multisig initialized",
		"owners", len(gen.Owners), "threshold", gen.Threshold, "treasury", treasury)
	return nil
}
