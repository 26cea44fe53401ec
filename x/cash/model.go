package cash

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

// BucketName is where we store the balances
const BucketName = "cash"

// Wallet holds the coins owned by a single address. It is stored under the
// owner address key.
type Wallet struct {
	Coins coin.Coins `json:"coins"`
}

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(w)
}

func (w *Wallet) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, w)
}

// Validate requires that all coins are in alphabetical order and that no
// zero coin is held.
func (w *Wallet) Validate() error {
	return coin.Coins(w.Coins).Validate()
}

// WalletBucket stores a wallet for every address that has ever held coins.
type WalletBucket struct {
	orm.ModelBucket
}

// NewWalletBucket returns a bucket for managing wallets.
func NewWalletBucket() WalletBucket {
	return WalletBucket{
		ModelBucket: orm.NewModelBucket(BucketName),
	}
}

// Get returns the coins held by given address. An address that never held
// any coins has an empty set.
func (b WalletBucket) Get(db quorum.ReadOnlyKVStore, addr quorum.Address) (coin.Coins, error) {
	if err := addr.Validate(); err != nil {
		return nil, errors.Wrap(err, "address")
	}
	var w Wallet
	switch err := b.One(db, addr, &w); {
	case err == nil:
		return w.Coins, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

// Save stores the coins of given address. An empty set removes the wallet.
func (b WalletBucket) Save(db quorum.KVStore, addr quorum.Address, coins coin.Coins) error {
	if coins.IsEmpty() {
		if ok, err := b.Has(db, addr); err != nil || !ok {
			return err
		}
		return b.Delete(db, addr)
	}
	_, err := b.Put(db, addr, &Wallet{Coins: coins})
	return err
}
