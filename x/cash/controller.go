package cash

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
)

// Controller is the functionality needed by other extensions to move
// native coins.
type Controller interface {
	// Balance returns all coins held by given address.
	Balance(db quorum.ReadOnlyKVStore, addr quorum.Address) (coin.Coins, error)
	// MoveCoins moves the given amount from src to dest. If src doesn't
	// have sufficient coins, it fails.
	MoveCoins(db quorum.KVStore, src, dest quorum.Address, amount coin.Coin) error
	// IssueCoins creates new coins at the destination address.
	IssueCoins(db quorum.KVStore, dest quorum.Address, amount coin.Coin) error
}

// BaseController is the default Controller implementation backed by the
// wallet bucket.
type BaseController struct {
	bucket WalletBucket
}

var _ Controller = BaseController{}

// NewController returns a controller operating on the wallet bucket.
func NewController() BaseController {
	return BaseController{bucket: NewWalletBucket()}
}

func (c BaseController) Balance(db quorum.ReadOnlyKVStore, addr quorum.Address) (coin.Coins, error) {
	return c.bucket.Get(db, addr)
}

// MoveCoins moves the given amount from src to dest.
// If src doesn't exist, or doesn't have sufficient
// coins, it fails.
func (c BaseController) MoveCoins(db quorum.KVStore, src, dest quorum.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	sender, err := c.bucket.Get(db, src)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	if !sender.Contains(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds %s, need %s", src, sender.Get(amount.Ticker), amount)
	}
	sender, err = sender.Subtract(amount)
	if err != nil {
		return err
	}
	if err := c.bucket.Save(db, src, sender); err != nil {
		return errors.Wrap(err, "save sender")
	}

	// Recipient is loaded after the sender was saved, so that moving
	// coins to self is a no-op.
	recipient, err := c.bucket.Get(db, dest)
	if err != nil {
		return errors.Wrap(err, "recipient")
	}
	recipient, err = recipient.Add(amount)
	if err != nil {
		return err
	}
	return errors.Wrap(c.bucket.Save(db, dest, recipient), "save recipient")
}

// IssueCoins attempts to add the given amount of coins to
// the destination address. Fails if it overflows the wallet.
func (c BaseController) IssueCoins(db quorum.KVStore, dest quorum.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	recipient, err := c.bucket.Get(db, dest)
	if err != nil {
		return err
	}
	recipient, err = recipient.Add(amount)
	if err != nil {
		return err
	}
	return c.bucket.Save(db, dest, recipient)
}
