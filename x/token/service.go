package token

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
)

// Service moves a single token between owners.
type Service struct {
	ref      quorum.Address
	info     TokenInfo
	holdings HoldingBucket
}

// Ref returns the reference address of the token.
func (s *Service) Ref() quorum.Address {
	return s.ref
}

// Info returns the token description.
func (s *Service) Info() TokenInfo {
	return s.info
}

// Balance returns the amount held by given owner. An owner without a
// holding has a zero balance.
func (s *Service) Balance(ctx quorum.Context, db quorum.ReadOnlyKVStore, owner quorum.Address) (coin.Coin, error) {
	if err := owner.Validate(); err != nil {
		return coin.Coin{}, errors.Wrap(err, "owner")
	}
	var h Holding
	switch err := s.holdings.One(db, HoldingKey(s.ref, owner), &h); {
	case err == nil:
		return h.Amount, nil
	case errors.ErrNotFound.Is(err):
		return coin.Coin{Ticker: s.info.Ticker}, nil
	default:
		return coin.Coin{}, err
	}
}

// Transfer moves amount from one owner to another. The amount currency
// must be the token ticker.
func (s *Service) Transfer(ctx quorum.Context, db quorum.KVStore, amount coin.Coin, from, to quorum.Address, memo string) error {
	if err := s.checkAmount(amount); err != nil {
		return err
	}
	have, err := s.Balance(ctx, db, from)
	if err != nil {
		return errors.Wrap(err, "sender")
	}
	if !have.IsGTE(amount) {
		return errors.Wrapf(errors.ErrInsufficientAmount, "%s holds %s, need %s", from, have, amount)
	}
	if err := to.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	if err := s.add(ctx, db, from, amount.Negative()); err != nil {
		return err
	}
	if err := s.add(ctx, db, to, amount); err != nil {
		return err
	}
	quorum.GetLogger(ctx).Debug("token transfer",
		"token", s.info.Ticker, "from", from, "to", to, "amount", amount, "memo", memo)
	return nil
}

// Mint creates new tokens for given owner.
func (s *Service) Mint(ctx quorum.Context, db quorum.KVStore, owner quorum.Address, amount coin.Coin) error {
	if err := s.checkAmount(amount); err != nil {
		return err
	}
	if err := owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	return s.add(ctx, db, owner, amount)
}

func (s *Service) checkAmount(amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	if amount.Ticker != s.info.Ticker {
		return errors.Wrapf(errors.ErrCurrency, "token %s cannot move %s", s.info.Ticker, amount.Ticker)
	}
	return nil
}

func (s *Service) add(ctx quorum.Context, db quorum.KVStore, owner quorum.Address, amount coin.Coin) error {
	have, err := s.Balance(ctx, db, owner)
	if err != nil {
		return err
	}
	total, err := have.Add(amount)
	if err != nil {
		return err
	}
	key := HoldingKey(s.ref, owner)
	if total.IsZero() {
		return s.holdings.Delete(db, key)
	}
	_, err = s.holdings.Put(db, key, &Holding{Amount: total})
	return err
}
