package token

import (
	"regexp"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

var isTokenName = regexp.MustCompile(`^[A-Za-z0-9 \-_:]{3,32}$`).MatchString

// RefFor returns the reference address of the token with given ticker.
func RefFor(ticker string) quorum.Address {
	return quorum.NewCondition("token", "ticker", []byte(ticker)).Address()
}

// TokenInfo describes a registered token.
type TokenInfo struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

var _ orm.Model = (*TokenInfo)(nil)

func (t *TokenInfo) Validate() error {
	if !coin.IsCC(t.Ticker) {
		return errors.Wrapf(errors.ErrCurrency, "ticker %q", t.Ticker)
	}
	if !isTokenName(t.Name) {
		return errors.Wrapf(errors.ErrInput, "token name %q", t.Name)
	}
	return nil
}

func (t *TokenInfo) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(t)
}

func (t *TokenInfo) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, t)
}

// Holding is the amount of a token held by an owner.
type Holding struct {
	Amount coin.Coin `json:"amount"`
}

var _ orm.Model = (*Holding)(nil)

func (h *Holding) Validate() error {
	if err := h.Amount.Validate(); err != nil {
		return err
	}
	if !h.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "holding must be positive")
	}
	return nil
}

func (h *Holding) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(h)
}

func (h *Holding) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, h)
}

// TokenBucket stores token information under the token reference.
type TokenBucket struct {
	orm.ModelBucket
}

func NewTokenBucket() TokenBucket {
	return TokenBucket{orm.NewModelBucket("token")}
}

// HoldingBucket stores holdings under the <token ref>:<owner> key.
type HoldingBucket struct {
	orm.ModelBucket
}

func NewHoldingBucket() HoldingBucket {
	return HoldingBucket{orm.NewModelBucket("holding")}
}

// HoldingKey returns the key of the owner holding of given token.
func HoldingKey(ref, owner quorum.Address) []byte {
	key := make([]byte, 0, len(ref)+1+len(owner))
	key = append(key, ref...)
	key = append(key, ':')
	return append(key, owner...)
}
