package cash

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
)

// MaxMemoSize is the longest memo accepted with a transfer.
const MaxMemoSize = 128

// SendMsg moves coins from the source to the destination wallet.
type SendMsg struct {
	Source      quorum.Address `json:"source"`
	Destination quorum.Address `json:"destination"`
	Amount      coin.Coin      `json:"amount"`
	Memo        string         `json:"memo,omitempty"`
}

var _ quorum.Msg = (*SendMsg)(nil)

// Path returns the routing path for this message
func (SendMsg) Path() string {
	return "cash/send"
}

// Validate makes sure that this is sensible
func (m *SendMsg) Validate() error {
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", m.Amount)
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if len(m.Memo) > MaxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo longer than %d bytes", MaxMemoSize)
	}
	return nil
}

func (m *SendMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *SendMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}
