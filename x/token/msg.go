package token

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
)

// MaxMemoSize is the longest memo accepted with a transfer.
const MaxMemoSize = 128

// CreateTokenMsg registers a new token. Only the issuer can create tokens.
type CreateTokenMsg struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

var _ quorum.Msg = (*CreateTokenMsg)(nil)

func (CreateTokenMsg) Path() string {
	return "token/create"
}

func (m *CreateTokenMsg) Validate() error {
	info := TokenInfo{Ticker: m.Ticker, Name: m.Name}
	return info.Validate()
}

func (m *CreateTokenMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateTokenMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// TransferMsg moves tokens from the source to the destination.
type TransferMsg struct {
	Token       quorum.Address `json:"token"`
	Source      quorum.Address `json:"source"`
	Destination quorum.Address `json:"destination"`
	Amount      coin.Coin      `json:"amount"`
	Memo        string         `json:"memo,omitempty"`
}

var _ quorum.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string {
	return "token/transfer"
}

func (m *TransferMsg) Validate() error {
	if err := m.Token.Validate(); err != nil {
		return errors.Wrap(err, "token")
	}
	if err := m.Source.Validate(); err != nil {
		return errors.Wrap(err, "source")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", m.Amount)
	}
	if len(m.Memo) > MaxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo longer than %d bytes", MaxMemoSize)
	}
	return nil
}

func (m *TransferMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *TransferMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}
