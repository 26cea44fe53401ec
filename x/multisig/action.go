package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
)

// Action kinds.
const (
	KindSend            = "send"
	KindTokenSend       = "token_send"
	KindAddOwner        = "add_owner"
	KindRemoveOwner     = "remove_owner"
	KindChangeThreshold = "change_threshold"
)

const (
	// MaxMemoSize is the longest memo accepted with a transfer.
	MaxMemoSize = 128
	// MaxOwners is the largest owner set.
	MaxOwners = 100
)

// Action is the effect of a proposal. Each kind of action is a separate
// type carrying only the fields it needs.
type Action interface {
	// Kind returns the name of the action kind.
	Kind() string
	// Validate checks the action without access to the state.
	Validate() error
}

// SendAction transfers native coins from the treasury.
type SendAction struct {
	Recipient quorum.Address `json:"recipient"`
	Amount    coin.Coin      `json:"amount"`
	Memo      string         `json:"memo,omitempty"`
}

func (SendAction) Kind() string { return KindSend }

func (a *SendAction) Validate() error {
	if err := a.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	return validateTransfer(a.Amount, a.Memo)
}

// TokenSendAction transfers tokens of the referenced token service from
// the treasury.
type TokenSendAction struct {
	Token     quorum.Address `json:"token"`
	Recipient quorum.Address `json:"recipient"`
	Amount    coin.Coin      `json:"amount"`
	Memo      string         `json:"memo,omitempty"`
}

func (TokenSendAction) Kind() string { return KindTokenSend }

func (a *TokenSendAction) Validate() error {
	if err := a.Token.Validate(); err != nil {
		return errors.Wrap(err, "token")
	}
	if err := a.Recipient.Validate(); err != nil {
		return errors.Wrap(err, "recipient")
	}
	return validateTransfer(a.Amount, a.Memo)
}

func validateTransfer(amount coin.Coin, memo string) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount %s", amount)
	}
	if len(memo) > MaxMemoSize {
		return errors.Wrapf(errors.ErrInput, "memo longer than %d bytes", MaxMemoSize)
	}
	return nil
}

// AddOwnerAction adds an owner.
type AddOwnerAction struct {
	Owner quorum.Address `json:"owner"`
}

func (AddOwnerAction) Kind() string { return KindAddOwner }

func (a *AddOwnerAction) Validate() error {
	return errors.Wrap(a.Owner.Validate(), "owner")
}

// RemoveOwnerAction removes an owner.
type RemoveOwnerAction struct {
	Owner quorum.Address `json:"owner"`
}

func (RemoveOwnerAction) Kind() string { return KindRemoveOwner }

func (a *RemoveOwnerAction) Validate() error {
	return errors.Wrap(a.Owner.Validate(), "owner")
}

// ChangeThresholdAction sets the number of approvals needed to execute.
type ChangeThresholdAction struct {
	Threshold uint32 `json:"threshold"`
}

func (ChangeThresholdAction) Kind() string { return KindChangeThreshold }

func (a *ChangeThresholdAction) Validate() error {
	if a.Threshold == 0 {
		return errors.Wrap(ErrInvalidThreshold, "threshold must be positive")
	}
	if a.Threshold > MaxOwners {
		return errors.Wrapf(ErrInvalidThreshold, "threshold above %d", MaxOwners)
	}
	return nil
}
