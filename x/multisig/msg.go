package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
)

// proposalMsg is implemented by every message creating a proposal.
type proposalMsg interface {
	quorum.Msg
	action() Action
	expiry() int64
}

var (
	_ proposalMsg = (*CreateSendProposalMsg)(nil)
	_ proposalMsg = (*CreateTokenSendProposalMsg)(nil)
	_ proposalMsg = (*CreateAddOwnerProposalMsg)(nil)
	_ proposalMsg = (*CreateRemoveOwnerProposalMsg)(nil)
	_ proposalMsg = (*CreateChangeThresholdProposalMsg)(nil)
	_ quorum.Msg  = (*ApproveMsg)(nil)
	_ quorum.Msg  = (*RevokeMsg)(nil)
	_ quorum.Msg  = (*ExecuteMsg)(nil)
	_ quorum.Msg  = (*ExecuteTokenMsg)(nil)
)

func validateExpiry(expiresAt int64) error {
	if expiresAt <= 0 {
		return errors.Wrap(errors.ErrExpired, "expiry height must be positive")
	}
	return nil
}

func validateID(id []byte) error {
	if len(id) != 8 {
		return errors.Wrapf(errors.ErrInput, "proposal id must be 8 bytes, got %d", len(id))
	}
	return nil
}

// CreateSendProposalMsg proposes a native coin transfer from the treasury.
type CreateSendProposalMsg struct {
	Recipient quorum.Address `json:"recipient"`
	Amount    coin.Coin      `json:"amount"`
	Memo      string         `json:"memo,omitempty"`
	ExpiresAt int64          `json:"expires_at"`
}

func (CreateSendProposalMsg) Path() string {
	return "multisig/propose_send"
}

func (m *CreateSendProposalMsg) Validate() error {
	if err := validateExpiry(m.ExpiresAt); err != nil {
		return err
	}
	return m.action().Validate()
}

func (m *CreateSendProposalMsg) action() Action {
	return &SendAction{Recipient: m.Recipient, Amount: m.Amount, Memo: m.Memo}
}

func (m *CreateSendProposalMsg) expiry() int64 { return m.ExpiresAt }

func (m *CreateSendProposalMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateSendProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// CreateTokenSendProposalMsg proposes a transfer of tokens held by the
// treasury in the referenced token service.
type CreateTokenSendProposalMsg struct {
	Token     quorum.Address `json:"token"`
	Recipient quorum.Address `json:"recipient"`
	Amount    coin.Coin      `json:"amount"`
	Memo      string         `json:"memo,omitempty"`
	ExpiresAt int64          `json:"expires_at"`
}

func (CreateTokenSendProposalMsg) Path() string {
	return "multisig/propose_token_send"
}

func (m *CreateTokenSendProposalMsg) Validate() error {
	if err := validateExpiry(m.ExpiresAt); err != nil {
		return err
	}
	return m.action().Validate()
}

func (m *CreateTokenSendProposalMsg) action() Action {
	return &TokenSendAction{Token: m.Token, Recipient: m.Recipient, Amount: m.Amount, Memo: m.Memo}
}

func (m *CreateTokenSendProposalMsg) expiry() int64 { return m.ExpiresAt }

func (m *CreateTokenSendProposalMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateTokenSendProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// CreateAddOwnerProposalMsg proposes a new owner.
type CreateAddOwnerProposalMsg struct {
	Owner     quorum.Address `json:"owner"`
	ExpiresAt int64          `json:"expires_at"`
}

func (CreateAddOwnerProposalMsg) Path() string {
	return "multisig/propose_add_owner"
}

func (m *CreateAddOwnerProposalMsg) Validate() error {
	if err := validateExpiry(m.ExpiresAt); err != nil {
		return err
	}
	return m.action().Validate()
}

func (m *CreateAddOwnerProposalMsg) action() Action {
	return &AddOwnerAction{Owner: m.Owner}
}

func (m *CreateAddOwnerProposalMsg) expiry() int64 { return m.ExpiresAt }

func (m *CreateAddOwnerProposalMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateAddOwnerProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// CreateRemoveOwnerProposalMsg proposes to remove an owner.
type CreateRemoveOwnerProposalMsg struct {
	Owner     quorum.Address `json:"owner"`
	ExpiresAt int64          `json:"expires_at"`
}

func (CreateRemoveOwnerProposalMsg) Path() string {
	return "multisig/propose_remove_owner"
}

func (m *CreateRemoveOwnerProposalMsg) Validate() error {
	if err := validateExpiry(m.ExpiresAt); err != nil {
		return err
	}
	return m.action().Validate()
}

func (m *CreateRemoveOwnerProposalMsg) action() Action {
	return &RemoveOwnerAction{Owner: m.Owner}
}

func (m *CreateRemoveOwnerProposalMsg) expiry() int64 { return m.ExpiresAt }

func (m *CreateRemoveOwnerProposalMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateRemoveOwnerProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// CreateChangeThresholdProposalMsg proposes a new approval threshold.
type CreateChangeThresholdProposalMsg struct {
	Threshold uint32 `json:"threshold"`
	ExpiresAt int64  `json:"expires_at"`
}

func (CreateChangeThresholdProposalMsg) Path() string {
	return "multisig/propose_change_threshold"
}

func (m *CreateChangeThresholdProposalMsg) Validate() error {
	if err := validateExpiry(m.ExpiresAt); err != nil {
		return err
	}
	return m.action().Validate()
}

func (m *CreateChangeThresholdProposalMsg) action() Action {
	return &ChangeThresholdAction{Threshold: m.Threshold}
}

func (m *CreateChangeThresholdProposalMsg) expiry() int64 { return m.ExpiresAt }

func (m *CreateChangeThresholdProposalMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *CreateChangeThresholdProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ApproveMsg votes for a proposal.
type ApproveMsg struct {
	ID []byte `json:"id"`
}

func (ApproveMsg) Path() string {
	return "multisig/approve"
}

func (m *ApproveMsg) Validate() error {
	return validateID(m.ID)
}

func (m *ApproveMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ApproveMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// RevokeMsg withdraws a previously given approval.
type RevokeMsg struct {
	ID []byte `json:"id"`
}

func (RevokeMsg) Path() string {
	return "multisig/revoke"
}

func (m *RevokeMsg) Validate() error {
	return validateID(m.ID)
}

func (m *RevokeMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *RevokeMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ExecuteMsg applies a proposal that reached the threshold. Token transfer
// proposals are executed with ExecuteTokenMsg instead.
type ExecuteMsg struct {
	ID []byte `json:"id"`
}

func (ExecuteMsg) Path() string {
	return "multisig/execute"
}

func (m *ExecuteMsg) Validate() error {
	return validateID(m.ID)
}

func (m *ExecuteMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ExecuteMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}

// ExecuteTokenMsg applies a token transfer proposal. Token must be the
// reference recorded in the proposal.
type ExecuteTokenMsg struct {
	ID    []byte         `json:"id"`
	Token quorum.Address `json:"token"`
}

func (ExecuteTokenMsg) Path() string {
	return "multisig/execute_token"
}

func (m *ExecuteTokenMsg) Validate() error {
	if err := validateID(m.ID); err != nil {
		return err
	}
	return errors.Wrap(m.Token.Validate(), "token")
}

func (m *ExecuteTokenMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(m)
}

func (m *ExecuteTokenMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, m)
}
