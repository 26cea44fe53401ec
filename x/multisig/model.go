package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

// Proposal is a request to apply a single action once enough owners
// approved it. Proposals are never deleted.
type Proposal struct {
	Proposer      quorum.Address `json:"proposer"`
	Action        Action         `json:"action"`
	ApprovalCount uint32         `json:"approval_count"`
	Executed      bool           `json:"executed"`
	// Cancelled is reserved. No message sets it.
	Cancelled bool  `json:"cancelled"`
	ExpiresAt int64 `json:"expires_at"`
	CreatedAt int64 `json:"created_at"`
}

var _ orm.Model = (*Proposal)(nil)

func (p *Proposal) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(p)
}

func (p *Proposal) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, p)
}

func (p *Proposal) Validate() error {
	if err := p.Proposer.Validate(); err != nil {
		return errors.Wrap(err, "proposer")
	}
	if p.Action == nil {
		return errors.Wrap(errors.ErrEmpty, "action")
	}
	if err := p.Action.Validate(); err != nil {
		return errors.Wrap(err, "action")
	}
	if p.ExpiresAt <= p.CreatedAt {
		return errors.Wrap(errors.ErrExpired, "expires before creation")
	}
	return nil
}

// AssertPending returns an error unless the proposal can still be approved,
// revoked or executed at given height. Expiry is not stored, it is derived
// from the height on every access.
func (p *Proposal) AssertPending(height int64) error {
	switch {
	case p.Executed:
		return ErrExecuted
	case p.Cancelled:
		return ErrCancelled
	case height >= p.ExpiresAt:
		return errors.Wrapf(errors.ErrExpired, "expired at %d, height %d", p.ExpiresAt, height)
	}
	return nil
}

// Config is the quorum configuration. It is a singleton maintained by the
// Registry together with the owner set.
type Config struct {
	Threshold    uint32         `json:"threshold"`
	OwnerCount   uint32         `json:"owner_count"`
	NativeTicker string         `json:"native_ticker"`
	Treasury     quorum.Address `json:"treasury"`
}

func (c *Config) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(c)
}

func (c *Config) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, c)
}

// Validate checks the relation between the threshold and the owner count.
func (c *Config) Validate() error {
	if c.OwnerCount == 0 {
		return errors.Wrap(errors.ErrState, "no owners")
	}
	if c.OwnerCount > MaxOwners {
		return errors.Wrapf(errors.ErrState, "more than %d owners", MaxOwners)
	}
	if err := checkThreshold(c.Threshold, c.OwnerCount); err != nil {
		return err
	}
	if err := c.Treasury.Validate(); err != nil {
		return errors.Wrap(err, "treasury")
	}
	return nil
}

func checkThreshold(threshold, owners uint32) error {
	if threshold == 0 {
		return errors.Wrap(ErrInvalidThreshold, "threshold must be positive")
	}
	if threshold > owners {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d above owner count %d", threshold, owners)
	}
	return nil
}

// Owner marks an address as a member of the owner set.
type Owner struct {
	Address quorum.Address `json:"address"`
}

var _ orm.Model = (*Owner)(nil)

func (o *Owner) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(o)
}

func (o *Owner) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, o)
}

func (o *Owner) Validate() error {
	return errors.Wrap(o.Address.Validate(), "address")
}

// Approval records the vote of an owner for a proposal.
type Approval struct {
	Owner  quorum.Address `json:"owner"`
	Height int64          `json:"height"`
}

var _ orm.Model = (*Approval)(nil)

func (a *Approval) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(a)
}

func (a *Approval) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, a)
}

func (a *Approval) Validate() error {
	return errors.Wrap(a.Owner.Validate(), "owner")
}
