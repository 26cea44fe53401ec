package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/x/cash"
)

// Querier provides read only access to the multisig state.
type Querier struct {
	registry  Registry
	proposals ProposalBucket
	approvals ApprovalBucket
	cash      cash.Controller
}

// NewQuerier returns a querier reading the treasury balance through ctrl.
func NewQuerier(ctrl cash.Controller) Querier {
	return Querier{
		registry:  NewRegistry(),
		proposals: NewProposalBucket(),
		approvals: NewApprovalBucket(),
		cash:      ctrl,
	}
}

// ProposalView is a proposal together with its id and derived state.
type ProposalView struct {
	ID   uint64 `json:"id"`
	Kind string `json:"kind"`
	*Proposal
	Approvers []quorum.Address `json:"approvers"`
}

// GetProposal returns the proposal with given id or ErrNotFound.
func (q Querier) GetProposal(db quorum.ReadOnlyKVStore, id []byte) (*ProposalView, error) {
	p, err := q.proposals.GetProposal(db, id)
	if err != nil {
		return nil, err
	}
	approvers, err := q.approvals.Approvers(db, id)
	if err != nil {
		return nil, err
	}
	return &ProposalView{
		ID:        uint64(orm.DecodeSequence(id)),
		Kind:      p.Action.Kind(),
		Proposal:  p,
		Approvers: approvers,
	}, nil
}

// HasApproved returns true if owner holds an approval for proposal id.
func (q Querier) HasApproved(db quorum.ReadOnlyKVStore, id []byte, owner quorum.Address) (bool, error) {
	return q.approvals.HasApproved(db, id, owner)
}

// IsOwner returns true if addr is a member of the owner set.
func (q Querier) IsOwner(db quorum.ReadOnlyKVStore, addr quorum.Address) (bool, error) {
	return q.registry.IsMember(db, addr)
}

// GetThreshold returns the number of approvals required to execute.
func (q Querier) GetThreshold(db quorum.ReadOnlyKVStore) (uint32, error) {
	c, err := q.registry.Config(db)
	if err != nil {
		return 0, err
	}
	return c.Threshold, nil
}

// GetOwnerCount returns the size of the owner set.
func (q Querier) GetOwnerCount(db quorum.ReadOnlyKVStore) (uint32, error) {
	return q.registry.Count(db)
}

// GetApprovalCount returns the approvals of proposal id. An unknown
// proposal has zero approvals.
func (q Querier) GetApprovalCount(db quorum.ReadOnlyKVStore, id []byte) (uint32, error) {
	p, err := q.proposals.GetProposal(db, id)
	switch {
	case errors.ErrNotFound.Is(err):
		return 0, nil
	case err != nil:
		return 0, err
	}
	return p.ApprovalCount, nil
}

// GetBalance returns the native coins held by the treasury.
func (q Querier) GetBalance(db quorum.ReadOnlyKVStore) (coin.Coin, error) {
	c, err := q.registry.Config(db)
	if err != nil {
		return coin.Coin{}, err
	}
	coins, err := q.cash.Balance(db, c.Treasury)
	if err != nil {
		return coin.Coin{}, err
	}
	return coins.Get(c.NativeTicker), nil
}

// GetNonce returns the id of the latest proposal, zero when none exists.
func (q Querier) GetNonce(db quorum.ReadOnlyKVStore) (int64, error) {
	return q.proposals.Nonce(db)
}

// ApprovalStatus is the result of the approval query.
type ApprovalStatus struct {
	Approved bool `json:"approved"`
}

// OwnerStatus is the result of the owner query.
type OwnerStatus struct {
	Owner bool `json:"owner"`
}

// Counter is returned by the queries resulting in a single number.
type Counter struct {
	Value int64 `json:"value"`
}

// RegisterQuery registers the multisig queries. Proposal ids are 8 byte
// big endian, approvals are queried by <id>:<owner>.
func RegisterQuery(qr quorum.QueryRouter, ctrl cash.Controller) {
	q := NewQuerier(ctrl)
	qr.Register("/multisig/proposal", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, id []byte) (interface{}, error) {
		if err := validateID(id); err != nil {
			return nil, err
		}
		return q.GetProposal(db, id)
	}))
	qr.Register("/multisig/approval", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, key []byte) (interface{}, error) {
		if len(key) != 8+1+quorum.AddressLength || key[8] != ':' {
			return nil, errors.Wrap(errors.ErrInput, "want <id>:<owner> key")
		}
		ok, err := q.HasApproved(db, key[:8], key[9:])
		if err != nil {
			return nil, err
		}
		return &ApprovalStatus{Approved: ok}, nil
	}))
	qr.Register("/multisig/approval_count", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, id []byte) (interface{}, error) {
		n, err := q.GetApprovalCount(db, id)
		if err != nil {
			return nil, err
		}
		return &Counter{Value: int64(n)}, nil
	}))
	qr.Register("/multisig/owner", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, addr []byte) (interface{}, error) {
		if err := quorum.Address(addr).Validate(); err != nil {
			return nil, err
		}
		ok, err := q.IsOwner(db, addr)
		if err != nil {
			return nil, err
		}
		return &OwnerStatus{Owner: ok}, nil
	}))
	qr.Register("/multisig/owners", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, _ []byte) (interface{}, error) {
		return q.registry.Owners(db)
	}))
	qr.Register("/multisig/config", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, _ []byte) (interface{}, error) {
		return q.registry.Config(db)
	}))
	qr.Register("/multisig/balance", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, _ []byte) (interface{}, error) {
		balance, err := q.GetBalance(db)
		if err != nil {
			return nil, err
		}
		return &balance, nil
	}))
	qr.Register("/multisig/nonce", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, _ []byte) (interface{}, error) {
		n, err := q.GetNonce(db)
		if err != nil {
			return nil, err
		}
		return &Counter{Value: n}, nil
	}))
}
