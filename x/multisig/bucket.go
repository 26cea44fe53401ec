package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
)

// ProposalBucket stores proposals under their 8 byte big endian nonce.
type ProposalBucket struct {
	orm.ModelBucket
	seq orm.Sequence
}

// NewProposalBucket returns a bucket that assigns strictly increasing ids
// starting at 1.
func NewProposalBucket() ProposalBucket {
	seq := orm.NewSequence("proposal", "id")
	return ProposalBucket{
		ModelBucket: orm.NewModelBucket("proposal", orm.WithIDSequence(seq)),
		seq:         seq,
	}
}

// Create stores a new proposal under the next nonce and returns its id.
// The nonce is only consumed when the proposal is valid.
func (b ProposalBucket) Create(db quorum.KVStore, p *Proposal) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid proposal")
	}
	return b.Put(db, nil, p)
}

// GetProposal returns the proposal with given id or ErrNotFound.
func (b ProposalBucket) GetProposal(db quorum.ReadOnlyKVStore, id []byte) (*Proposal, error) {
	var p Proposal
	if err := b.One(db, id, &p); err != nil {
		return nil, errors.Wrapf(err, "proposal %X", id)
	}
	return &p, nil
}

// Save updates an existing proposal.
func (b ProposalBucket) Save(db quorum.KVStore, id []byte, p *Proposal) error {
	_, err := b.Put(db, id, p)
	return err
}

// Nonce returns the id of the latest proposal, zero when none exists.
func (b ProposalBucket) Nonce(db quorum.ReadOnlyKVStore) (int64, error) {
	return b.seq.Latest(db)
}

// ApprovalBucket stores approvals under <proposal id>:<owner>. Presence of
// a record is the vote.
type ApprovalBucket struct {
	orm.ModelBucket
}

// NewApprovalBucket returns a bucket for the approval relation.
func NewApprovalBucket() ApprovalBucket {
	return ApprovalBucket{
		ModelBucket: orm.NewModelBucket("approval"),
	}
}

// ApprovalKey returns the key of the approval given by owner for proposal id.
func ApprovalKey(id []byte, owner quorum.Address) []byte {
	key := make([]byte, 0, len(id)+1+len(owner))
	key = append(key, id...)
	key = append(key, ':')
	return append(key, owner...)
}

// HasApproved returns true if owner holds an approval for proposal id.
func (b ApprovalBucket) HasApproved(db quorum.ReadOnlyKVStore, id []byte, owner quorum.Address) (bool, error) {
	return b.Has(db, ApprovalKey(id, owner))
}

// Approve records the vote of owner.
func (b ApprovalBucket) Approve(db quorum.KVStore, id []byte, owner quorum.Address, height int64) error {
	_, err := b.Put(db, ApprovalKey(id, owner), &Approval{Owner: owner, Height: height})
	return err
}

// Revoke deletes the vote of owner.
func (b ApprovalBucket) Revoke(db quorum.KVStore, id []byte, owner quorum.Address) error {
	return b.Delete(db, ApprovalKey(id, owner))
}

// Approvers returns the owners holding an approval for proposal id.
func (b ApprovalBucket) Approvers(db quorum.ReadOnlyKVStore, id []byte) ([]quorum.Address, error) {
	prefix := append(append([]byte(nil), id...), ':')
	keys, err := b.Keys(db, prefix)
	if err != nil {
		return nil, err
	}
	owners := make([]quorum.Address, len(keys))
	for i, k := range keys {
		owners[i] = quorum.Address(k[len(prefix):])
	}
	return owners, nil
}
