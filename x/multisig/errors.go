package multisig

import "github.com/iov-one/quorum/errors"

// multisig reserves 1100 ~ 1119.
var (
	ErrSelfApproval         = errors.Register(1100, "proposer cannot approve")
	ErrAlreadyApproved      = errors.Register(1101, "already approved")
	ErrNotApproved          = errors.Register(1102, "not approved")
	ErrExecuted             = errors.Register(1103, "proposal executed")
	ErrCancelled            = errors.Register(1104, "proposal cancelled")
	ErrBelowThreshold       = errors.Register(1105, "not enough approvals")
	ErrOwnerExists          = errors.Register(1106, "owner exists")
	ErrOwnerNotFound        = errors.Register(1107, "owner not found")
	ErrTokenMismatch        = errors.Register(1108, "token reference mismatch")
	ErrInvalidKind          = errors.Register(1109, "invalid proposal kind")
	ErrInvalidThreshold     = errors.Register(1110, "invalid threshold")
	ErrLastOwner            = errors.Register(1111, "cannot remove last owner")
	ErrUnreachableThreshold = errors.Register(1112, "threshold would be unreachable")
)
