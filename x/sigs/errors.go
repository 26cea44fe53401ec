package sigs

import "github.com/iov-one/quorum/errors"

// x/sigs reserves 120 ~ 129.
var (
	ErrInvalidSequence  = errors.Register(120, "invalid sequence number")
	ErrInvalidSignature = errors.Register(121, "invalid signature")
)
