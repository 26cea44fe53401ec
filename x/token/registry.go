package token

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

// Registry resolves token references into services.
type Registry struct {
	tokens   TokenBucket
	holdings HoldingBucket
}

// NewRegistry returns a registry using the token buckets.
func NewRegistry() Registry {
	return Registry{
		tokens:   NewTokenBucket(),
		holdings: NewHoldingBucket(),
	}
}

// Token returns the service of the token registered under ref.
// ErrNotFound is returned for an unknown reference.
func (r Registry) Token(db quorum.ReadOnlyKVStore, ref quorum.Address) (*Service, error) {
	if err := ref.Validate(); err != nil {
		return nil, errors.Wrap(err, "token reference")
	}
	var info TokenInfo
	if err := r.tokens.One(db, ref, &info); err != nil {
		return nil, errors.Wrapf(err, "token %s", ref)
	}
	return &Service{ref: ref, info: info, holdings: r.holdings}, nil
}

// Create registers a new token. The reference is derived from the ticker
// and a token can be registered only once.
func (r Registry) Create(db quorum.KVStore, info TokenInfo) (*Service, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	ref := RefFor(info.Ticker)
	switch ok, err := r.tokens.Has(db, ref); {
	case err != nil:
		return nil, err
	case ok:
		return nil, errors.Wrapf(errors.ErrDuplicate, "token %s", info.Ticker)
	}
	if _, err := r.tokens.Put(db, ref, &info); err != nil {
		return nil, err
	}
	return &Service{ref: ref, info: info, holdings: r.holdings}, nil
}
