package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
)

// TokenService is the capability of an external fungible token used to
// move tokens out of the treasury. Implementations may call back into
// this extension.
type TokenService interface {
	Transfer(ctx quorum.Context, db quorum.KVStore, amount coin.Coin, from, to quorum.Address, memo string) error
	Balance(ctx quorum.Context, db quorum.ReadOnlyKVStore, owner quorum.Address) (coin.Coin, error)
}

// TokenResolver finds the token service referenced by a proposal.
type TokenResolver interface {
	Token(db quorum.ReadOnlyKVStore, ref quorum.Address) (TokenService, error)
}

// TokenResolverFunc adapts a function to the TokenResolver interface.
type TokenResolverFunc func(db quorum.ReadOnlyKVStore, ref quorum.Address) (TokenService, error)

func (fn TokenResolverFunc) Token(db quorum.ReadOnlyKVStore, ref quorum.Address) (TokenService, error) {
	return fn(db, ref)
}
