package app

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/x/cash"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/iov-one/quorum/x/sigs"
	"github.com/iov-one/quorum/x/token"
)

// StackOptions configures the extensions of the standard stack.
type StackOptions struct {
	// TokenIssuer when set is the only address allowed to create tokens.
	TokenIssuer quorum.Address
	// Multisig collects the proposal lifecycle metrics, may be nil.
	Multisig *multisig.Metrics
	// Logging enables the logging decorator.
	Logging bool
}

// NewStack wires the cash, token, sigs and multisig extensions into a
// single handler, query router and genesis initializer.
func NewStack(opts StackOptions) Stack {
	ctrl := cash.NewController()
	auth := sigs.Authenticate{}

	r := NewRouter()
	cash.RegisterRoutes(r, auth, ctrl)
	token.RegisterRoutes(r, auth, opts.TokenIssuer)
	multisig.RegisterRoutes(r, auth, ctrl, TokenResolver(token.NewRegistry()), opts.Multisig)

	qr := quorum.NewQueryRouter()
	qr.RegisterAll(
		cash.RegisterQuery,
		token.RegisterQuery,
		sigs.RegisterQuery,
		func(qr quorum.QueryRouter) { multisig.RegisterQuery(qr, ctrl) },
	)

	var logging quorum.Decorator
	if opts.Logging {
		logging = NewLogging()
	}
	handler := ChainDecorators(
		logging,
		NewRecovery(),
		sigs.NewDecorator(),
	).WithHandler(r)

	return Stack{
		Decoder: DecodeTx,
		Handler: handler,
		Queries: qr,
		Initializer: quorum.ChainInitializers(
			cash.Initializer{},
			token.Initializer{},
			multisig.Initializer{Cash: ctrl},
		),
	}
}

// TokenResolver exposes the tokens of the registry as services that the
// multisig extension can transfer from.
func TokenResolver(reg token.Registry) multisig.TokenResolver {
	return multisig.TokenResolverFunc(func(db quorum.ReadOnlyKVStore, ref quorum.Address) (multisig.TokenService, error) {
		s, err := reg.Token(db, ref)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
