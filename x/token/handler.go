package token

import (
	"context"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x"
)

// RegisterQuery registers "/tokens" queried by the token reference and
// "/tokens/balance" queried by the HoldingKey of an owner.
func RegisterQuery(qr quorum.QueryRouter) {
	r := NewRegistry()
	qr.Register("/tokens", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, ref []byte) (interface{}, error) {
		s, err := r.Token(db, ref)
		if err != nil {
			return nil, err
		}
		info := s.Info()
		return &info, nil
	}))
	qr.Register("/tokens/balance", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, key []byte) (interface{}, error) {
		if len(key) != 2*quorum.AddressLength+1 {
			return nil, errors.Wrap(errors.ErrInput, "want <token>:<owner> key")
		}
		s, err := r.Token(db, key[:quorum.AddressLength])
		if err != nil {
			return nil, err
		}
		amount, err := s.Balance(context.Background(), db, key[quorum.AddressLength+1:])
		if err != nil {
			return nil, err
		}
		return &Holding{Amount: amount}, nil
	}))
}

// RegisterRoutes registers the token handlers. When issuer is not nil,
// only the issuer is allowed to create new tokens.
func RegisterRoutes(r quorum.Registry, auth x.Authenticator, issuer quorum.Address) {
	reg := NewRegistry()
	r.Handle(CreateTokenMsg{}.Path(), &CreateTokenHandler{auth: auth, issuer: issuer, registry: reg})
	r.Handle(TransferMsg{}.Path(), &TransferHandler{auth: auth, registry: reg})
}

// CreateTokenHandler registers new tokens.
type CreateTokenHandler struct {
	auth     x.Authenticator
	issuer   quorum.Address
	registry Registry
}

var _ quorum.Handler = (*CreateTokenHandler)(nil)

func (h *CreateTokenHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h *CreateTokenHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	s, err := h.registry.Create(db, TokenInfo{Ticker: msg.Ticker, Name: msg.Name})
	if err != nil {
		return nil, err
	}
	ev := quorum.NewEvent("token_created", "token", s.Ref(), "ticker", msg.Ticker)
	return &quorum.DeliverResult{Data: s.Ref(), Events: []quorum.Event{ev}}, nil
}

func (h *CreateTokenHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*CreateTokenMsg, error) {
	var msg CreateTokenMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if h.issuer != nil && !h.auth.HasAddress(ctx, h.issuer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "issuer signature missing")
	}
	// Token can be registered only once and must not be updated.
	if _, err := h.registry.Token(db, RefFor(msg.Ticker)); err == nil {
		return nil, errors.Wrapf(errors.ErrDuplicate, "token %s", msg.Ticker)
	} else if !errors.ErrNotFound.Is(err) {
		return nil, err
	}
	return &msg, nil
}

// TransferHandler moves tokens on behalf of their owner.
type TransferHandler struct {
	auth     x.Authenticator
	registry Registry
}

var _ quorum.Handler = (*TransferHandler)(nil)

func (h *TransferHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h *TransferHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	msg, s, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := s.Transfer(ctx, db, msg.Amount, msg.Source, msg.Destination, msg.Memo); err != nil {
		return nil, err
	}
	ev := quorum.NewEvent("tokens_sent",
		"token", msg.Token,
		"source", msg.Source,
		"destination", msg.Destination,
		"amount", msg.Amount)
	return &quorum.DeliverResult{Events: []quorum.Event{ev}}, nil
}

func (h *TransferHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*TransferMsg, *Service, error) {
	var msg TransferMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "source signature missing")
	}
	s, err := h.registry.Token(db, msg.Token)
	if err != nil {
		return nil, nil, err
	}
	return &msg, s, nil
}
