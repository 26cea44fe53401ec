package cash

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x"
)

// RegisterRoutes will instantiate and register
// all handlers in this package
func RegisterRoutes(r quorum.Registry, auth x.Authenticator, control Controller) {
	r.Handle(SendMsg{}.Path(), NewSendHandler(auth, control))
}

// RegisterQuery will register the wallet lookup as "/wallets". The query
// data is the wallet owner address.
func RegisterQuery(qr quorum.QueryRouter) {
	b := NewWalletBucket()
	qr.Register("/wallets", quorum.QueryHandlerFunc(func(db quorum.ReadOnlyKVStore, data []byte) (interface{}, error) {
		coins, err := b.Get(db, data)
		if err != nil {
			return nil, err
		}
		return &Wallet{Coins: coins}, nil
	}))
}

// SendHandler will handle sending coins
type SendHandler struct {
	auth    x.Authenticator
	control Controller
}

var _ quorum.Handler = SendHandler{}

// NewSendHandler creates a handler for SendMsg
func NewSendHandler(auth x.Authenticator, control Controller) SendHandler {
	return SendHandler{
		auth:    auth,
		control: control,
	}
}

// Check verifies the message is well formed and signed by the source.
func (h SendHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

// Deliver moves the tokens from source to receiver if
// all preconditions are met
func (h SendHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.MoveCoins(db, msg.Source, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	ev := quorum.NewEvent("coins_sent",
		"source", msg.Source,
		"destination", msg.Destination,
		"amount", msg.Amount)
	return &quorum.DeliverResult{Events: []quorum.Event{ev}}, nil
}

func (h SendHandler) validate(ctx quorum.Context, tx quorum.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "source signature missing")
	}
	return &msg, nil
}
