package multisig

import (
	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/x/cash"
)

// Executor applies the effect of a proposal. Every invariant is checked
// again against the current state, as other proposals may have changed it
// since this one was created.
type Executor struct {
	registry Registry
	cash     cash.Controller
}

// NewExecutor returns an executor moving native coins with given
// controller.
func NewExecutor(ctrl cash.Controller) Executor {
	return Executor{registry: NewRegistry(), cash: ctrl}
}

// Execute dispatches the action of proposal id. Token transfers are not
// handled here, see ExecuteTokenHandler.
func (e Executor) Execute(ctx quorum.Context, db quorum.KVStore, conf *Config, id []byte, action Action) ([]quorum.Event, error) {
	switch a := action.(type) {
	case *SendAction:
		if a.Amount.Ticker != conf.NativeTicker {
			return nil, errors.Wrapf(errors.ErrCurrency, "treasury holds %s, not %s", conf.NativeTicker, a.Amount.Ticker)
		}
		balance, err := e.cash.Balance(db, conf.Treasury)
		if err != nil {
			return nil, errors.Wrap(err, "treasury balance")
		}
		if !balance.Contains(a.Amount) {
			return nil, errors.Wrapf(errors.ErrInsufficientAmount, "treasury holds %s, need %s", balance.Get(a.Amount.Ticker), a.Amount)
		}
		if err := e.cash.MoveCoins(db, conf.Treasury, a.Recipient, a.Amount); err != nil {
			return nil, err
		}
		return []quorum.Event{quorum.NewEvent("transfer_executed",
			"proposal", idString(id),
			"recipient", a.Recipient,
			"amount", a.Amount,
			"memo", a.Memo)}, nil
	case *AddOwnerAction:
		if err := e.registry.Add(db, a.Owner); err != nil {
			return nil, err
		}
		return []quorum.Event{quorum.NewEvent("owner_added",
			"proposal", idString(id), "owner", a.Owner)}, nil
	case *RemoveOwnerAction:
		if err := e.registry.Remove(db, a.Owner); err != nil {
			return nil, err
		}
		return []quorum.Event{quorum.NewEvent("owner_removed",
			"proposal", idString(id), "owner", a.Owner)}, nil
	case *ChangeThresholdAction:
		if err := e.registry.SetThreshold(db, a.Threshold); err != nil {
			return nil, err
		}
		return []quorum.Event{quorum.NewEvent("threshold_changed",
			"proposal", idString(id), "threshold", a.Threshold)}, nil
	case *TokenSendAction:
		return nil, errors.Wrap(ErrInvalidKind, "token transfer requires execute_token")
	default:
		return nil, errors.Wrapf(errors.ErrHuman, "unknown action %T", action)
	}
}
