package multisig

import (
	"strconv"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/x"
	"github.com/iov-one/quorum/x/cash"
)

// RegisterRoutes registers all multisig handlers. tokens may be nil, in
// which case token transfer proposals are rejected. metrics may be nil.
func RegisterRoutes(r quorum.Registry, auth x.Authenticator, ctrl cash.Controller, tokens TokenResolver, metrics *Metrics) {
	base := handler{
		auth:      auth,
		registry:  NewRegistry(),
		proposals: NewProposalBucket(),
		approvals: NewApprovalBucket(),
		metrics:   metrics,
	}
	propose := &ProposeHandler{handler: base, tokens: tokens}
	r.Handle(CreateSendProposalMsg{}.Path(), propose)
	r.Handle(CreateTokenSendProposalMsg{}.Path(), propose)
	r.Handle(CreateAddOwnerProposalMsg{}.Path(), propose)
	r.Handle(CreateRemoveOwnerProposalMsg{}.Path(), propose)
	r.Handle(CreateChangeThresholdProposalMsg{}.Path(), propose)
	r.Handle(ApproveMsg{}.Path(), &ApproveHandler{handler: base})
	r.Handle(RevokeMsg{}.Path(), &RevokeHandler{handler: base})
	r.Handle(ExecuteMsg{}.Path(), &ExecuteHandler{handler: base, executor: NewExecutor(ctrl)})
	r.Handle(ExecuteTokenMsg{}.Path(), &ExecuteTokenHandler{handler: base, tokens: tokens})
}

// handler holds what all multisig handlers share.
type handler struct {
	auth      x.Authenticator
	registry  Registry
	proposals ProposalBucket
	approvals ApprovalBucket
	metrics   *Metrics
}

// owner returns the caller address if it belongs to the owner set.
func (h handler) owner(ctx quorum.Context, db quorum.ReadOnlyKVStore) (quorum.Address, error) {
	caller, err := x.Caller(ctx, h.auth)
	if err != nil {
		return nil, err
	}
	switch ok, err := h.registry.IsMember(db, caller); {
	case err != nil:
		return nil, err
	case !ok:
		return nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not an owner", caller)
	}
	return caller, nil
}

// pending loads a proposal that can still be voted on or executed by the
// calling owner.
func (h handler) pending(ctx quorum.Context, db quorum.ReadOnlyKVStore, id []byte) (quorum.Address, *Proposal, int64, error) {
	caller, err := h.owner(ctx, db)
	if err != nil {
		return nil, nil, 0, err
	}
	height, err := currentHeight(ctx)
	if err != nil {
		return nil, nil, 0, err
	}
	p, err := h.proposals.GetProposal(db, id)
	if err != nil {
		return nil, nil, 0, err
	}
	if err := p.AssertPending(height); err != nil {
		return nil, nil, 0, errors.Wrapf(err, "proposal %s", idString(id))
	}
	return caller, p, height, nil
}

// reached returns an error unless the proposal collected enough approvals
// for the current threshold.
func (h handler) reached(db quorum.ReadOnlyKVStore, p *Proposal) (*Config, error) {
	conf, err := h.registry.Config(db)
	if err != nil {
		return nil, err
	}
	if p.ApprovalCount < conf.Threshold {
		return nil, errors.Wrapf(ErrBelowThreshold, "%d of %d approvals", p.ApprovalCount, conf.Threshold)
	}
	return conf, nil
}

func currentHeight(ctx quorum.Context) (int64, error) {
	height, ok := quorum.GetHeight(ctx)
	if !ok {
		return 0, errors.Wrap(errors.ErrHuman, "block height not in context")
	}
	return height, nil
}

func idString(id []byte) string {
	return strconv.FormatInt(orm.DecodeSequence(id), 10)
}

// ProposeHandler creates proposals of every kind.
type ProposeHandler struct {
	handler
	tokens TokenResolver
}

var _ quorum.Handler = (*ProposeHandler)(nil)

func (h *ProposeHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h *ProposeHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (res *quorum.DeliverResult, err error) {
	defer func() { h.metrics.rejectedWith(quorum.GetPath(tx), err) }()

	p, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	id, err := h.proposals.Create(db, p)
	if err != nil {
		return nil, err
	}
	kind := p.Action.Kind()
	h.metrics.proposalCreated(kind)
	quorum.GetLogger(ctx).Info("proposal created",
		"proposal", idString(id), "kind", kind, "proposer", p.Proposer)
	ev := quorum.NewEvent("proposal_created",
		"proposal", idString(id),
		"kind", kind,
		"proposer", p.Proposer,
		"expires_at", p.ExpiresAt)
	return &quorum.DeliverResult{Data: id, Events: []quorum.Event{ev}}, nil
}

// validate builds the proposal and checks it against the current state.
// Nothing is written, so a failing proposal never consumes a nonce.
func (h *ProposeHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*Proposal, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot get transaction message")
	}
	pm, ok := msg.(proposalMsg)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "not a proposal: %T", msg)
	}
	if err := pm.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid message")
	}
	caller, err := h.owner(ctx, db)
	if err != nil {
		return nil, err
	}
	height, err := currentHeight(ctx)
	if err != nil {
		return nil, err
	}
	if pm.expiry() <= height {
		return nil, errors.Wrapf(errors.ErrExpired, "expiry %d not after height %d", pm.expiry(), height)
	}

	action := pm.action()
	switch a := action.(type) {
	case *SendAction:
		conf, err := h.registry.Config(db)
		if err != nil {
			return nil, err
		}
		if a.Amount.Ticker != conf.NativeTicker {
			return nil, errors.Wrapf(errors.ErrCurrency, "treasury holds %s, not %s", conf.NativeTicker, a.Amount.Ticker)
		}
	case *TokenSendAction:
		if h.tokens == nil {
			return nil, errors.Wrap(ErrInvalidKind, "token transfers not supported")
		}
		if _, err := h.tokens.Token(db, a.Token); err != nil {
			return nil, errors.Wrap(err, "token")
		}
	case *AddOwnerAction:
		if err := h.registry.CanAdd(db, a.Owner); err != nil {
			return nil, err
		}
	case *RemoveOwnerAction:
		if err := h.registry.CanRemove(db, a.Owner); err != nil {
			return nil, err
		}
	case *ChangeThresholdAction:
		if err := h.registry.CanSetThreshold(db, a.Threshold); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrInvalidKind, "%T", action)
	}

	return &Proposal{
		Proposer:  caller,
		Action:    action,
		ExpiresAt: pm.expiry(),
		CreatedAt: height,
	}, nil
}

// ApproveHandler records the vote of an owner other than the proposer.
type ApproveHandler struct {
	handler
}

var _ quorum.Handler = (*ApproveHandler)(nil)

func (h *ApproveHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h *ApproveHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (res *quorum.DeliverResult, err error) {
	defer func() { h.metrics.rejectedWith(quorum.GetPath(tx), err) }()

	msg, caller, p, height, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.approvals.Approve(db, msg.ID, caller, height); err != nil {
		return nil, err
	}
	p.ApprovalCount++
	if err := h.proposals.Save(db, msg.ID, p); err != nil {
		return nil, err
	}
	h.metrics.approved()
	quorum.GetLogger(ctx).Debug("proposal approved",
		"proposal", idString(msg.ID), "owner", caller, "approvals", p.ApprovalCount)
	ev := quorum.NewEvent("proposal_approved",
		"proposal", idString(msg.ID),
		"owner", caller,
		"approvals", p.ApprovalCount)
	return &quorum.DeliverResult{
		Data:   orm.EncodeSequence(int64(p.ApprovalCount)),
		Events: []quorum.Event{ev},
	}, nil
}

func (h *ApproveHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*ApproveMsg, quorum.Address, *Proposal, int64, error) {
	var msg ApproveMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, 0, errors.Wrap(err, "load msg")
	}
	caller, p, height, err := h.pending(ctx, db, msg.ID)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	if caller.Equals(p.Proposer) {
		return nil, nil, nil, 0, ErrSelfApproval
	}
	switch ok, err := h.approvals.HasApproved(db, msg.ID, caller); {
	case err != nil:
		return nil, nil, nil, 0, err
	case ok:
		return nil, nil, nil, 0, errors.Wrapf(ErrAlreadyApproved, "proposal %s", idString(msg.ID))
	}
	return &msg, caller, p, height, nil
}

// RevokeHandler withdraws an approval of a pending proposal.
type RevokeHandler struct {
	handler
}

var _ quorum.Handler = (*RevokeHandler)(nil)

func (h *RevokeHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h *RevokeHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (res *quorum.DeliverResult, err error) {
	defer func() { h.metrics.rejectedWith(quorum.GetPath(tx), err) }()

	msg, caller, p, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.approvals.Revoke(db, msg.ID, caller); err != nil {
		return nil, err
	}
	p.ApprovalCount--
	if err := h.proposals.Save(db, msg.ID, p); err != nil {
		return nil, err
	}
	h.metrics.revoked()
	quorum.GetLogger(ctx).Debug("approval revoked",
		"proposal", idString(msg.ID), "owner", caller, "approvals", p.ApprovalCount)
	ev := quorum.NewEvent("approval_revoked",
		"proposal", idString(msg.ID),
		"owner", caller,
		"approvals", p.ApprovalCount)
	return &quorum.DeliverResult{
		Data:   orm.EncodeSequence(int64(p.ApprovalCount)),
		Events: []quorum.Event{ev},
	}, nil
}

func (h *RevokeHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*RevokeMsg, quorum.Address, *Proposal, error) {
	var msg RevokeMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	caller, p, _, err := h.pending(ctx, db, msg.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	switch ok, err := h.approvals.HasApproved(db, msg.ID, caller); {
	case err != nil:
		return nil, nil, nil, err
	case !ok:
		return nil, nil, nil, errors.Wrapf(ErrNotApproved, "proposal %s", idString(msg.ID))
	}
	return &msg, caller, p, nil
}

// ExecuteHandler applies proposals other than token transfers.
type ExecuteHandler struct {
	handler
	executor Executor
}

var _ quorum.Handler = (*ExecuteHandler)(nil)

func (h *ExecuteHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h *ExecuteHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (res *quorum.DeliverResult, err error) {
	defer func() { h.metrics.rejectedWith(quorum.GetPath(tx), err) }()

	msg, p, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	// Executed is stored before any effect is applied.
	p.Executed = true
	if err := h.proposals.Save(db, msg.ID, p); err != nil {
		return nil, err
	}
	events, err := h.executor.Execute(ctx, db, conf, msg.ID, p.Action)
	if err != nil {
		return nil, errors.Wrapf(err, "execute proposal %s", idString(msg.ID))
	}
	kind := p.Action.Kind()
	h.metrics.executed(kind)
	quorum.GetLogger(ctx).Info("proposal executed", "proposal", idString(msg.ID), "kind", kind)
	return &quorum.DeliverResult{Data: msg.ID, Events: events}, nil
}

func (h *ExecuteHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*ExecuteMsg, *Proposal, *Config, error) {
	var msg ExecuteMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	_, p, _, err := h.pending(ctx, db, msg.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	if p.Action.Kind() == KindTokenSend {
		return nil, nil, nil, errors.Wrap(ErrInvalidKind, "token transfer requires execute_token")
	}
	conf, err := h.reached(db, p)
	if err != nil {
		return nil, nil, nil, err
	}
	return &msg, p, conf, nil
}

// ExecuteTokenHandler applies token transfer proposals. The proposal is
// stored as executed before the token service is called.
type ExecuteTokenHandler struct {
	handler
	tokens TokenResolver
}

var _ quorum.Handler = (*ExecuteTokenHandler)(nil)

func (h *ExecuteTokenHandler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	if _, _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &quorum.CheckResult{}, nil
}

func (h *ExecuteTokenHandler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (res *quorum.DeliverResult, err error) {
	defer func() { h.metrics.rejectedWith(quorum.GetPath(tx), err) }()

	msg, p, action, conf, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	svc, err := h.tokens.Token(db, action.Token)
	if err != nil {
		return nil, errors.Wrap(err, "token")
	}

	p.Executed = true
	if err := h.proposals.Save(db, msg.ID, p); err != nil {
		return nil, err
	}
	if err := svc.Transfer(ctx, db, action.Amount, conf.Treasury, action.Recipient, action.Memo); err != nil {
		return nil, errors.Wrapf(err, "token transfer of proposal %s", idString(msg.ID))
	}

	h.metrics.executed(KindTokenSend)
	quorum.GetLogger(ctx).Info("proposal executed", "proposal", idString(msg.ID), "kind", KindTokenSend)
	ev := quorum.NewEvent("transfer_executed",
		"proposal", idString(msg.ID),
		"token", action.Token,
		"recipient", action.Recipient,
		"amount", action.Amount,
		"memo", action.Memo)
	return &quorum.DeliverResult{Data: msg.ID, Events: []quorum.Event{ev}}, nil
}

func (h *ExecuteTokenHandler) validate(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*ExecuteTokenMsg, *Proposal, *TokenSendAction, *Config, error) {
	var msg ExecuteTokenMsg
	if err := quorum.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, nil, errors.Wrap(err, "load msg")
	}
	if h.tokens == nil {
		return nil, nil, nil, nil, errors.Wrap(ErrInvalidKind, "token transfers not supported")
	}
	_, p, _, err := h.pending(ctx, db, msg.ID)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	action, ok := p.Action.(*TokenSendAction)
	if !ok {
		return nil, nil, nil, nil, errors.Wrapf(ErrInvalidKind, "proposal %s is %s", idString(msg.ID), p.Action.Kind())
	}
	conf, err := h.reached(db, p)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if !action.Token.Equals(msg.Token) {
		return nil, nil, nil, nil, errors.Wrapf(ErrTokenMismatch, "proposal references %s", action.Token)
	}
	return &msg, p, action, conf, nil
}
