package multisig

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/iov-one/quorum/store"
	"github.com/iov-one/quorum/x/cash"
	"github.com/stretchr/testify/require"
)

const testChainID = "test-chain"

type router map[string]quorum.Handler

func (r router) Handle(path string, h quorum.Handler) {
	r[path] = h
}

// fixture runs multisig handlers the way the application does: each
// delivery is applied to a cache wrap that is written only on success.
type fixture struct {
	t        testing.TB
	db       store.CacheableKVStore
	auth     *quorumtest.CtxAuth
	routes   router
	ctrl     cash.BaseController
	height   int64
	treasury quorum.Address
}

func newFixture(t testing.TB, tokens TokenResolver, threshold uint32, owners ...quorum.Condition) *fixture {
	t.Helper()

	addrs := make([]quorum.Address, len(owners))
	for i, o := range owners {
		addrs[i] = o.Address()
	}
	raw, err := json.Marshal(Genesis{
		Owners:       addrs,
		Threshold:    threshold,
		NativeTicker: "IOV",
		Treasury:     []coin.Coin{coin.NewCoin(100, 0, "IOV")},
	})
	require.NoError(t, err)

	db := store.MemStore()
	ctrl := cash.NewController()
	ctx := quorum.WithChainID(context.Background(), testChainID)
	require.NoError(t, Initializer{Cash: ctrl}.FromGenesis(ctx, quorum.Options{"multisig": raw}, db))

	auth := &quorumtest.CtxAuth{Key: "auth"}
	r := make(router)
	RegisterRoutes(r, auth, ctrl, tokens, nil)
	return &fixture{
		t:        t,
		db:       db,
		auth:     auth,
		routes:   r,
		ctrl:     ctrl,
		height:   10,
		treasury: TreasuryAddress(testChainID),
	}
}

func (f *fixture) ctx(signer quorum.Condition) quorum.Context {
	ctx := quorum.WithHeight(context.Background(), f.height)
	ctx = quorum.WithChainID(ctx, testChainID)
	if signer != nil {
		ctx = f.auth.SetConditions(ctx, signer)
	}
	return ctx
}

func (f *fixture) check(signer quorum.Condition, msg quorum.Msg) error {
	cache := f.db.CacheWrap()
	defer cache.Discard()
	_, err := f.routes[msg.Path()].Check(f.ctx(signer), cache, &quorumtest.Tx{Msg: msg})
	return err
}

func (f *fixture) deliver(signer quorum.Condition, msg quorum.Msg) (*quorum.DeliverResult, error) {
	cache := f.db.CacheWrap()
	res, err := f.routes[msg.Path()].Deliver(f.ctx(signer), cache, &quorumtest.Tx{Msg: msg})
	if err != nil {
		cache.Discard()
		return nil, err
	}
	require.NoError(f.t, cache.Write())
	return res, nil
}

// propose delivers a proposal that must succeed and returns its id.
func (f *fixture) propose(signer quorum.Condition, msg quorum.Msg) []byte {
	f.t.Helper()
	res, err := f.deliver(signer, msg)
	require.NoError(f.t, err)
	require.Len(f.t, res.Data, 8)
	return res.Data
}

func (f *fixture) approve(id []byte, signers ...quorum.Condition) {
	f.t.Helper()
	for _, s := range signers {
		_, err := f.deliver(s, &ApproveMsg{ID: id})
		require.NoError(f.t, err)
	}
}

func (f *fixture) proposal(id []byte) *Proposal {
	f.t.Helper()
	p, err := NewProposalBucket().GetProposal(f.db, id)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) config() *Config {
	f.t.Helper()
	c, err := NewRegistry().Config(f.db)
	require.NoError(f.t, err)
	return c
}

func (f *fixture) balance(addr quorum.Address) coin.Coin {
	f.t.Helper()
	coins, err := f.ctrl.Balance(f.db, addr)
	require.NoError(f.t, err)
	return coins.Get("IOV")
}
