package app

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/crypto"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/iov-one/quorum/store/iavl"
	"github.com/iov-one/quorum/x/cash"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/stretchr/testify/require"
)

const testChainID = "test-chain"

// node runs the standard stack and delivers every transaction in its own
// block.
type node struct {
	t     testing.TB
	app   *Application
	store *iavl.CommitStore
	seqs  map[string]int64
}

func testGenesis(t testing.TB, threshold uint32, owners ...*crypto.PrivateKey) *Genesis {
	t.Helper()
	addrs := make([]quorum.Address, len(owners))
	for i, k := range owners {
		addrs[i] = k.PublicKey().Address()
	}
	ms, err := json.Marshal(multisig.Genesis{
		Owners:       addrs,
		Threshold:    threshold,
		NativeTicker: "IOV",
		Treasury:     []coin.Coin{coin.NewCoin(100, 0, "IOV")},
	})
	require.NoError(t, err)
	accts, err := json.Marshal([]cash.GenesisAccount{
		{Address: addrs[0], Coins: []coin.Coin{coin.NewCoin(5, 0, "IOV")}},
	})
	require.NoError(t, err)
	return &Genesis{
		ChainID: testChainID,
		AppState: quorum.Options{
			"multisig": ms,
			"cash":     accts,
		},
	}
}

func newNode(t testing.TB, threshold uint32, owners ...*crypto.PrivateKey) *node {
	t.Helper()
	db := iavl.MockCommitStore()
	app, err := NewApplication(db, NewStack(StackOptions{}))
	require.NoError(t, err)
	require.NoError(t, app.InitChain(testGenesis(t, threshold, owners...)))
	_, err = app.Commit()
	require.NoError(t, err)
	return &node{t: t, app: app, store: db, seqs: make(map[string]int64)}
}

func (n *node) signed(signer *crypto.PrivateKey, msg quorum.Msg) []byte {
	n.t.Helper()
	tx := NewTx(msg)
	key := signer.PublicKey().Address().String()
	require.NoError(n.t, tx.Sign(signer, testChainID, n.seqs[key]))
	raw, err := tx.Marshal()
	require.NoError(n.t, err)
	return raw
}

func (n *node) deliver(signer *crypto.PrivateKey, msg quorum.Msg) (*quorum.DeliverResult, error) {
	n.t.Helper()
	raw := n.signed(signer, msg)
	require.NoError(n.t, n.app.BeginBlock(n.app.Height()+1))
	res, err := n.app.DeliverTx(raw)
	if err == nil {
		n.seqs[signer.PublicKey().Address().String()]++
	}
	_, cerr := n.app.Commit()
	require.NoError(n.t, cerr)
	return res, err
}

func (n *node) balance() coin.Coin {
	n.t.Helper()
	res, err := n.app.Query("/multisig/balance", nil)
	require.NoError(n.t, err)
	return *res.(*coin.Coin)
}

func TestApplicationLifecycle(t *testing.T) {
	alice, bert, carl := crypto.GenPrivKeyEd25519(), crypto.GenPrivKeyEd25519(), crypto.GenPrivKeyEd25519()
	n := newNode(t, 2, alice, bert, carl)
	require.Equal(t, int64(1), n.app.Height())
	require.Equal(t, testChainID, n.app.ChainID())
	require.Equal(t, coin.NewCoin(100, 0, "IOV"), n.balance())

	events, cancel := n.app.Subscribe(16)
	defer cancel()

	recipient := quorumtest.NewCondition().Address()
	res, err := n.deliver(alice, &multisig.CreateSendProposalMsg{
		Recipient: recipient,
		Amount:    coin.NewCoin(30, 0, "IOV"),
		ExpiresAt: 1000,
	})
	require.NoError(t, err)
	id := res.Data
	require.Equal(t, orm.EncodeSequence(1), id)

	ev := <-events
	require.Equal(t, "proposal_created", ev.Type)
	require.Equal(t, int64(2), ev.Height)
	require.Equal(t, "multisig/propose_send", ev.Path)

	// The proposer cannot approve and one approval is below the threshold.
	_, err = n.deliver(alice, &multisig.ApproveMsg{ID: id})
	require.True(t, multisig.ErrSelfApproval.Is(err), "got %+v", err)
	_, err = n.deliver(bert, &multisig.ExecuteMsg{ID: id})
	require.True(t, multisig.ErrBelowThreshold.Is(err), "got %+v", err)

	_, err = n.deliver(bert, &multisig.ApproveMsg{ID: id})
	require.NoError(t, err)
	_, err = n.deliver(carl, &multisig.ApproveMsg{ID: id})
	require.NoError(t, err)
	_, err = n.deliver(carl, &multisig.ExecuteMsg{ID: id})
	require.NoError(t, err)
	_, err = n.deliver(alice, &multisig.ExecuteMsg{ID: id})
	require.True(t, multisig.ErrExecuted.Is(err), "got %+v", err)

	require.Equal(t, coin.NewCoin(70, 0, "IOV"), n.balance())
	wallet, err := n.app.Query("/wallets", recipient)
	require.NoError(t, err)
	require.Equal(t, coin.NewCoin(30, 0, "IOV"), wallet.(*cash.Wallet).Coins.Get("IOV"))

	// Only events of successful transactions are logged.
	records, err := n.app.Events(0, 0)
	require.NoError(t, err)
	var types []string
	for _, r := range records {
		types = append(types, r.Type)
	}
	require.Equal(t, []string{
		"proposal_created",
		"proposal_approved",
		"proposal_approved",
		"transfer_executed",
	}, types)
	for i, r := range records {
		require.Equal(t, int64(i+1), r.Seq)
	}

	page, err := n.app.Events(2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, int64(3), page[0].Seq)
}

func TestApplicationPublishesOnCommit(t *testing.T) {
	alice, bert := crypto.GenPrivKeyEd25519(), crypto.GenPrivKeyEd25519()
	n := newNode(t, 1, alice, bert)

	events, cancel := n.app.Subscribe(16)
	defer cancel()

	raw := n.signed(alice, &multisig.CreateSendProposalMsg{
		Recipient: quorumtest.NewCondition().Address(),
		Amount:    coin.NewCoin(1, 0, "IOV"),
		ExpiresAt: 1000,
	})
	require.NoError(t, n.app.BeginBlock(2))
	_, err := n.app.DeliverTx(raw)
	require.NoError(t, err)

	select {
	case ev := <-events:
		t.Fatalf("record %d published before commit", ev.Seq)
	default:
	}
	// Not committed yet, so the log does not hold it either.
	records, err := n.app.Events(0, 0)
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = n.app.Commit()
	require.NoError(t, err)

	select {
	case ev := <-events:
		require.Equal(t, int64(1), ev.Seq)
		require.Equal(t, int64(2), ev.Height)
		require.Equal(t, "proposal_created", ev.Type)
	default:
		t.Fatal("no record published on commit")
	}
	records, err = n.app.Events(0, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Publishing happens once per block.
	_, err = n.deliver(bert, &multisig.ApproveMsg{ID: orm.EncodeSequence(1)})
	require.NoError(t, err)
	ev := <-events
	require.Equal(t, int64(2), ev.Seq)
	select {
	case ev := <-events:
		t.Fatalf("unexpected record %d", ev.Seq)
	default:
	}
}

func TestApplicationRejectsBadSignature(t *testing.T) {
	alice, bert := crypto.GenPrivKeyEd25519(), crypto.GenPrivKeyEd25519()
	n := newNode(t, 1, alice, bert)

	msg := &multisig.CreateChangeThresholdProposalMsg{Threshold: 2, ExpiresAt: 1000}
	n.seqs[alice.PublicKey().Address().String()] = 7
	_, err := n.deliver(alice, msg)
	require.Error(t, err)

	// Nothing was created, the nonce did not move.
	n.seqs[alice.PublicKey().Address().String()] = 0
	res, err := n.deliver(alice, msg)
	require.NoError(t, err)
	require.Equal(t, orm.EncodeSequence(1), res.Data)

	// An unsigned transaction has no caller.
	require.NoError(t, n.app.BeginBlock(n.app.Height()+1))
	raw, err := NewTx(msg).Marshal()
	require.NoError(t, err)
	_, err = n.app.DeliverTx(raw)
	require.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)
	_, err = n.app.Commit()
	require.NoError(t, err)
}

func TestApplicationCheckTx(t *testing.T) {
	alice, bert := crypto.GenPrivKeyEd25519(), crypto.GenPrivKeyEd25519()
	n := newNode(t, 1, alice, bert)

	msg := &multisig.CreateAddOwnerProposalMsg{Owner: quorumtest.NewCondition().Address(), ExpiresAt: 1000}
	_, err := n.app.CheckTx(n.signed(alice, msg))
	require.NoError(t, err)

	// The check state keeps the incremented sequence until commit.
	_, err = n.app.CheckTx(n.signed(alice, msg))
	require.Error(t, err)

	_, err = n.app.CheckTx([]byte("not a transaction"))
	require.Error(t, err)

	// Checks never change the committed state.
	nonce, err := n.app.Query("/multisig/nonce", nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), nonce.(*multisig.Counter).Value)
}

func TestApplicationBlocks(t *testing.T) {
	alice := crypto.GenPrivKeyEd25519()
	n := newNode(t, 1, alice)

	_, err := n.app.DeliverTx(n.signed(alice, &multisig.ApproveMsg{ID: orm.EncodeSequence(1)}))
	require.True(t, errors.ErrState.Is(err), "got %+v", err)

	require.True(t, errors.ErrState.Is(n.app.BeginBlock(5)))
	require.NoError(t, n.app.BeginBlock(2))
	require.True(t, errors.ErrState.Is(n.app.BeginBlock(3)))
	id, err := n.app.Commit()
	require.NoError(t, err)
	require.Equal(t, int64(2), id.Version)

	err = n.app.InitChain(testGenesis(t, 1, alice))
	require.True(t, errors.ErrState.Is(err), "got %+v", err)
}

func TestApplicationRestart(t *testing.T) {
	alice, bert := crypto.GenPrivKeyEd25519(), crypto.GenPrivKeyEd25519()
	n := newNode(t, 1, alice, bert)
	_, err := n.deliver(alice, &multisig.CreateChangeThresholdProposalMsg{Threshold: 2, ExpiresAt: 1000})
	require.NoError(t, err)

	app, err := NewApplication(n.store, NewStack(StackOptions{}))
	require.NoError(t, err)
	require.Equal(t, testChainID, app.ChainID())
	require.Equal(t, int64(2), app.Height())

	res, err := app.Query("/multisig/proposal", orm.EncodeSequence(1))
	require.NoError(t, err)
	require.Equal(t, multisig.KindChangeThreshold, res.(*multisig.ProposalView).Kind)

	_, err = app.Query("/unknown", nil)
	require.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
}

func TestApplicationDiscardsFailedTx(t *testing.T) {
	cases := map[string]struct {
		handler *quorumtest.Handler
		wantErr *errors.Error
	}{
		"handler error": {
			handler: &quorumtest.Handler{
				Key:        []byte("written"),
				Value:      []byte("value"),
				DeliverErr: errors.ErrAmount,
			},
			wantErr: errors.ErrAmount,
		},
		"handler panic": {
			handler: &quorumtest.Handler{
				Key:          []byte("written"),
				Value:        []byte("value"),
				DeliverPanic: "boom",
			},
			wantErr: errors.ErrPanic,
		},
		"success": {
			handler: &quorumtest.Handler{
				Key:   []byte("written"),
				Value: []byte("value"),
				DeliverResult: quorum.DeliverResult{
					Events: []quorum.Event{quorum.NewEvent("tested", "n", 1)},
				},
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			r := NewRouter()
			r.Handle("test/msg", tc.handler)
			app, err := NewApplication(iavl.MockCommitStore(), Stack{
				Decoder: func([]byte) (quorum.Tx, error) {
					return &quorumtest.Tx{Msg: &quorumtest.Msg{RoutePath: "test/msg"}}, nil
				},
				Handler:     r,
				Queries:     quorum.NewQueryRouter(),
				Initializer: quorum.ChainInitializers(),
			})
			require.NoError(t, err)
			require.NoError(t, app.InitChain(&Genesis{ChainID: testChainID, AppState: quorum.Options{"none": []byte("{}")}}))
			require.NoError(t, app.BeginBlock(1))

			_, err = app.DeliverTx([]byte("tx"))
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "got %+v", err)
			} else {
				require.NoError(t, err)
			}
			_, err = app.Commit()
			require.NoError(t, err)

			got, err := app.store.CommittedStore().Get([]byte("written"))
			require.NoError(t, err)
			records, err := app.Events(0, 0)
			require.NoError(t, err)
			if tc.wantErr != nil {
				require.Nil(t, got)
				require.Empty(t, records)
			} else {
				require.Equal(t, []byte("value"), got)
				require.Len(t, records, 1)
				require.Equal(t, "1", records[0].Attributes[0].Value)
			}
		})
	}
}
