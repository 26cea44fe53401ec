package multisig

import (
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuerier(t *testing.T) {
	alice := quorumtest.NewCondition()
	bob := quorumtest.NewCondition()
	carol := quorumtest.NewCondition()

	f := newFixture(t, nil, 2, alice, bob, carol)
	q := NewQuerier(f.ctrl)

	nonce, err := q.GetNonce(f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), nonce)

	id := f.propose(alice, &CreateSendProposalMsg{Recipient: carol.Address(), Amount: coin.NewCoin(3, 0, "IOV"), Memo: "lunch", ExpiresAt: 20})
	f.approve(id, bob)

	view, err := q.GetProposal(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), view.ID)
	assert.Equal(t, KindSend, view.Kind)
	assert.Equal(t, alice.Address(), view.Proposer)
	assert.Equal(t, []quorum.Address{bob.Address()}, view.Approvers)
	assert.Equal(t, &SendAction{Recipient: carol.Address(), Amount: coin.NewCoin(3, 0, "IOV"), Memo: "lunch"}, view.Action)

	_, err = q.GetProposal(f.db, orm.EncodeSequence(2))
	require.True(t, errors.ErrNotFound.Is(err), "%+v", err)

	ok, err := q.HasApproved(f.db, id, bob.Address())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = q.HasApproved(f.db, id, carol.Address())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = q.IsOwner(f.db, carol.Address())
	require.NoError(t, err)
	assert.True(t, ok)

	threshold, err := q.GetThreshold(f.db)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), threshold)
	count, err := q.GetOwnerCount(f.db)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), count)

	n, err := q.GetApprovalCount(f.db, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)
	n, err = q.GetApprovalCount(f.db, orm.EncodeSequence(99))
	require.NoError(t, err)
	assert.Equal(t, uint32(0), n)

	balance, err := q.GetBalance(f.db)
	require.NoError(t, err)
	assert.Equal(t, coin.NewCoin(100, 0, "IOV"), balance)

	nonce, err = q.GetNonce(f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), nonce)
}

func TestRegisterQuery(t *testing.T) {
	alice := quorumtest.NewCondition()
	bob := quorumtest.NewCondition()

	f := newFixture(t, nil, 1, alice, bob)
	id := f.propose(alice, &CreateAddOwnerProposalMsg{Owner: quorumtest.NewCondition().Address(), ExpiresAt: 20})
	f.approve(id, bob)

	qr := quorum.NewQueryRouter()
	RegisterQuery(qr, f.ctrl)

	cases := map[string]struct {
		path    string
		data    []byte
		want    interface{}
		wantErr *errors.Error
	}{
		"approval": {
			path: "/multisig/approval",
			data: ApprovalKey(id, bob.Address()),
			want: &ApprovalStatus{Approved: true},
		},
		"approval with malformed key": {
			path:    "/multisig/approval",
			data:    id,
			wantErr: errors.ErrInput,
		},
		"approval count": {
			path: "/multisig/approval_count",
			data: id,
			want: &Counter{Value: 1},
		},
		"owner": {
			path: "/multisig/owner",
			data: alice.Address(),
			want: &OwnerStatus{Owner: true},
		},
		"not an owner": {
			path: "/multisig/owner",
			data: quorumtest.NewCondition().Address(),
			want: &OwnerStatus{Owner: false},
		},
		"nonce": {
			path: "/multisig/nonce",
			want: &Counter{Value: 1},
		},
		"balance": {
			path: "/multisig/balance",
			want: &coin.Coin{Whole: 100, Ticker: "IOV"},
		},
		"owners": {
			path: "/multisig/owners",
			want: orderedAddresses(alice.Address(), bob.Address()),
		},
		"malformed proposal id": {
			path:    "/multisig/proposal",
			data:    []byte{1},
			wantErr: errors.ErrInput,
		},
		"missing proposal": {
			path:    "/multisig/proposal",
			data:    orm.EncodeSequence(5),
			wantErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			h := qr.Handler(tc.path)
			require.NotNil(t, h)
			got, err := h.Query(f.db, tc.data)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	got, err := qr.Handler("/multisig/config").Query(f.db, nil)
	require.NoError(t, err)
	conf := got.(*Config)
	assert.Equal(t, uint32(1), conf.Threshold)
	assert.Equal(t, uint32(2), conf.OwnerCount)
	assert.Equal(t, "IOV", conf.NativeTicker)
}

func orderedAddresses(a, b quorum.Address) []quorum.Address {
	if string(a) < string(b) {
		return []quorum.Address{a, b}
	}
	return []quorum.Address{b, a}
}
