package sigs

import (
	"context"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/crypto"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/iov-one/quorum/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = "test-chain"

type signedTx struct {
	quorumtest.Tx
	payload []byte
	sigs    []*StdSignature
}

func (tx *signedTx) GetSignBytes() ([]byte, error) {
	return tx.payload, nil
}

func (tx *signedTx) GetSignatures() []*StdSignature {
	return tx.sigs
}

func sign(t testing.TB, key crypto.Signer, tx *signedTx, seq int64) {
	t.Helper()
	sig, err := SignTx(key, tx, testChainID, seq)
	require.NoError(t, err)
	tx.sigs = append(tx.sigs, sig)
}

func TestVerifySignatures(t *testing.T) {
	alice := quorumtest.NewKey()
	bob := quorumtest.NewKey()

	db := store.MemStore()
	tx := &signedTx{payload: []byte("payload")}
	sign(t, alice, tx, 0)
	sign(t, bob, tx, 0)

	signers, err := VerifyTxSignatures(db, tx, testChainID)
	require.NoError(t, err)
	assert.Equal(t, []quorum.Condition{
		alice.PublicKey().Condition(),
		bob.PublicKey().Condition(),
	}, signers)

	// Replay of the same signatures is rejected.
	_, err = VerifyTxSignatures(db, tx, testChainID)
	assert.True(t, ErrInvalidSequence.Is(err), "got %+v", err)

	seq, err := NextSequence(db, alice.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, int64(1), seq)

	// Signature for another chain does not verify.
	other := &signedTx{payload: []byte("payload")}
	sig, err := SignTx(alice, other, "other-chain", 1)
	require.NoError(t, err)
	other.sigs = []*StdSignature{sig}
	_, err = VerifyTxSignatures(db, other, testChainID)
	assert.True(t, ErrInvalidSignature.Is(err), "got %+v", err)

	// Tampered payload does not verify.
	tampered := &signedTx{payload: []byte("payload")}
	sign(t, alice, tampered, 1)
	tampered.payload = []byte("other payload")
	_, err = VerifyTxSignatures(db, tampered, testChainID)
	assert.True(t, ErrInvalidSignature.Is(err), "got %+v", err)
}

func TestBuildSignBytes(t *testing.T) {
	cases := map[string]struct {
		chainID string
		seq     int64
		wantErr *errors.Error
	}{
		"valid":            {chainID: testChainID, seq: 3},
		"negative":         {chainID: testChainID, seq: -1, wantErr: ErrInvalidSequence},
		"invalid chain id": {chainID: "x", seq: 1, wantErr: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			bz, err := BuildSignBytes([]byte("data"), tc.chainID, tc.seq)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "got %+v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, bz, 64)
		})
	}
}

func TestDecorator(t *testing.T) {
	alice := quorumtest.NewKey()
	ctx := quorum.WithChainID(context.Background(), testChainID)

	var got []quorum.Condition
	h := &authCapture{dest: &got}

	cases := map[string]struct {
		decorator Decorator
		tx        quorum.Tx
		wantErr   *errors.Error
		wantSigs  []quorum.Condition
	}{
		"signed": {
			decorator: NewDecorator(),
			tx: func() quorum.Tx {
				tx := &signedTx{payload: []byte("x")}
				sign(t, alice, tx, 0)
				return tx
			}(),
			wantSigs: []quorum.Condition{alice.PublicKey().Condition()},
		},
		"unsigned rejected": {
			decorator: NewDecorator(),
			tx:        &signedTx{payload: []byte("x")},
			wantErr:   errors.ErrUnauthorized,
		},
		"unsigned allowed": {
			decorator: NewDecorator().AllowMissingSigs(),
			tx:        &signedTx{payload: []byte("x")},
			wantSigs:  []quorum.Condition{},
		},
		"not a signed tx": {
			decorator: NewDecorator(),
			tx:        &quorumtest.Tx{},
			wantErr:   errors.ErrUnauthorized,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got = nil
			db := store.MemStore()
			_, err := tc.decorator.Deliver(ctx, db, tc.tx, h)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "got %+v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSigs, got)
		})
	}
}

// authCapture records the conditions authenticated by the decorator.
type authCapture struct {
	dest *[]quorum.Condition
}

func (a *authCapture) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	*a.dest = Authenticate{}.GetConditions(ctx)
	return &quorum.DeliverResult{}, nil
}
