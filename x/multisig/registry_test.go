package multisig

import (
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/iov-one/quorum/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInitialize(t *testing.T) {
	a := quorumtest.NewCondition().Address()
	b := quorumtest.NewCondition().Address()
	treasury := TreasuryAddress(testChainID)

	cases := map[string]struct {
		owners    []quorum.Address
		threshold uint32
		wantErr   *errors.Error
	}{
		"valid": {
			owners:    []quorum.Address{a, b},
			threshold: 2,
		},
		"no owners": {
			threshold: 1,
			wantErr:   errors.ErrEmpty,
		},
		"duplicated owner": {
			owners:    []quorum.Address{a, b, a},
			threshold: 1,
			wantErr:   ErrOwnerExists,
		},
		"zero threshold": {
			owners:  []quorum.Address{a},
			wantErr: ErrInvalidThreshold,
		},
		"threshold above owner count": {
			owners:    []quorum.Address{a, b},
			threshold: 3,
			wantErr:   ErrInvalidThreshold,
		},
		"invalid address": {
			owners:    []quorum.Address{a, quorum.Address("short")},
			threshold: 1,
			wantErr:   errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			r := NewRegistry()
			err := r.Initialize(db, tc.owners, tc.threshold, "IOV", treasury)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				_, err := r.Config(db)
				require.True(t, errors.ErrNotFound.Is(err), "%+v", err)
				return
			}
			require.NoError(t, err)

			c, err := r.Config(db)
			require.NoError(t, err)
			assert.Equal(t, tc.threshold, c.Threshold)
			assert.Equal(t, uint32(len(tc.owners)), c.OwnerCount)
			assert.Equal(t, treasury, c.Treasury)

			// The registry cannot be initialized twice.
			err = r.Initialize(db, []quorum.Address{quorumtest.NewCondition().Address()}, 1, "IOV", treasury)
			require.True(t, errors.ErrState.Is(err), "%+v", err)
		})
	}
}

func TestRegistryMutations(t *testing.T) {
	a := quorumtest.NewCondition().Address()
	b := quorumtest.NewCondition().Address()
	c := quorumtest.NewCondition().Address()

	db := store.MemStore()
	r := NewRegistry()
	require.NoError(t, r.Initialize(db, []quorum.Address{a, b}, 2, "IOV", TreasuryAddress(testChainID)))

	require.True(t, ErrOwnerExists.Is(r.Add(db, b)))
	require.NoError(t, r.Add(db, c))
	n, err := r.Count(db)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), n)

	require.True(t, ErrInvalidThreshold.Is(r.SetThreshold(db, 4)))
	require.True(t, ErrInvalidThreshold.Is(r.SetThreshold(db, 0)))
	require.NoError(t, r.SetThreshold(db, 3))
	require.True(t, ErrUnreachableThreshold.Is(r.Remove(db, a)))

	require.NoError(t, r.SetThreshold(db, 1))
	require.NoError(t, r.Remove(db, a))
	require.True(t, ErrOwnerNotFound.Is(r.Remove(db, a)))
	require.NoError(t, r.Remove(db, b))
	require.True(t, ErrLastOwner.Is(r.Remove(db, c)))

	owners, err := r.Owners(db)
	require.NoError(t, err)
	assert.Equal(t, []quorum.Address{c}, owners)
	ok, err := r.IsMember(db, a)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProposalAssertPending(t *testing.T) {
	cases := map[string]struct {
		p       Proposal
		height  int64
		wantErr *errors.Error
	}{
		"pending":           {p: Proposal{ExpiresAt: 10}, height: 9},
		"expired at height": {p: Proposal{ExpiresAt: 10}, height: 10, wantErr: errors.ErrExpired},
		"executed":          {p: Proposal{ExpiresAt: 10, Executed: true}, height: 1, wantErr: ErrExecuted},
		"cancelled":         {p: Proposal{ExpiresAt: 10, Cancelled: true}, height: 1, wantErr: ErrCancelled},
		"executed and expired reports executed": {
			p:       Proposal{ExpiresAt: 10, Executed: true},
			height:  12,
			wantErr: ErrExecuted,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.p.AssertPending(tc.height)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, tc.wantErr.Is(err), "%+v", err)
		})
	}
}
