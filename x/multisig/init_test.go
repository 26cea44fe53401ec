package multisig

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/iov-one/quorum/store"
	"github.com/iov-one/quorum/x/cash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenesis(t *testing.T) {
	a := quorumtest.NewCondition().Address()
	b := quorumtest.NewCondition().Address()

	cases := map[string]struct {
		genesis Genesis
		wantErr *errors.Error
	}{
		"funded treasury": {
			genesis: Genesis{
				Owners:       []quorum.Address{a, b},
				Threshold:    2,
				NativeTicker: "IOV",
				Treasury:     []coin.Coin{coin.NewCoin(10, 5, "IOV")},
			},
		},
		"invalid native ticker": {
			genesis: Genesis{Owners: []quorum.Address{a}, Threshold: 1, NativeTicker: "io"},
			wantErr: errors.ErrCurrency,
		},
		"treasury in another currency": {
			genesis: Genesis{
				Owners:       []quorum.Address{a},
				Threshold:    1,
				NativeTicker: "IOV",
				Treasury:     []coin.Coin{coin.NewCoin(1, 0, "ETH")},
			},
			wantErr: errors.ErrCurrency,
		},
		"threshold too high": {
			genesis: Genesis{Owners: []quorum.Address{a}, Threshold: 2, NativeTicker: "IOV"},
			wantErr: ErrInvalidThreshold,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			raw, err := json.Marshal(tc.genesis)
			require.NoError(t, err)
			db := store.MemStore()
			ctrl := cash.NewController()
			ctx := quorum.WithChainID(context.Background(), testChainID)

			err = Initializer{Cash: ctrl}.FromGenesis(ctx, quorum.Options{"multisig": raw}, db)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				return
			}
			require.NoError(t, err)

			c, err := NewRegistry().Config(db)
			require.NoError(t, err)
			assert.Equal(t, TreasuryAddress(testChainID), c.Treasury)
			coins, err := ctrl.Balance(db, c.Treasury)
			require.NoError(t, err)
			assert.Equal(t, coin.NewCoin(10, 5, "IOV"), coins.Get("IOV"))

			// Running genesis again must not replace the owners.
			err = Initializer{Cash: ctrl}.FromGenesis(ctx, quorum.Options{"multisig": raw}, db)
			require.True(t, errors.ErrState.Is(err), "%+v", err)
		})
	}
}

func TestTreasuryAddressDependsOnChain(t *testing.T) {
	assert.Equal(t, TreasuryAddress("chain-one"), TreasuryAddress("chain-one"))
	assert.NotEqual(t, TreasuryAddress("chain-one"), TreasuryAddress("chain-two"))
}

func TestProposalCodec(t *testing.T) {
	proposer := quorumtest.NewCondition().Address()
	actions := []Action{
		&SendAction{Recipient: proposer, Amount: coin.NewCoin(1, 2, "IOV"), Memo: "m"},
		&TokenSendAction{Token: proposer, Recipient: proposer, Amount: coin.NewCoin(3, 0, "DOGE")},
		&AddOwnerAction{Owner: proposer},
		&RemoveOwnerAction{Owner: proposer},
		&ChangeThresholdAction{Threshold: 3},
	}
	for _, a := range actions {
		t.Run(a.Kind(), func(t *testing.T) {
			p := Proposal{Proposer: proposer, Action: a, ApprovalCount: 2, ExpiresAt: 30, CreatedAt: 4}
			raw, err := p.Marshal()
			require.NoError(t, err)
			var got Proposal
			require.NoError(t, got.Unmarshal(raw))
			assert.Equal(t, a, got.Action)
			assert.Equal(t, a.Kind(), got.Action.Kind())
			require.NoError(t, got.Validate())
		})
	}
}
