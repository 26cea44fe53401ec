package token

import (
	"context"
	"testing"

	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/iov-one/quorum/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	db := store.MemStore()
	r := NewRegistry()

	_, err := r.Token(db, RefFor("DOGE"))
	assert.True(t, errors.ErrNotFound.Is(err), "got %+v", err)

	s, err := r.Create(db, TokenInfo{Ticker: "DOGE", Name: "Doge Coin"})
	require.NoError(t, err)
	assert.Equal(t, RefFor("DOGE"), s.Ref())

	_, err = r.Create(db, TokenInfo{Ticker: "DOGE", Name: "Another Doge"})
	assert.True(t, errors.ErrDuplicate.Is(err), "got %+v", err)

	_, err = r.Create(db, TokenInfo{Ticker: "doge", Name: "Lower Doge"})
	assert.True(t, errors.ErrCurrency.Is(err), "got %+v", err)

	_, err = r.Create(db, TokenInfo{Ticker: "PLP", Name: "!"})
	assert.True(t, errors.ErrInput.Is(err), "got %+v", err)

	got, err := r.Token(db, RefFor("DOGE"))
	require.NoError(t, err)
	assert.Equal(t, TokenInfo{Ticker: "DOGE", Name: "Doge Coin"}, got.Info())
}

func TestServiceTransfer(t *testing.T) {
	alice := quorumtest.NewCondition().Address()
	bob := quorumtest.NewCondition().Address()

	cases := map[string]struct {
		amount    coin.Coin
		wantErr   *errors.Error
		wantAlice coin.Coin
		wantBob   coin.Coin
	}{
		"part": {
			amount:    coin.NewCoin(4, 0, "DOGE"),
			wantAlice: coin.NewCoin(6, 0, "DOGE"),
			wantBob:   coin.NewCoin(4, 0, "DOGE"),
		},
		"everything": {
			amount:    coin.NewCoin(10, 0, "DOGE"),
			wantAlice: coin.Coin{Ticker: "DOGE"},
			wantBob:   coin.NewCoin(10, 0, "DOGE"),
		},
		"too much": {
			amount:    coin.NewCoin(10, 1, "DOGE"),
			wantErr:   errors.ErrInsufficientAmount,
			wantAlice: coin.NewCoin(10, 0, "DOGE"),
			wantBob:   coin.Coin{Ticker: "DOGE"},
		},
		"wrong ticker": {
			amount:    coin.NewCoin(1, 0, "IOV"),
			wantErr:   errors.ErrCurrency,
			wantAlice: coin.NewCoin(10, 0, "DOGE"),
			wantBob:   coin.Coin{Ticker: "DOGE"},
		},
		"negative": {
			amount:    coin.NewCoin(-1, 0, "DOGE"),
			wantErr:   errors.ErrAmount,
			wantAlice: coin.NewCoin(10, 0, "DOGE"),
			wantBob:   coin.Coin{Ticker: "DOGE"},
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			ctx := context.Background()
			db := store.MemStore()
			s, err := NewRegistry().Create(db, TokenInfo{Ticker: "DOGE", Name: "Doge Coin"})
			require.NoError(t, err)
			require.NoError(t, s.Mint(ctx, db, alice, coin.NewCoin(10, 0, "DOGE")))

			err = s.Transfer(ctx, db, tc.amount, alice, bob, "memo")
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "got %+v", err)
			} else {
				require.NoError(t, err)
			}

			got, err := s.Balance(ctx, db, alice)
			require.NoError(t, err)
			assert.Equal(t, tc.wantAlice, got)
			got, err = s.Balance(ctx, db, bob)
			require.NoError(t, err)
			assert.Equal(t, tc.wantBob, got)
		})
	}
}
