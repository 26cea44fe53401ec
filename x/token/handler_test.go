package token

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/quorumtest"
	"github.com/iov-one/quorum/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type router map[string]quorum.Handler

func (r router) Handle(path string, h quorum.Handler) {
	r[path] = h
}

func TestCreateTokenHandler(t *testing.T) {
	issuer := quorumtest.NewCondition()
	other := quorumtest.NewCondition()

	cases := map[string]struct {
		signer  quorum.Condition
		msg     *CreateTokenMsg
		wantErr *errors.Error
	}{
		"issuer creates": {
			signer: issuer,
			msg:    &CreateTokenMsg{Ticker: "PLP", Name: "Plop Coin"},
		},
		"not the issuer": {
			signer:  other,
			msg:     &CreateTokenMsg{Ticker: "PLP", Name: "Plop Coin"},
			wantErr: errors.ErrUnauthorized,
		},
		"already registered": {
			signer:  issuer,
			msg:     &CreateTokenMsg{Ticker: "DOGE", Name: "Second Doge"},
			wantErr: errors.ErrDuplicate,
		},
		"invalid ticker": {
			signer:  issuer,
			msg:     &CreateTokenMsg{Ticker: "X", Name: "Plop Coin"},
			wantErr: errors.ErrCurrency,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			_, err := NewRegistry().Create(db, TokenInfo{Ticker: "DOGE", Name: "Doge Coin"})
			require.NoError(t, err)

			r := make(router)
			RegisterRoutes(r, &quorumtest.Auth{Signer: tc.signer}, issuer.Address())
			h := r["token/create"]
			tx := &quorumtest.Tx{Msg: tc.msg}

			_, err = h.Check(context.Background(), db, tx)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "got %+v", err)
				return
			}
			require.NoError(t, err)
			res, err := h.Deliver(context.Background(), db, tx)
			require.NoError(t, err)
			assert.Equal(t, []byte(RefFor(tc.msg.Ticker)), res.Data)
		})
	}
}

func TestTransferHandlerAndQuery(t *testing.T) {
	ctx := context.Background()
	alice := quorumtest.NewCondition()
	bob := quorumtest.NewCondition()
	db := store.MemStore()

	s, err := NewRegistry().Create(db, TokenInfo{Ticker: "DOGE", Name: "Doge Coin"})
	require.NoError(t, err)
	require.NoError(t, s.Mint(ctx, db, alice.Address(), coin.NewCoin(3, 0, "DOGE")))

	r := make(router)
	RegisterRoutes(r, &quorumtest.Auth{Signer: alice}, nil)
	h := r["token/transfer"]

	msg := &TransferMsg{
		Token:       s.Ref(),
		Source:      alice.Address(),
		Destination: bob.Address(),
		Amount:      coin.NewCoin(2, 0, "DOGE"),
	}
	res, err := h.Deliver(ctx, db, &quorumtest.Tx{Msg: msg})
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "tokens_sent", res.Events[0].Type)

	// Bob did not sign, so he cannot move his tokens.
	back := *msg
	back.Source, back.Destination = bob.Address(), alice.Address()
	_, err = h.Deliver(ctx, db, &quorumtest.Tx{Msg: &back})
	assert.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)

	qr := quorum.NewQueryRouter()
	RegisterQuery(qr)
	got, err := qr.Handler("/tokens/balance").Query(db, HoldingKey(s.Ref(), bob.Address()))
	require.NoError(t, err)
	assert.Equal(t, &Holding{Amount: coin.NewCoin(2, 0, "DOGE")}, got)

	info, err := qr.Handler("/tokens").Query(db, s.Ref())
	require.NoError(t, err)
	assert.Equal(t, &TokenInfo{Ticker: "DOGE", Name: "Doge Coin"}, info)

	_, err = qr.Handler("/tokens/balance").Query(db, []byte("short"))
	assert.True(t, errors.ErrInput.Is(err), "got %+v", err)
}

func TestGenesis(t *testing.T) {
	owner := quorumtest.NewCondition().Address()
	raw, err := json.Marshal([]GenesisToken{{
		Ticker: "DOGE",
		Name:   "Doge Coin",
		Holdings: []GenesisHolding{
			{Owner: owner, Amount: coin.NewCoin(7, 0, "DOGE")},
		},
	}})
	require.NoError(t, err)

	db := store.MemStore()
	opts := quorum.Options{"token": raw}
	require.NoError(t, Initializer{}.FromGenesis(context.Background(), opts, db))

	s, err := NewRegistry().Token(db, RefFor("DOGE"))
	require.NoError(t, err)
	got, err := s.Balance(context.Background(), db, owner)
	require.NoError(t, err)
	assert.Equal(t, coin.NewCoin(7, 0, "DOGE"), got)

	// Token cannot be declared twice.
	err = Initializer{}.FromGenesis(context.Background(), opts, db)
	assert.True(t, errors.ErrDuplicate.Is(err), "got %+v", err)
}
