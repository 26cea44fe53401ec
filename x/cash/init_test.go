package cash

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/coin"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenesis(t *testing.T) {
	const genesis = `{
		"cash": [
			{
				"address": "E28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0",
				"coins": ["5 IOV", {"whole": 2, "ticker": "ETH"}, "0.5 IOV"]
			}
		]
	}`
	var opts quorum.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	require.NoError(t, Initializer{}.FromGenesis(context.Background(), opts, db))

	addr, err := quorum.ParseAddress("E28AE9A6EB94FC88B73EB7CBD6B87BF93EB9BEF0")
	require.NoError(t, err)
	got, err := NewController().Balance(db, addr)
	require.NoError(t, err)
	assert.Equal(t, coin.Coins{
		coinp(2, 0, "ETH"),
		coinp(5, 500000000, "IOV"),
	}, got)
}

func TestGenesisInvalidAddress(t *testing.T) {
	opts := quorum.Options{
		"cash": json.RawMessage(`[{"address": "", "coins": ["1 IOV"]}]`),
	}
	err := Initializer{}.FromGenesis(context.Background(), opts, store.MemStore())
	assert.True(t, errors.ErrEmpty.Is(err), "got %+v", err)
}
