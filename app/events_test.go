package app

import (
	"testing"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLog(t *testing.T) {
	db := store.MemStore()
	log := NewEventLog()

	latest, err := log.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)

	recs, err := log.Append(db, 3, "multisig/approve", []quorum.Event{
		quorum.NewEvent("proposal_approved", "proposal", 1, "count", 1),
		quorum.NewEvent("proposal_approved", "proposal", 2, "count", 1),
	})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	_, err = log.Append(db, 4, "multisig/execute", []quorum.Event{
		quorum.NewEvent("threshold_changed", "threshold", 2),
	})
	require.NoError(t, err)

	all, err := log.Since(db, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[2].Seq)
	assert.Equal(t, int64(4), all[2].Height)

	ev := all[0].Event()
	assert.Equal(t, "proposal_approved", ev.Type)
	v, ok := ev.Attr("proposal")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	page, err := log.Since(db, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].Seq)

	none, err := log.Since(db, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	latest, err = log.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest)
}

func TestFeed(t *testing.T) {
	var f feed
	fast, cancelFast := f.subscribe(4)
	slow, cancelSlow := f.subscribe(1)
	defer cancelSlow()

	records := []EventRecord{{Seq: 1, Type: "a"}, {Seq: 2, Type: "b"}}
	assert.Equal(t, 1, f.publish(records))

	assert.Equal(t, int64(1), (<-fast).Seq)
	assert.Equal(t, int64(2), (<-fast).Seq)
	assert.Equal(t, int64(1), (<-slow).Seq)

	cancelFast()
	cancelFast()
	_, open := <-fast
	assert.False(t, open)

	f.close()
	_, open = <-slow
	assert.False(t, open)
}
