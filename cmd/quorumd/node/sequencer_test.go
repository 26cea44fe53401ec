package node

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

func TestSequencerProduceBlock(t *testing.T) {
	o := newOwners(t, 3)
	a := newTestApp(t, o, 2)
	seq := NewSequencer(a, time.Hour, log.NewNopLogger())

	height, err := seq.ProduceBlock()
	require.NoError(t, err)
	assert.EqualValues(t, 0, height)
	assert.EqualValues(t, 1, a.Height())

	created, err := seq.Submit(o.raw(0, sendProposal(10)))
	require.NoError(t, err)
	approved, err := seq.Submit(o.raw(1, &multisig.ApproveMsg{ID: orm.EncodeSequence(1)}))
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Pending())

	height, err = seq.ProduceBlock()
	require.NoError(t, err)
	assert.EqualValues(t, 2, height)
	assert.Equal(t, 0, seq.Pending())

	res := <-created
	require.Zero(t, res.Code, res.Log)
	assert.EqualValues(t, 2, res.Height)
	assert.Equal(t, orm.EncodeSequence(1), res.Data)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "proposal_created", res.Events[0].Type)

	res = <-approved
	require.Zero(t, res.Code, res.Log)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "proposal_approved", res.Events[0].Type)
}

func TestSequencerReportsFailedDelivery(t *testing.T) {
	o := newOwners(t, 3)
	a := newTestApp(t, o, 2)
	seq := NewSequencer(a, time.Hour, log.NewNopLogger())

	_, err := seq.Submit(o.raw(0, sendProposal(10)))
	require.NoError(t, err)
	_, err = seq.ProduceBlock()
	require.NoError(t, err)

	done, err := seq.Submit(o.raw(1, &multisig.ExecuteMsg{ID: orm.EncodeSequence(1)}))
	if err != nil {
		// The check may reject it before it reaches a block.
		require.True(t, multisig.ErrBelowThreshold.Is(err), "got %+v", err)
		return
	}
	_, err = seq.ProduceBlock()
	require.NoError(t, err)
	res := <-done
	assert.Equal(t, multisig.ErrBelowThreshold.ABCICode(), res.Code)
	assert.EqualValues(t, 3, res.Height)
	assert.Empty(t, res.Events)
}

func TestSequencerSubmitChecks(t *testing.T) {
	o := newOwners(t, 2)
	a := newTestApp(t, o, 1)
	seq := NewSequencer(a, time.Hour, log.NewNopLogger())

	_, err := seq.Submit([]byte("not a transaction"))
	require.Error(t, err)

	unsigned, err := newUnsigned(sendProposal(1))
	require.NoError(t, err)
	_, err = seq.Submit(unsigned)
	require.True(t, errors.ErrUnauthorized.Is(err), "got %+v", err)

	assert.Equal(t, 0, seq.Pending())
}

func TestSequencerRun(t *testing.T) {
	o := newOwners(t, 2)
	a := newTestApp(t, o, 1)
	seq := NewSequencer(a, 5*time.Millisecond, log.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- seq.Run(ctx) }()

	done, err := seq.Submit(o.raw(0, sendProposal(10)))
	require.NoError(t, err)
	select {
	case res := <-done:
		require.Zero(t, res.Code, res.Log)
		assert.EqualValues(t, 2, res.Height)
	case <-time.After(5 * time.Second):
		t.Fatal("block not produced")
	}

	cancel()
	require.NoError(t, <-stopped)

	_, err = seq.Submit(o.raw(1, sendProposal(5)))
	require.True(t, errors.ErrState.Is(err), "got %+v", err)
}

func TestSequencerRejectsPendingOnStop(t *testing.T) {
	o := newOwners(t, 2)
	a := newTestApp(t, o, 1)
	seq := NewSequencer(a, time.Hour, log.NewNopLogger())

	done, err := seq.Submit(o.raw(0, sendProposal(10)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, seq.Run(ctx))

	res := <-done
	assert.Equal(t, errors.ErrState.ABCICode(), res.Code)
	assert.EqualValues(t, 0, res.Height)
	assert.EqualValues(t, 1, a.Height())
}

func TestSequencerRejectsBlockFailure(t *testing.T) {
	o := newOwners(t, 2)
	a := newTestApp(t, o, 1)
	seq := NewSequencer(a, time.Hour, log.NewNopLogger())

	done, err := seq.Submit(o.raw(0, sendProposal(10)))
	require.NoError(t, err)

	// A block already in progress makes the next one fail to start.
	require.NoError(t, a.BeginBlock(2))
	_, err = seq.ProduceBlock()
	require.True(t, errors.ErrState.Is(err), "got %+v", err)

	select {
	case res := <-done:
		assert.Equal(t, errors.ErrState.ABCICode(), res.Code)
		assert.EqualValues(t, 0, res.Height)
	default:
		t.Fatal("waiting transaction not answered")
	}
	assert.Equal(t, 0, seq.Pending())
}
