package node

import (
	"context"
	"sync"
	"time"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Result is the outcome of a delivered transaction.
type Result struct {
	Height int64          `json:"height"`
	Code   uint32         `json:"code"`
	Log    string         `json:"log,omitempty"`
	Data   []byte         `json:"data,omitempty"`
	Events []quorum.Event `json:"events,omitempty"`
}

func newResult(height int64, res *quorum.DeliverResult, err error, debug bool) Result {
	r := Result{Height: height}
	if err != nil {
		r.Code, r.Log = errors.ABCIInfo(err, debug)
		return r
	}
	r.Log = res.Log
	r.Data = res.Data
	r.Events = res.Events
	return r
}

type queued struct {
	raw  []byte
	done chan Result
}

// Sequencer orders submitted transactions into blocks. A block is produced
// on every tick of the interval if at least one transaction is waiting.
type Sequencer struct {
	app      *app.Application
	interval time.Duration
	logger   log.Logger

	mu      sync.Mutex
	pending []queued
	stopped bool
}

// NewSequencer returns a sequencer producing blocks for given application.
func NewSequencer(a *app.Application, interval time.Duration, logger log.Logger) *Sequencer {
	return &Sequencer{
		app:      a,
		interval: interval,
		logger:   logger,
	}
}

// Submit checks the transaction and queues it for the next block. The
// returned channel receives the delivery result once the block is
// committed.
func (s *Sequencer) Submit(raw []byte) (<-chan Result, error) {
	if _, err := s.app.CheckTx(raw); err != nil {
		return nil, err
	}
	done := make(chan Result, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, errors.Wrap(errors.ErrState, "node stopped")
	}
	s.pending = append(s.pending, queued{raw: raw, done: done})
	return done, nil
}

// Pending returns the number of transactions waiting for a block.
func (s *Sequencer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Run produces blocks until the context is cancelled. Transactions still
// waiting when it returns are rejected.
func (s *Sequencer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.abort()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.ProduceBlock(); err != nil {
				return err
			}
		}
	}
}

func (s *Sequencer) abort() {
	s.mu.Lock()
	txs := s.pending
	s.pending = nil
	s.stopped = true
	s.mu.Unlock()
	reject(txs, errors.Wrap(errors.ErrState, "node stopped"))
}

// reject answers every waiting transaction with the error.
func reject(txs []queued, err error) {
	for _, tx := range txs {
		tx.done <- newResult(0, nil, err, false)
	}
}

// ProduceBlock delivers all waiting transactions in a new block and
// commits it. It returns the height of the block, or 0 if nothing was
// waiting.
func (s *Sequencer) ProduceBlock() (int64, error) {
	s.mu.Lock()
	txs := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(txs) == 0 {
		return 0, nil
	}

	height := s.app.Height() + 1
	if err := s.app.BeginBlock(height); err != nil {
		reject(txs, errors.Wrap(errors.ErrState, "block not started"))
		return 0, errors.Wrap(err, "begin block")
	}
	results := make([]Result, len(txs))
	for i, tx := range txs {
		res, err := s.app.DeliverTx(tx.raw)
		results[i] = newResult(height, res, err, s.app.Debug())
	}
	id, err := s.app.Commit()
	if err != nil {
		reject(txs, errors.Wrap(errors.ErrState, "block not committed"))
		return 0, errors.Wrap(err, "commit")
	}
	for i, tx := range txs {
		tx.done <- results[i]
	}
	s.logger.Info("block committed", "height", id.Version, "txs", len(txs))
	return id.Version, nil
}
