package app

import (
	"context"
	"sync"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Stack is what the application needs from the extensions it runs.
type Stack struct {
	Decoder     quorum.TxDecoder
	Handler     quorum.Handler
	Queries     quorum.QueryRouter
	Initializer quorum.Initializer
}

// Application drives the extensions through the life of a single node
// chain: genesis, blocks of transactions and commits.
//
// All calls are serialized. Every transaction runs against its own cache
// wrap that is written only when the handler succeeds, so a failed or
// panicking transaction leaves no trace in the state.
type Application struct {
	mu sync.Mutex

	store  *CommitStore
	stack  Stack
	events EventLog
	feed   feed
	// unpublished holds the event records of the current block until it
	// is committed.
	unpublished []EventRecord
	logger      log.Logger
	metrics     *Metrics
	debug       bool

	chainID string
	// committed is the height of the last committed block.
	committed int64
	// height is the height of the block being built, 0 outside of a block.
	height int64

	baseContext quorum.Context
}

// NewApplication loads the latest committed state from the store.
func NewApplication(store quorum.CommitKVStore, stack Stack) (*Application, error) {
	if stack.Decoder == nil || stack.Handler == nil || stack.Initializer == nil {
		return nil, errors.Wrap(errors.ErrHuman, "incomplete stack")
	}
	cs, err := NewCommitStore(store)
	if err != nil {
		return nil, err
	}
	info, err := cs.CommitInfo()
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	chainID, err := loadChainID(cs.CommittedStore())
	if err != nil {
		return nil, err
	}
	a := &Application{
		store:       cs,
		stack:       stack,
		events:      NewEventLog(),
		logger:      log.NewNopLogger(),
		chainID:     chainID,
		committed:   info.Version,
		baseContext: context.Background(),
	}
	if chainID != "" {
		a.baseContext = quorum.WithChainID(a.baseContext, chainID)
	}
	return a, nil
}

// WithLogger sets the logger passed to all handlers.
func (a *Application) WithLogger(logger log.Logger) *Application {
	a.logger = logger
	return a
}

// WithMetrics sets the collector of application metrics.
func (a *Application) WithMetrics(m *Metrics) *Application {
	a.metrics = m
	a.metrics.committed(a.committed)
	return a
}

// WithDebug controls if internal error details are revealed to clients.
func (a *Application) WithDebug(debug bool) *Application {
	a.debug = debug
	return a
}

// Debug reports if internal error details may be revealed to clients.
func (a *Application) Debug() bool {
	return a.debug
}

// ChainID returns the chain ID, empty before InitChain.
func (a *Application) ChainID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chainID
}

// Height returns the height of the last committed block.
func (a *Application) Height() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.committed
}

func (a *Application) context(height int64, keyvals ...interface{}) quorum.Context {
	ctx := quorum.WithLogger(a.baseContext, a.logger)
	ctx = quorum.WithHeight(ctx, height)
	return quorum.WithLogInfo(ctx, keyvals...)
}

// InitChain stores the chain ID and hands the genesis state to every
// initializer. It can be called only once in the life of a chain. The
// genesis state is persisted with the next Commit.
func (a *Application) InitChain(gen *Genesis) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chainID != "" {
		return errors.Wrapf(errors.ErrState, "chain %q already initialized", a.chainID)
	}
	if err := gen.Validate(); err != nil {
		return err
	}

	cache := a.store.DeliverStore().CacheWrap()
	if err := saveChainID(cache, gen.ChainID); err != nil {
		cache.Discard()
		return err
	}
	ctx := quorum.WithChainID(a.baseContext, gen.ChainID)
	ctx = quorum.WithLogInfo(quorum.WithLogger(ctx, a.logger), "call", "init_chain")
	if err := a.stack.Initializer.FromGenesis(ctx, gen.AppState, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "genesis")
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write genesis")
	}

	a.chainID = gen.ChainID
	a.baseContext = quorum.WithChainID(a.baseContext, gen.ChainID)
	a.logger.Info("chain initialized", "chain", gen.ChainID)
	return nil
}

// BeginBlock starts a new block. Height must follow the last committed
// block.
func (a *Application) BeginBlock(height int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chainID == "" {
		return errors.Wrap(errors.ErrState, "chain not initialized")
	}
	if a.height != 0 {
		return errors.Wrapf(errors.ErrState, "block %d not committed", a.height)
	}
	if height != a.committed+1 {
		return errors.Wrapf(errors.ErrState, "want height %d, got %d", a.committed+1, height)
	}
	a.height = height
	return nil
}

// CheckTx validates a transaction against the check state, as it would be
// seen by the next block. Successful checks are kept in the check state
// until the next commit, so that sequences of dependent transactions can
// be checked.
func (a *Application) CheckTx(txBytes []byte) (res *quorum.CheckResult, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.chainID == "" {
		return nil, errors.Wrap(errors.ErrState, "chain not initialized")
	}
	tx, err := a.loadTx(txBytes)
	if err != nil {
		return nil, err
	}
	ctx := a.context(a.committed+1, "call", "check_tx", "path", quorum.GetPath(tx))

	cache := a.store.CheckStore().CacheWrap()
	res, err = a.check(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "write check cache")
	}
	return res, nil
}

func (a *Application) check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (_ *quorum.CheckResult, err error) {
	defer errors.Recover(&err)
	return a.stack.Handler.Check(ctx, db, tx)
}

// DeliverTx executes a transaction in the current block. On success the
// state changes and the emitted events are written to the block state.
// Events reach subscribers when the block is committed.
func (a *Application) DeliverTx(txBytes []byte) (*quorum.DeliverResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.height == 0 {
		return nil, errors.Wrap(errors.ErrState, "no block in progress")
	}
	tx, err := a.loadTx(txBytes)
	if err != nil {
		a.metrics.txFailed(err)
		return nil, err
	}
	path := quorum.GetPath(tx)
	ctx := a.context(a.height, "call", "deliver_tx", "path", path)

	cache := a.store.DeliverStore().CacheWrap()
	res, err := a.deliver(ctx, cache, tx)
	if err != nil {
		cache.Discard()
		a.metrics.txFailed(err)
		return nil, err
	}
	records, err := a.events.Append(cache, a.height, path, res.Events)
	if err != nil {
		cache.Discard()
		a.metrics.txFailed(err)
		return nil, errors.Wrap(err, "event log")
	}
	if err := cache.Write(); err != nil {
		a.metrics.txFailed(err)
		return nil, errors.Wrap(err, "write deliver cache")
	}
	a.metrics.txDelivered()
	a.unpublished = append(a.unpublished, records...)
	return res, nil
}

func (a *Application) deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (_ *quorum.DeliverResult, err error) {
	defer errors.Recover(&err)
	res, err := a.stack.Handler.Deliver(ctx, db, tx)
	if err == nil && res == nil {
		res = &quorum.DeliverResult{}
	}
	return res, err
}

// loadTx calls the decoder, and capture any panics
func (a *Application) loadTx(txBytes []byte) (tx quorum.Tx, err error) {
	defer errors.Recover(&err)
	return a.stack.Decoder(txBytes)
}

// Commit persists the current block, or the genesis state when called
// right after InitChain. Events of the block are published to subscribers
// only after the store commit succeeded.
func (a *Application) Commit() (quorum.CommitID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, err := a.store.Commit()
	if err != nil {
		return id, err
	}
	a.committed = id.Version
	a.height = 0
	a.metrics.committed(id.Version)
	a.logger.Debug("commit", "height", id.Version, "hash", id.Hash)

	if len(a.unpublished) > 0 {
		a.metrics.eventsDropped(a.feed.publish(a.unpublished))
		a.unpublished = nil
	}
	return id, nil
}

// Query runs the query handler registered for path against the last
// committed state.
func (a *Application) Query(path string, data []byte) (interface{}, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h := a.stack.Queries.Handler(path)
	if h == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no query handler for %q", path)
	}
	return h.Query(a.store.CommittedStore(), data)
}

// QueryPaths lists all registered query paths.
func (a *Application) QueryPaths() []string {
	return a.stack.Queries.Paths()
}

// Events returns committed event records with a sequence greater than
// after, at most limit of them.
func (a *Application) Events(after int64, limit int) ([]EventRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.events.Since(a.store.CommittedStore(), after, limit)
}

// Subscribe returns a channel receiving every event emitted by a
// successfully delivered transaction. Events are published once their
// block was committed. The channel is closed by
// calling cancel or Close.
func (a *Application) Subscribe(buffer int) (<-chan EventRecord, func()) {
	return a.feed.subscribe(buffer)
}

// Close releases all subscribers.
func (a *Application) Close() {
	a.feed.close()
}
