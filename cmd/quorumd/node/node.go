// Package node runs a single node quorum chain: it opens the store, builds
// the application and serves it over HTTP while a sequencer produces
// blocks.
package node

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/cmd/quorumd/config"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store/badgerdb"
	"github.com/iov-one/quorum/store/iavl"
	"github.com/iov-one/quorum/x/multisig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Node holds the running components.
type Node struct {
	cfg      *config.Config
	logger   log.Logger
	store    *iavl.CommitStore
	app      *app.Application
	seq      *Sequencer
	registry *prometheus.Registry
}

// New opens the store and initializes the chain from the genesis file if
// this is the first start.
func New(cfg *config.Config, logger log.Logger) (*Node, error) {
	var db *iavl.CommitStore
	switch cfg.Store {
	case config.StoreMemory:
		db = iavl.MockCommitStore()
	case config.StoreIAVL:
		var err error
		if db, err = iavl.NewCommitStore(cfg.DataDir(), "quorum"); err != nil {
			return nil, err
		}
	case config.StoreBadger:
		bdb, err := badgerdb.Open(filepath.Join(cfg.DataDir(), "quorum.badger"), logger)
		if err != nil {
			return nil, err
		}
		db = iavl.NewCommitStoreFromDB(bdb)
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown store %q", cfg.Store)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	stack := app.NewStack(app.StackOptions{
		Multisig: multisig.NewMetrics(reg),
		Logging:  true,
	})
	a, err := app.NewApplication(db, stack)
	if err != nil {
		db.Close()
		return nil, err
	}
	a = a.WithLogger(logger.With("module", "app")).
		WithMetrics(app.NewMetrics(reg)).
		WithDebug(cfg.Debug)

	n := &Node{
		cfg:      cfg,
		logger:   logger,
		store:    db,
		app:      a,
		seq:      NewSequencer(a, cfg.BlockInterval, logger.With("module", "sequencer")),
		registry: reg,
	}
	if err := n.initChain(); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

func (n *Node) initChain() error {
	if chainID := n.app.ChainID(); chainID != "" {
		if chainID != n.cfg.ChainID {
			return errors.Wrapf(errors.ErrState, "store holds chain %q, configured %q", chainID, n.cfg.ChainID)
		}
		n.logger.Info("state loaded", "chain", chainID, "height", n.app.Height())
		return nil
	}
	gen, err := app.LoadGenesis(n.cfg.GenesisPath())
	if err != nil {
		return err
	}
	if gen.ChainID != n.cfg.ChainID {
		return errors.Wrapf(errors.ErrState, "genesis is for chain %q, configured %q", gen.ChainID, n.cfg.ChainID)
	}
	if err := n.app.InitChain(gen); err != nil {
		return err
	}
	id, err := n.app.Commit()
	if err != nil {
		return err
	}
	n.logger.Info("genesis committed", "chain", gen.ChainID, "height", id.Version)
	return nil
}

// App returns the application run by the node.
func (n *Node) App() *app.Application {
	return n.app
}

// Sequencer returns the block producer of the node.
func (n *Node) Sequencer() *Sequencer {
	return n.seq
}

// Run serves the HTTP and metrics endpoints and produces blocks until the
// context is cancelled or a component fails.
func (n *Node) Run(ctx context.Context) error {
	api := &http.Server{
		Handler:           NewServer(n.app, n.seq, n.logger.With("module", "http")).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	servers := []*http.Server{api}
	listeners := []string{n.cfg.HTTPAddr}
	if n.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second})
		listeners = append(listeners, n.cfg.MetricsAddr)
	}

	listening := make([]net.Listener, len(servers))
	for i := range servers {
		ln, err := net.Listen("tcp", listeners[i])
		if err != nil {
			for _, l := range listening[:i] {
				l.Close()
			}
			return errors.Wrapf(errors.ErrInput, "listen %s: %s", listeners[i], err)
		}
		n.logger.Info("listening", "addr", ln.Addr().String())
		listening[i] = ln
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		srv, ln := srv, listening[i]
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "serve")
			}
			return nil
		})
	}
	sequencing := make(chan struct{})
	g.Go(func() error {
		defer close(sequencing)
		return n.seq.Run(gctx)
	})
	// Waiting requests are answered by the stopped sequencer before the
	// servers shut down.
	g.Go(func() error {
		<-gctx.Done()
		<-sequencing
		n.app.Close()
		n.shutdown(servers)
		return nil
	})
	if err := g.Wait(); err != nil {
		n.logger.Error("node failure", "err", err)
		return err
	}
	return nil
}

func (n *Node) shutdown(servers []*http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(ctx); err != nil {
			n.logger.Error("server shutdown", "err", err)
		}
	}
}

// Close releases the store.
func (n *Node) Close() {
	n.store.Close()
}
