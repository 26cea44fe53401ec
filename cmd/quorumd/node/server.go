package node

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/iov-one/quorum/app"
	"github.com/iov-one/quorum/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// maxTxSize limits the body of a submitted transaction.
const maxTxSize = 64 * 1024

// Server exposes the node over HTTP.
//
//	POST /tx            submit a transaction, binary or amino JSON
//	GET  /query         ?path=/multisig/proposal&data=<hex>
//	GET  /events        ?after=<seq>&limit=<n>
//	GET  /events/ws     websocket stream of events after ?after=<seq>
//	GET  /status        chain id and height
type Server struct {
	app      *app.Application
	seq      *Sequencer
	logger   log.Logger
	upgrader websocket.Upgrader
}

// NewServer returns a server for given application and sequencer.
func NewServer(a *app.Application, seq *Sequencer, logger log.Logger) *Server {
	return &Server{
		app:    a,
		seq:    seq,
		logger: logger,
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tx", s.handleTx)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/events/ws", s.handleEventStream)
	mux.HandleFunc("/status", s.handleStatus)
	return mux
}

// errorResponse is returned with every failed request.
type errorResponse struct {
	Code uint32 `json:"code"`
	Log  string `json:"log"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code, msg := errors.ABCIInfo(err, s.app.Debug())
	status := http.StatusBadRequest
	switch {
	case errors.ErrNotFound.Is(err):
		status = http.StatusNotFound
	case errors.ErrUnauthorized.Is(err):
		status = http.StatusUnauthorized
	case errors.ErrPanic.Is(err), errors.ErrDatabase.Is(err):
		status = http.StatusInternalServerError
	}
	s.writeJSON(w, status, errorResponse{Code: code, Log: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("cannot write response", "err", err)
	}
}

func (s *Server) handleTx(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxTxSize+1))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrInput, err.Error()))
		return
	}
	if len(raw) > maxTxSize {
		s.writeError(w, errors.Wrap(errors.ErrInput, "transaction too big"))
		return
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		tx, err := app.DecodeTxJSON(raw)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if raw, err = tx.Marshal(); err != nil {
			s.writeError(w, errors.Wrap(errors.ErrInput, err.Error()))
			return
		}
	}

	done, err := s.seq.Submit(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	select {
	case res := <-done:
		status := http.StatusOK
		if res.Code != 0 {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, res)
	case <-r.Context().Done():
		s.writeJSON(w, http.StatusAccepted, struct {
			Queued bool `json:"queued"`
		}{Queued: true})
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path := q.Get("path")
	if path == "" {
		s.writeJSON(w, http.StatusOK, s.app.QueryPaths())
		return
	}
	data, err := hex.DecodeString(q.Get("data"))
	if err != nil {
		s.writeError(w, errors.Wrapf(errors.ErrInput, "data: %s", err))
		return
	}
	res, err := s.app.Query(path, data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func parseInt(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(errors.ErrInput, "%s: %q", name, v)
	}
	return n, nil
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	after, err := parseInt(r, "after")
	if err != nil {
		s.writeError(w, err)
		return
	}
	limit, err := parseInt(r, "limit")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if limit == 0 || limit > 1000 {
		limit = 1000
	}
	records, err := s.app.Events(after, int(limit))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []app.EventRecord{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleEventStream sends all logged events after the requested sequence
// followed by every new one, until the client disconnects.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	after, err := parseInt(r, "after")
	if err != nil {
		s.writeError(w, err)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	// Subscribe before reading the backlog so that nothing is missed.
	// Records already sent from the log are skipped by their sequence.
	events, cancel := s.app.Subscribe(256)
	defer cancel()

	backlog, err := s.app.Events(after, 0)
	if err != nil {
		s.logger.Error("event backlog", "err", err)
		return
	}
	for _, rec := range backlog {
		if err := conn.WriteJSON(rec); err != nil {
			return
		}
		after = rec.Seq
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case rec, ok := <-events:
			if !ok {
				return
			}
			if rec.Seq <= after {
				continue
			}
			if err := conn.WriteJSON(rec); err != nil {
				return
			}
			after = rec.Seq
		}
	}
}

// Status describes the state of the node.
type Status struct {
	ChainID string `json:"chain_id"`
	Height  int64  `json:"height"`
	Pending int    `json:"pending"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, Status{
		ChainID: s.app.ChainID(),
		Height:  s.app.Height(),
		Pending: s.seq.Pending(),
	})
}
