package quorumtest

import "github.com/iov-one/quorum"

// Handler is a mock implementing quorum.Handler. It returns the configured
// results and counts every call. When Key is set, the handler writes Key
// and Value to the store before returning, so that tests can observe if
// the state change was persisted.
type Handler struct {
	Key   []byte
	Value []byte

	checkCall   int
	CheckResult quorum.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult quorum.DeliverResult
	DeliverErr    error
	// DeliverPanic if set is used as the panic value of Deliver.
	DeliverPanic interface{}
}

var _ quorum.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.CheckResult, error) {
	h.checkCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	res := h.CheckResult
	return &res, h.CheckErr
}

func (h *Handler) Deliver(ctx quorum.Context, db quorum.KVStore, tx quorum.Tx) (*quorum.DeliverResult, error) {
	h.deliverCall++
	if err := h.write(db); err != nil {
		return nil, err
	}
	if h.DeliverPanic != nil {
		panic(h.DeliverPanic)
	}
	res := h.DeliverResult
	return &res, h.DeliverErr
}

func (h *Handler) write(db quorum.KVStore) error {
	if h.Key == nil {
		return nil
	}
	return db.Set(h.Key, h.Value)
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
