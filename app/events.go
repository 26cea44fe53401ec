package app

import (
	"sync"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/orm"
	"github.com/tendermint/tendermint/libs/common"
)

// EventRecord is an event stored in the event log together with the
// block and message that emitted it.
type EventRecord struct {
	Seq        int64            `json:"seq"`
	Height     int64            `json:"height"`
	Path       string           `json:"path"`
	Type       string           `json:"type"`
	Attributes []EventAttribute `json:"attributes"`
}

// EventAttribute is a single key value pair of an event.
type EventAttribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var _ orm.Model = (*EventRecord)(nil)

func (r *EventRecord) Validate() error {
	if r.Seq <= 0 {
		return errors.Wrap(errors.ErrInput, "sequence")
	}
	if r.Height <= 0 {
		return errors.Wrap(errors.ErrInput, "height")
	}
	if r.Type == "" {
		return errors.Wrap(errors.ErrEmpty, "type")
	}
	return nil
}

func (r *EventRecord) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(r)
}

func (r *EventRecord) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, r)
}

// Event returns the recorded event.
func (r *EventRecord) Event() quorum.Event {
	ev := quorum.Event{Type: r.Type}
	for _, a := range r.Attributes {
		ev.Attributes = append(ev.Attributes, common.KVPair{Key: []byte(a.Key), Value: []byte(a.Value)})
	}
	return ev
}

const eventBucket = "_events"

// EventLog is the append only, persisted list of all events emitted by
// delivered transactions. Records are keyed by a sequence that starts at 1.
type EventLog struct {
	bucket orm.ModelBucket
	seq    orm.Sequence
}

// NewEventLog returns the event log stored in the "_events" bucket.
func NewEventLog() EventLog {
	return EventLog{
		bucket: orm.NewModelBucket(eventBucket),
		seq:    orm.NewSequence(eventBucket, "id"),
	}
}

// Append stores all events in order. It must be called with the same store
// the transaction was delivered with so that records are discarded together
// with a failed transaction.
func (l EventLog) Append(db quorum.KVStore, height int64, path string, events []quorum.Event) ([]EventRecord, error) {
	records := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		seq, err := l.seq.NextInt(db)
		if err != nil {
			return nil, errors.Wrap(err, "event sequence")
		}
		rec := EventRecord{
			Seq:    seq,
			Height: height,
			Path:   path,
			Type:   ev.Type,
		}
		for _, a := range ev.Attributes {
			rec.Attributes = append(rec.Attributes, EventAttribute{Key: string(a.Key), Value: string(a.Value)})
		}
		if _, err := l.bucket.Put(db, orm.EncodeSequence(seq), &rec); err != nil {
			return nil, errors.Wrapf(err, "event %d", seq)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Since returns up to limit records with a sequence greater than after.
// A non positive limit returns all of them.
func (l EventLog) Since(db quorum.ReadOnlyKVStore, after int64, limit int) ([]EventRecord, error) {
	if after < 0 {
		after = 0
	}
	start := l.bucket.DBKey(orm.EncodeSequence(after + 1))
	it, err := db.Iterator(start, orm.PrefixEnd(l.bucket.DBKey(nil)))
	if err != nil {
		return nil, errors.Wrap(err, "iterator")
	}
	defer it.Release()

	var records []EventRecord
	for limit <= 0 || len(records) < limit {
		_, raw, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "iterator next")
		}
		var rec EventRecord
		if err := rec.Unmarshal(raw); err != nil {
			return nil, errors.Wrap(errors.ErrSchema, err.Error())
		}
		records = append(records, rec)
	}
	return records, nil
}

// Latest returns the sequence of the last stored record, or 0.
func (l EventLog) Latest(db quorum.ReadOnlyKVStore) (int64, error) {
	return l.seq.Latest(db)
}

// feed fans out published records to subscribers. Slow subscribers miss
// records, which can be read back from the EventLog.
type feed struct {
	mu   sync.Mutex
	next int
	subs map[int]chan EventRecord
}

func (f *feed) subscribe(buffer int) (<-chan EventRecord, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]chan EventRecord)
	}
	id := f.next
	f.next++
	c := make(chan EventRecord, buffer)
	f.subs[id] = c

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
	return c, cancel
}

// publish returns the number of deliveries that were dropped.
func (f *feed) publish(records []EventRecord) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var dropped int
	for _, rec := range records {
		for _, c := range f.subs {
			select {
			case c <- rec:
			default:
				dropped++
			}
		}
	}
	return dropped
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.subs {
		delete(f.subs, id)
		close(c)
	}
}
