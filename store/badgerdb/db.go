/*
Package badgerdb provides a badger backed key value database that can be
used underneath the iavl commit store in place of goleveldb.
*/
package badgerdb

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/iov-one/quorum/errors"
	dbm "github.com/tendermint/tendermint/libs/db"
	"github.com/tendermint/tendermint/libs/log"
)

// DB implements the tendermint database interface on top of badger.
type DB struct {
	db *badger.DB
}

var _ dbm.DB = (*DB)(nil)

// Open returns a database stored in dir, creating the directory if needed.
func Open(dir string, logger log.Logger) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "create %s: %s", dir, err)
	}
	opts := badger.DefaultOptions(dir).
		WithLogger(newLogger(logger)).
		WithLoggingLevel(badger.WARNING)
	return open(opts)
}

// OpenInMemory returns a database that is never written to disk.
func OpenInMemory(logger log.Logger) (*DB, error) {
	opts := badger.DefaultOptions("").
		WithLogger(newLogger(logger)).
		WithLoggingLevel(badger.WARNING).
		WithInMemory(true)
	return open(opts)
}

func open(opts badger.Options) (*DB, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open badger: %s", err)
	}
	return &DB{db: db}, nil
}

// Get returns nil if the key does not exist.
func (d *DB) Get(key []byte) []byte {
	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case err == nil:
		return value
	case err == badger.ErrKeyNotFound:
		return nil
	default:
		panic(errors.Wrapf(errors.ErrDatabase, "get: %s", err))
	}
}

func (d *DB) Has(key []byte) bool {
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	switch {
	case err == nil:
		return true
	case err == badger.ErrKeyNotFound:
		return false
	default:
		panic(errors.Wrapf(errors.ErrDatabase, "has: %s", err))
	}
}

func (d *DB) Set(key, value []byte) {
	d.update(func(txn *badger.Txn) error { return txn.Set(key, value) })
}

func (d *DB) SetSync(key, value []byte) {
	d.Set(key, value)
	d.sync()
}

func (d *DB) Delete(key []byte) {
	d.update(func(txn *badger.Txn) error { return txn.Delete(key) })
}

func (d *DB) DeleteSync(key []byte) {
	d.Delete(key)
	d.sync()
}

func (d *DB) update(fn func(*badger.Txn) error) {
	if err := d.db.Update(fn); err != nil {
		panic(errors.Wrapf(errors.ErrDatabase, "update: %s", err))
	}
}

func (d *DB) sync() {
	if err := d.db.Sync(); err != nil {
		panic(errors.Wrapf(errors.ErrDatabase, "sync: %s", err))
	}
}

// Close releases the database. It must not be used afterwards.
func (d *DB) Close() {
	if err := d.db.Close(); err != nil {
		panic(errors.Wrapf(errors.ErrDatabase, "close: %s", err))
	}
}

func (d *DB) Print() {
	it := d.Iterator(nil, nil)
	defer it.Close()
	for ; it.Valid(); it.Next() {
		fmt.Printf("[%X]:\t[%X]\n", it.Key(), it.Value())
	}
}

func (d *DB) Stats() map[string]string {
	lsm, vlog := d.db.Size()
	return map[string]string{
		"database.type": "badgerdb",
		"database.lsm":  strconv.FormatInt(lsm, 10),
		"database.vlog": strconv.FormatInt(vlog, 10),
	}
}

// NewBatch returns a batch that is applied in a single badger write batch
// on Write.
func (d *DB) NewBatch() dbm.Batch {
	return &batch{db: d}
}

type operation struct {
	key    []byte
	value  []byte
	delete bool
}

type batch struct {
	db  *DB
	ops []operation
}

func (b *batch) Set(key, value []byte) {
	b.ops = append(b.ops, operation{key: key, value: value})
}

func (b *batch) Delete(key []byte) {
	b.ops = append(b.ops, operation{key: key, delete: true})
}

func (b *batch) Write() {
	wb := b.db.db.NewWriteBatch()
	defer wb.Cancel()
	for _, op := range b.ops {
		var err error
		if op.delete {
			err = wb.Delete(op.key)
		} else {
			err = wb.Set(op.key, op.value)
		}
		if err != nil {
			panic(errors.Wrapf(errors.ErrDatabase, "batch: %s", err))
		}
	}
	if err := wb.Flush(); err != nil {
		panic(errors.Wrapf(errors.ErrDatabase, "batch flush: %s", err))
	}
	b.ops = nil
}

func (b *batch) WriteSync() {
	b.Write()
	b.db.sync()
}

func (b *batch) Close() {
	b.ops = nil
}

// Iterator over keys in [start, end). A nil start or end is unbounded.
func (d *DB) Iterator(start, end []byte) dbm.Iterator {
	return newIterator(d.db, start, end, false)
}

// ReverseIterator over keys in [start, end) in descending order.
func (d *DB) ReverseIterator(start, end []byte) dbm.Iterator {
	return newIterator(d.db, start, end, true)
}

type iterator struct {
	txn     *badger.Txn
	it      *badger.Iterator
	start   []byte
	end     []byte
	reverse bool
}

var _ dbm.Iterator = (*iterator)(nil)

func newIterator(db *badger.DB, start, end []byte, reverse bool) *iterator {
	txn := db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Reverse = reverse
	it := &iterator{
		txn:     txn,
		it:      txn.NewIterator(opts),
		start:   start,
		end:     end,
		reverse: reverse,
	}
	switch {
	case !reverse && start != nil:
		it.it.Seek(start)
	case reverse && end != nil:
		// Seek positions at the largest key not greater than end, which
		// is excluded from the domain.
		it.it.Seek(end)
		if it.it.Valid() && bytes.Equal(it.it.Item().Key(), end) {
			it.it.Next()
		}
	default:
		it.it.Rewind()
	}
	return it
}

func (i *iterator) Domain() ([]byte, []byte) {
	return i.start, i.end
}

func (i *iterator) Valid() bool {
	if !i.it.Valid() {
		return false
	}
	key := i.it.Item().Key()
	if i.reverse {
		return i.start == nil || bytes.Compare(key, i.start) >= 0
	}
	return i.end == nil || bytes.Compare(key, i.end) < 0
}

func (i *iterator) Next() {
	if !i.Valid() {
		panic("iterator is invalid")
	}
	i.it.Next()
}

func (i *iterator) Key() []byte {
	if !i.Valid() {
		panic("iterator is invalid")
	}
	return i.it.Item().KeyCopy(nil)
}

func (i *iterator) Value() []byte {
	if !i.Valid() {
		panic("iterator is invalid")
	}
	value, err := i.it.Item().ValueCopy(nil)
	if err != nil {
		panic(errors.Wrapf(errors.ErrDatabase, "iterator value: %s", err))
	}
	return value
}

func (i *iterator) Close() {
	i.it.Close()
	i.txn.Discard()
}
