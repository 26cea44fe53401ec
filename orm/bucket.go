/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of object.
* It has a primary index (which may be composite).
* Easy queries for one and iteration over a key prefix.

Models are serialized with go-amino, see Codec.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/quorum"
	"github.com/iov-one/quorum/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	quorum.Persistent
	Validate() error
}

// ModelBucket stores models of a single type under a common key prefix.
type ModelBucket struct {
	name   string
	prefix []byte
	seq    *Sequence
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *ModelBucket)

// WithIDSequence configures the bucket to use the given sequence when
// a model is stored without a key.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *ModelBucket) {
		mb.seq = &s
	}
}

// NewModelBucket returns a bucket that stores entities under name prefix.
func NewModelBucket(name string, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	mb := ModelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
	for _, fn := range opts {
		fn(&mb)
	}
	return mb
}

// Name returns the name of this bucket.
func (mb ModelBucket) Name() string {
	return mb.name
}

// DBKey is the full key used to store given primary key.
func (mb ModelBucket) DBKey(key []byte) []byte {
	return append(append([]byte(nil), mb.prefix...), key...)
}

// One query the database for a single model instance. Lookup is done by the
// primary index key. Result is loaded into given destination model.
// This method returns ErrNotFound if the entity does not exist in the
// database.
func (mb ModelBucket) One(db quorum.ReadOnlyKVStore, key []byte, dest Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrNotFound, "empty key")
	}
	raw, err := db.Get(mb.DBKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot get from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(errors.ErrSchema, "cannot unmarshal %T: %s", dest, err)
	}
	return nil
}

// Has returns true if an entity with given primary key exists.
func (mb ModelBucket) Has(db quorum.ReadOnlyKVStore, key []byte) (bool, error) {
	if len(key) == 0 {
		return false, nil
	}
	ok, err := db.Has(mb.DBKey(key))
	if err != nil {
		return false, errors.Wrap(err, "cannot check the database")
	}
	return ok, nil
}

// Put saves given model in the database. If key is nil and the bucket was
// configured with an ID sequence, the next sequence value is used. The key
// under which the model was stored is returned.
func (mb ModelBucket) Put(db quorum.KVStore, key []byte, m Model) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}
	if len(key) == 0 {
		if mb.seq == nil {
			return nil, errors.Wrap(errors.ErrHuman, "bucket has no id sequence and no key provided")
		}
		next, err := mb.seq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "next id")
		}
		key = next
	}
	raw, err := m.Marshal()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSchema, "cannot marshal %T: %s", m, err)
	}
	if err := db.Set(mb.DBKey(key), raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

// Delete removes an entity with given primary key from the database.
// It returns ErrNotFound if an entity with given key does not exist.
func (mb ModelBucket) Delete(db quorum.KVStore, key []byte) error {
	ok, err := mb.Has(db, key)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s key %X", mb.name, key)
	}
	return db.Delete(mb.DBKey(key))
}

// Keys returns all primary keys that start with given prefix in ascending
// order. A nil prefix returns all keys of the bucket.
func (mb ModelBucket) Keys(db quorum.ReadOnlyKVStore, prefix []byte) ([][]byte, error) {
	start := mb.DBKey(prefix)
	it, err := db.Iterator(start, PrefixEnd(start))
	if err != nil {
		return nil, errors.Wrap(err, "iterator")
	}
	defer it.Release()

	var keys [][]byte
	for {
		key, _, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return keys, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "iterator next")
		}
		keys = append(keys, append([]byte(nil), key[len(mb.prefix):]...))
	}
}

// Count returns the number of entities whose primary key starts with given
// prefix.
func (mb ModelBucket) Count(db quorum.ReadOnlyKVStore, prefix []byte) (int, error) {
	keys, err := mb.Keys(db, prefix)
	return len(keys), err
}

// PrefixEnd returns the smallest key that is greater than all keys starting
// with given prefix. It returns nil if no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
