package store

import "github.com/iov-one/quorum"

// Move references for all storage types into this package
// for shorter names everywhere

type (
	ReadOnlyKVStore  = quorum.ReadOnlyKVStore
	KVStore          = quorum.KVStore
	SetDeleter       = quorum.SetDeleter
	Iterator         = quorum.Iterator
	Batch            = quorum.Batch
	CacheableKVStore = quorum.CacheableKVStore
	KVCacheWrap      = quorum.KVCacheWrap
	CommitKVStore    = quorum.CommitKVStore
	CommitID         = quorum.CommitID
)

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}
