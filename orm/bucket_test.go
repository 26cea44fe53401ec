package orm

import (
	"testing"

	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	amino "github.com/tendermint/go-amino"
)

var testCdc = amino.NewCodec()

type counter struct {
	Name  string
	Value int64
}

func (c *counter) Marshal() ([]byte, error) {
	return testCdc.MarshalBinaryBare(c)
}

func (c *counter) Unmarshal(raw []byte) error {
	return testCdc.UnmarshalBinaryBare(raw, c)
}

func (c *counter) Validate() error {
	if c.Name == "" {
		return errors.Wrap(errors.ErrEmpty, "name")
	}
	return nil
}

func TestModelBucketPutOne(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("counter", WithIDSequence(NewSequence("counter", "id")))

	k1, err := b.Put(db, nil, &counter{Name: "first", Value: 1})
	require.NoError(t, err)
	k2, err := b.Put(db, nil, &counter{Name: "second", Value: 2})
	require.NoError(t, err)
	assert.Equal(t, EncodeSequence(1), k1)
	assert.Equal(t, EncodeSequence(2), k2)

	var got counter
	require.NoError(t, b.One(db, k2, &got))
	assert.Equal(t, counter{Name: "second", Value: 2}, got)

	err = b.One(db, EncodeSequence(3), &got)
	assert.True(t, errors.ErrNotFound.Is(err), "got %+v", err)

	_, err = b.Put(db, nil, &counter{})
	assert.True(t, errors.ErrEmpty.Is(err), "got %+v", err)
}

func TestModelBucketWithoutSequence(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("named")

	_, err := b.Put(db, nil, &counter{Name: "x"})
	assert.True(t, errors.ErrHuman.Is(err), "got %+v", err)

	key, err := b.Put(db, []byte("x"), &counter{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), key)

	ok, err := b.Has(db, []byte("x"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, b.Delete(db, []byte("x")))
	err = b.Delete(db, []byte("x"))
	assert.True(t, errors.ErrNotFound.Is(err), "got %+v", err)
}

func TestModelBucketKeys(t *testing.T) {
	db := store.MemStore()
	a := NewModelBucket("alpha")
	b := NewModelBucket("alphab")

	for _, k := range []string{"p1:a", "p1:b", "p2:a"} {
		_, err := a.Put(db, []byte(k), &counter{Name: k})
		require.NoError(t, err)
	}
	// Similar prefix of another bucket must not leak into the results.
	_, err := b.Put(db, []byte("p1:c"), &counter{Name: "other"})
	require.NoError(t, err)

	keys, err := a.Keys(db, []byte("p1:"))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("p1:a"), []byte("p1:b")}, keys)

	n, err := a.Count(db, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPrefixEnd(t *testing.T) {
	cases := map[string]struct {
		prefix []byte
		want   []byte
	}{
		"simple":       {prefix: []byte{1, 2}, want: []byte{1, 3}},
		"carry":        {prefix: []byte{1, 0xFF}, want: []byte{2}},
		"all max":      {prefix: []byte{0xFF, 0xFF}, want: nil},
		"empty prefix": {prefix: nil, want: nil},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, PrefixEnd(tc.prefix))
		})
	}
}

func TestSequenceBasic(t *testing.T) {
	db := store.MemStore()
	s := NewSequence("seq", "id")

	latest, err := s.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), latest)

	for want := int64(1); want <= 3; want++ {
		got, err := s.NextInt(db)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	latest, err = s.Latest(db)
	require.NoError(t, err)
	assert.Equal(t, int64(3), latest)
}
