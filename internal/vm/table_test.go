package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestInterner returns a fresh heap and interner pair for table tests
func newTestInterner(t *testing.T) (*Heap, *Table) {
	t.Helper()
	heap := &Heap{}
	interner := &Table{}
	t.Cleanup(func() {
		heap.Free()
		interner.Free()
	})
	return heap, interner
}

func TestTableRoundTrip(t *testing.T) {
	heap, interner := newTestInterner(t)
	var table Table
	defer table.Free()

	key := copyString(heap, interner, []byte("bagel"))

	assert.True(t, table.Set(key, NumberVal(420)), "first set should report a new key")
	assert.False(t, table.Set(key, NumberVal(69)), "second set should report an overwrite")

	got, ok := table.Get(key)
	require.True(t, ok)
	assert.Equal(t, NumberVal(69), got)

	assert.True(t, table.Delete(key))
	assert.False(t, table.Delete(key), "deleting a missing key should report false")

	_, ok = table.Get(key)
	assert.False(t, ok, "deleted key should not be found")
}

func TestTableSetAfterDelete(t *testing.T) {
	heap, interner := newTestInterner(t)
	var table Table
	defer table.Free()

	key := copyString(heap, interner, []byte("bagel"))

	require.True(t, table.Set(key, NumberVal(1)))
	require.True(t, table.Delete(key))

	// The key is gone, so setting it again creates a new entry (reusing
	// the tombstone slot)
	assert.True(t, table.Set(key, NumberVal(2)))

	got, ok := table.Get(key)
	require.True(t, ok)
	assert.Equal(t, NumberVal(2), got)
}

func TestTableGrowth(t *testing.T) {
	heap, interner := newTestInterner(t)
	var table Table
	defer table.Free()

	keys := make([]*ObjString, 0, 100)
	for i := 0; i < 100; i++ {
		key := copyString(heap, interner, []byte(fmt.Sprintf("key-%d", i)))
		keys = append(keys, key)
		require.True(t, table.Set(key, NumberVal(float64(i))), "key-%d should be new", i)
	}

	assert.Equal(t, 100, table.Len())

	for i, key := range keys {
		got, ok := table.Get(key)
		require.True(t, ok, "key-%d should survive growth", i)
		assert.Equal(t, NumberVal(float64(i)), got)
	}
}

func TestTableTombstonesKeepProbeChainsIntact(t *testing.T) {
	heap, interner := newTestInterner(t)
	var table Table
	defer table.Free()

	keys := make([]*ObjString, 0, 32)
	for i := 0; i < 32; i++ {
		key := copyString(heap, interner, []byte(fmt.Sprintf("k%d", i)))
		keys = append(keys, key)
		table.Set(key, NumberVal(float64(i)))
	}

	// Delete every other key, then verify the survivors are still
	// reachable through any tombstoned slots
	for i := 0; i < 32; i += 2 {
		require.True(t, table.Delete(keys[i]))
	}
	for i := 1; i < 32; i += 2 {
		got, ok := table.Get(keys[i])
		require.True(t, ok, "k%d should still be reachable", i)
		assert.Equal(t, NumberVal(float64(i)), got)
	}
	for i := 0; i < 32; i += 2 {
		_, ok := table.Get(keys[i])
		assert.False(t, ok, "k%d was deleted", i)
	}

	assert.Equal(t, 16, table.Len())
}

func TestInterningReusesStrings(t *testing.T) {
	heap, interner := newTestInterner(t)

	a := copyString(heap, interner, []byte("hello"))
	b := copyString(heap, interner, []byte("hello"))
	c := copyString(heap, interner, []byte("world"))

	assert.Same(t, a, b, "byte-identical strings should intern to one object")
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, interner.Len())
}

func TestFindString(t *testing.T) {
	heap, interner := newTestInterner(t)

	s := copyString(heap, interner, []byte("needle"))

	found := interner.FindString([]byte("needle"), hashBytes([]byte("needle")))
	assert.Same(t, s, found)

	missing := interner.FindString([]byte("haystack"), hashBytes([]byte("haystack")))
	assert.Nil(t, missing)
}

func TestHeapTeardown(t *testing.T) {
	heap := &Heap{}
	interner := &Table{}

	copyString(heap, interner, []byte("one"))
	copyString(heap, interner, []byte("two"))
	newFunction(heap)

	assert.Equal(t, 3, heap.Len())

	heap.Free()
	interner.Free()
	assert.Equal(t, 0, heap.Len())
}
