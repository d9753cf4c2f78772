package announce

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetRemove(t *testing.T) {
	s := NewStore([]string{"A", "B", "C"})
	for i, want := range []string{"A", "B", "C"} {
		got, err := s.Get(i + 1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	removed, err := s.Remove(2)
	require.NoError(t, err)
	assert.Equal(t, "B", removed)
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, []string{"A", "C"}, s.All())
}

func TestStoreOutOfRange(t *testing.T) {
	s := NewStore([]string{"A", "B"})
	for _, idx := range []int{-1, 0, 3, 100} {
		_, err := s.Get(idx)
		assert.ErrorIs(t, err, ErrOutOfRange, "get %d", idx)

		_, err = s.Remove(idx)
		assert.ErrorIs(t, err, ErrOutOfRange, "remove %d", idx)

		var oor *OutOfRangeError
		require.True(t, errors.As(err, &oor))
		assert.Equal(t, idx, oor.Index)
		assert.Equal(t, 2, oor.Size)
	}
	assert.Equal(t, []string{"A", "B"}, s.All())
}

func TestStoreAdd(t *testing.T) {
	s := NewStore(nil)
	assert.Equal(t, 1, s.Add("first"))
	assert.Equal(t, 2, s.Add("second"))
	got, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "second", got)
}

func TestStorePage(t *testing.T) {
	items := make([]string, 10)
	for i := range items {
		items[i] = fmt.Sprintf("m%d", i+1)
	}
	s := NewStore(items)

	p1 := s.Page(1, 7)
	require.Len(t, p1, 7)
	assert.Equal(t, Entry{Index: 1, Text: "m1"}, p1[0])

	p2 := s.Page(2, 7)
	require.Len(t, p2, 3)
	assert.Equal(t, []Entry{{8, "m8"}, {9, "m9"}, {10, "m10"}}, p2)

	assert.Empty(t, s.Page(3, 7))
	assert.Empty(t, s.Page(0, 7))
	assert.Len(t, s.Page(1, 0), 10)
	assert.Equal(t, 2, s.Pages(7))
	assert.Equal(t, 1, NewStore(nil).Pages(7))
}

func TestStoreCopiesInput(t *testing.T) {
	in := []string{"A"}
	s := NewStore(in)
	in[0] = "mutated"
	got, _ := s.Get(1)
	assert.Equal(t, "A", got)
}
