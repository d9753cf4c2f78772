package announce

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialTwoCycles(t *testing.T) {
	const n = 5
	sel := NewSelector(Sequential, nil)
	var got []int
	for i := 0; i < 2*n; i++ {
		idx, ok := sel.Next(n)
		require.True(t, ok)
		got = append(got, idx)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 0, 1, 2, 3, 4}, got)
}

func TestSequentialEmpty(t *testing.T) {
	sel := NewSelector(Sequential, nil)
	_, ok := sel.Next(0)
	assert.False(t, ok)
	assert.Equal(t, -1, sel.Last())
}

func TestSequentialShrinkingStore(t *testing.T) {
	sel := NewSelector(Sequential, nil)
	for i := 0; i < 4; i++ {
		sel.Next(5)
	}
	require.Equal(t, 3, sel.Last())

	// Store shrank to 2 entries; the next pick must still be in range.
	idx, ok := sel.Next(2)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	idx, _ = sel.Next(2)
	assert.Equal(t, 1, idx)
}

func TestRandomCoverage(t *testing.T) {
	const n = 6
	const draws = 10000
	sel := NewSelector(Random, rand.New(rand.NewPCG(1, 2)))

	freq := make([]int, n)
	for i := 0; i < draws; i++ {
		idx, ok := sel.Next(n)
		require.True(t, ok)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, n)
		freq[idx]++
	}
	expected := draws / n
	for i, f := range freq {
		assert.Greater(t, f, expected/2, "index %d underrepresented", i)
	}
}

func TestModeSwitchContinuesFromLastPick(t *testing.T) {
	sel := NewSelector(Random, rand.New(rand.NewPCG(7, 7)))
	idx, _ := sel.Next(4)
	sel.SetMode(Sequential)
	next, _ := sel.Next(4)
	assert.Equal(t, (idx+1)%4, next)
}

func TestParseMode(t *testing.T) {
	m, ok := ParseMode("RANDOM")
	assert.True(t, ok)
	assert.Equal(t, Random, m)
	_, ok = ParseMode("shuffle")
	assert.False(t, ok)
	assert.Equal(t, "sequential", ModeOf(false).String())
}
