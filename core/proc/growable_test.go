package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowable(t *testing.T) {
	g := newGrowable[string](2)
	assert.Equal(t, 2, g.Cap())

	for i, v := range []string{"a", "b", "c", "d", "e"} {
		idx, err := g.Append(v)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}

	assert.Equal(t, 5, g.Len())
	assert.Equal(t, 8, g.Cap())

	got, ok := g.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "c", got)

	_, ok = g.Get(5)
	assert.False(t, ok)
	_, ok = g.Get(-1)
	assert.False(t, ok)
}

func TestGrowable_minimumCapacity(t *testing.T) {
	g := newGrowable[int](0)
	assert.Equal(t, 1, g.Cap())

	_, err := g.Append(1)
	require.NoError(t, err)
	_, err = g.Append(2)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Cap())
}
