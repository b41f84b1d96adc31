package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_GetSet(t *testing.T) {
	c, err := New[string]("test", 2)
	require.NoError(t, err)

	_, err = c.Get("missing")
	assert.True(t, errors.Is(err, ErrCacheMiss))

	c.Set("a", "alpha")
	got, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)
}

func TestResultCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New[int]("test", 2)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	assert.Equal(t, 2, c.Len())
	_, err = c.Get("b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get("a")
	assert.NoError(t, err)
}

func TestResultCache_DefaultSize(t *testing.T) {
	c, err := New[int]("test", 0)
	require.NoError(t, err)
	for i := 0; i < DefaultSize+10; i++ {
		c.Set(Key([]byte{byte(i), byte(i >> 8)}), i)
	}
	assert.Equal(t, DefaultSize, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key([]byte("a"), []byte("b")), Key([]byte("a"), []byte("b")))
	assert.NotEqual(t, Key([]byte("ab"), []byte("c")), Key([]byte("a"), []byte("bc")))
	assert.Len(t, Key([]byte("x")), 64)
}
