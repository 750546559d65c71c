package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheExpiry(t *testing.T) {
	c, err := NewCache[uint](4, time.Minute)
	require.NoError(t, err)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("token", 7)
	v, ok := c.Get("token")
	assert.True(t, ok)
	assert.Equal(t, uint(7), v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("token")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewCache[string](2, time.Hour)
	require.NoError(t, err)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}
