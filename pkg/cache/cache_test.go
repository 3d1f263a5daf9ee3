package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicle-ai/chronicle/pkg/types"
)

func TestSearchCacheHit(t *testing.T) {
	c := NewSearchCache(time.Minute)
	results := []types.ChunkSearchResult{{ID: "c1", ChunkIndex: 0, Similarity: 0.9}}

	key := Fingerprint([]float32{0.1, 0.2}, 5, "history")
	c.Set(key, results)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, results, got)
}

func TestSearchCacheExpiry(t *testing.T) {
	c := NewSearchCache(time.Minute)

	now := time.Unix(1000, 0)
	c.SetClock(func() time.Time { return now })

	key := Fingerprint([]float32{0.5}, 3, "")
	c.Set(key, []types.ChunkSearchResult{{ID: "c1"}})

	now = now.Add(59 * time.Second)
	_, ok := c.Get(key)
	assert.True(t, ok, "entry should survive inside the TTL window")

	now = now.Add(2 * time.Second)
	_, ok = c.Get(key)
	assert.False(t, ok, "entry should lazily expire past the TTL")

	// expired entries are removed on read
	_, stillThere := c.entries.Get(key)
	assert.False(t, stillThere)
}

func TestFingerprintDiscriminates(t *testing.T) {
	base := Fingerprint([]float32{0.1, 0.2}, 5, "history")

	assert.Equal(t, base, Fingerprint([]float32{0.1, 0.2}, 5, "history"))
	assert.NotEqual(t, base, Fingerprint([]float32{0.2, 0.1}, 5, "history"))
	assert.NotEqual(t, base, Fingerprint([]float32{0.1, 0.2}, 6, "history"))
	assert.NotEqual(t, base, Fingerprint([]float32{0.1, 0.2}, 5, "fiction"))
}
