package cache

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/chronicle-ai/chronicle/pkg/types"
)

type entry struct {
	results   []types.ChunkSearchResult
	expiresAt int64
}

// SearchCache is a read-through cache for vector search results, keyed by
// a deterministic fingerprint of the query. Entries are checked for expiry
// lazily on read and never swept, so memory is bounded only by the number
// of distinct fingerprints seen within the TTL window.
type SearchCache struct {
	ttl     time.Duration
	entries cmap.ConcurrentMap[string, entry]
	now     func() time.Time
}

func NewSearchCache(ttl time.Duration) *SearchCache {
	return &SearchCache{
		ttl:     ttl,
		entries: cmap.New[entry](),
		now:     time.Now,
	}
}

// SetClock overrides the cache's time source, for tests.
func (c *SearchCache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *SearchCache) Get(key string) ([]types.ChunkSearchResult, bool) {
	e, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if e.expiresAt < c.now().UnixMilli() {
		c.entries.Remove(key)
		return nil, false
	}
	return e.results, true
}

func (c *SearchCache) Set(key string, results []types.ChunkSearchResult) {
	c.entries.Set(key, entry{
		results:   results,
		expiresAt: c.now().Add(c.ttl).UnixMilli(),
	})
}

// Fingerprint derives the cache key from the raw vector bytes plus topK
// and category, so equal queries always collide and unequal ones do not.
func Fingerprint(vector []float32, topK int, category string) string {
	buf := make([]byte, 0, 4*len(vector)+4+len(category))
	for _, v := range vector {
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(v))
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(topK))
	buf = append(buf, category...)
	return base64.StdEncoding.EncodeToString(buf)
}
