package align

import (
	"fmt"
	"sync"
	"time"

	"github.com/skyfoundry/mount-commander/core"
	"github.com/skyfoundry/mount-commander/internal/clock"
	"github.com/skyfoundry/mount-commander/model"
)

const defaultConditionsTTL = 5 * time.Minute

type conditionsEntry struct {
	cond    core.Conditions
	updated time.Time
}

// conditionsCache keeps recent sky conditions per observing site so repeated
// suggestion calls do not hammer the upstream provider. Entries expire after
// the TTL; owned by the advisor, never process-wide.
type conditionsCache struct {
	mu      sync.RWMutex
	entries map[string]conditionsEntry
	ttl     time.Duration
	clk     clock.Clock
	hits    int64
	misses  int64
}

func newConditionsCache(ttl time.Duration, clk clock.Clock) *conditionsCache {
	if ttl <= 0 {
		ttl = defaultConditionsTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &conditionsCache{
		entries: make(map[string]conditionsEntry),
		ttl:     ttl,
		clk:     clk,
	}
}

func (c *conditionsCache) get(loc model.GeoLocation) (core.Conditions, bool) {
	if c == nil {
		return core.Conditions{}, false
	}
	key := siteKey(loc)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.clk.Now().Sub(entry.updated) > c.ttl {
		c.recordMiss()
		return core.Conditions{}, false
	}
	c.recordHit()
	return entry.cond, true
}

func (c *conditionsCache) put(loc model.GeoLocation, cond core.Conditions) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[siteKey(loc)] = conditionsEntry{cond: cond, updated: c.clk.Now()}
	c.mu.Unlock()
}

func (c *conditionsCache) stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	c.mu.RLock()
	hits, misses = c.hits, c.misses
	c.mu.RUnlock()
	return
}

func (c *conditionsCache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *conditionsCache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

// siteKey quantizes a location to a tenth of a degree; conditions do not vary
// meaningfully below that.
func siteKey(loc model.GeoLocation) string {
	return fmt.Sprintf("%.1f,%.1f", loc.LatitudeDegrees, loc.LongitudeDegrees)
}
