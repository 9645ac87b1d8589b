package calendar

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Key identifies a memoized trading-day range. Both ends are midnight UTC.
type Key struct {
	Start time.Time
	End   time.Time
}

func (k Key) String() string {
	return k.Start.Format(time.DateOnly) + ".." + k.End.Format(time.DateOnly)
}

// Store is the backing store of the trading-day memo.
type Store interface {
	Get(key Key) ([]time.Time, bool)
	Set(key Key, days []time.Time)
	Flush()
}

// MapStore keeps entries for the lifetime of the process.
type MapStore struct {
	mu      sync.RWMutex
	entries map[Key][]time.Time
}

// NewMapStore returns an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{entries: make(map[Key][]time.Time)}
}

// Get implements Store.
func (m *MapStore) Get(key Key) ([]time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	days, ok := m.entries[key]
	return days, ok
}

// Set implements Store.
func (m *MapStore) Set(key Key, days []time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = days
}

// Flush implements Store.
func (m *MapStore) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[Key][]time.Time)
}

// ExpiringStore wraps go-cache so entries age out after ttl.
type ExpiringStore struct {
	cache *gocache.Cache
}

// NewExpiringStore builds an ExpiringStore. A non-positive ttl never expires.
func NewExpiringStore(ttl time.Duration) *ExpiringStore {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &ExpiringStore{cache: gocache.New(expiration, cleanup)}
}

// Get implements Store.
func (e *ExpiringStore) Get(key Key) ([]time.Time, bool) {
	v, ok := e.cache.Get(key.String())
	if !ok {
		return nil, false
	}
	days, ok := v.([]time.Time)
	return days, ok
}

// Set implements Store.
func (e *ExpiringStore) Set(key Key, days []time.Time) {
	e.cache.SetDefault(key.String(), days)
}

// Flush implements Store.
func (e *ExpiringStore) Flush() {
	e.cache.Flush()
}

var (
	_ Store = (*MapStore)(nil)
	_ Store = (*ExpiringStore)(nil)
)
