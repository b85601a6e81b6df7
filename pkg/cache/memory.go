package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const defaultMemoryTTL = 24 * time.Hour

type memoryEntry struct {
	key      string
	data     []byte
	expireAt time.Time
}

// MemoryCache implements Service in process with LRU eviction.
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its expiry sweeper.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: cfg.MaxSize,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go mc.sweep(cfg.CleanupInterval)
	}
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = defaultMemoryTTL
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.put(key, data, mc.now().Add(expiration))
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	e, ok := mc.lookup(key)
	var data []byte
	if ok {
		data = e.data
	}
	mc.mu.Unlock()

	if !ok {
		return ErrCacheMiss
	}
	return decode(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if el, ok := mc.items[key]; ok {
			mc.remove(el)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, key := range keys {
		if _, ok := mc.lookup(key); ok {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if _, ok := mc.lookup(key); ok {
		return false, nil
	}
	mc.put(key, []byte("locked"), mc.now().Add(ttl))
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.order.Len()
}

// Close stops the sweeper.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() { close(mc.stop) })
	return nil
}

// lookup returns a live entry and marks it recently used. Caller holds mu.
func (mc *MemoryCache) lookup(key string) (*memoryEntry, bool) {
	el, ok := mc.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*memoryEntry)
	if !mc.now().Before(e.expireAt) {
		mc.remove(el)
		return nil, false
	}
	mc.order.MoveToFront(el)
	return e, true
}

func (mc *MemoryCache) put(key string, data []byte, expireAt time.Time) {
	if el, ok := mc.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.data, e.expireAt = data, expireAt
		mc.order.MoveToFront(el)
		return
	}
	for mc.maxSize > 0 && mc.order.Len() >= mc.maxSize {
		mc.remove(mc.order.Back())
	}
	mc.items[key] = mc.order.PushFront(&memoryEntry{key: key, data: data, expireAt: expireAt})
}

func (mc *MemoryCache) remove(el *list.Element) {
	mc.order.Remove(el)
	delete(mc.items, el.Value.(*memoryEntry).key)
}

func (mc *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.mu.Lock()
			now := mc.now()
			for el := mc.order.Back(); el != nil; {
				prev := el.Prev()
				if !now.Before(el.Value.(*memoryEntry).expireAt) {
					mc.remove(el)
				}
				el = prev
			}
			mc.mu.Unlock()
		}
	}
}
