package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const memorySize = 4096

// Memory is an in-process Store. The LRU has one TTL for every entry, so callers asking
// for a different ttl get their own LRU.
type Memory struct {
	mu   sync.Mutex
	lrus map[time.Duration]*expirable.LRU[string, []byte]
}

func NewMemory() *Memory {
	return &Memory{lrus: map[time.Duration]*expirable.LRU[string, []byte]{}}
}

func (m *Memory) lru(ttl time.Duration) *expirable.LRU[string, []byte] {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lrus[ttl]
	if !ok {
		l = expirable.NewLRU[string, []byte](memorySize, nil, ttl)
		m.lrus[ttl] = l
	}
	return l
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	all := make([]*expirable.LRU[string, []byte], 0, len(m.lrus))
	for _, l := range m.lrus {
		all = append(all, l)
	}
	m.mu.Unlock()
	for _, l := range all {
		if v, ok := l.Get(key); ok {
			return v, nil
		}
	}
	return nil, ErrMiss
}

func (m *Memory) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	_ = m.Delete(ctx, key)
	m.lru(ttl).Add(key, append([]byte(nil), val...))
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lrus {
		for _, k := range keys {
			l.Remove(k)
		}
	}
	return nil
}

var _ Store = (*Memory)(nil)
