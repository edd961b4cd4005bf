package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mailproof/mailproof/internal/model"
)

// Memory keeps link results in process memory. Values are stored as
// structs, not bytes, so hits skip a round of JSON.
type Memory struct {
	c *gocache.Cache
}

func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *Memory) GetLink(url string) (model.LinkStatus, bool) {
	if v, ok := m.c.Get(Key(url)); ok {
		if st, ok := v.(model.LinkStatus); ok {
			return st, true
		}
	}
	return model.LinkStatus{}, false
}

func (m *Memory) SetLink(url string, st model.LinkStatus, ttl time.Duration) error {
	m.c.Set(Key(url), st, ttl)
	return nil
}

func (m *Memory) Delete(url string) error {
	m.c.Delete(Key(url))
	return nil
}

func (m *Memory) Clear() error {
	m.c.Flush()
	return nil
}
