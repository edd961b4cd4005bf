package cache

import (
	"time"

	"github.com/mailproof/mailproof/internal/model"
)

// Layered checks memory first and falls back to disk, promoting disk
// hits into memory.
type Layered struct {
	memory Store
	disk   Store
}

func NewLayered(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *Layered {
	return &Layered{
		memory: NewMemory(memoryTTL, 10*time.Minute),
		disk:   NewDisk(diskDir, diskTTL),
	}
}

func (l *Layered) GetLink(url string) (model.LinkStatus, bool) {
	if st, ok := l.memory.GetLink(url); ok {
		return st, true
	}
	if st, ok := l.disk.GetLink(url); ok {
		_ = l.memory.SetLink(url, st, 0)
		return st, true
	}
	return model.LinkStatus{}, false
}

func (l *Layered) SetLink(url string, st model.LinkStatus, ttl time.Duration) error {
	if err := l.memory.SetLink(url, st, ttl); err != nil {
		return err
	}
	return l.disk.SetLink(url, st, ttl)
}

func (l *Layered) Delete(url string) error {
	_ = l.memory.Delete(url)
	return l.disk.Delete(url)
}

func (l *Layered) Clear() error {
	_ = l.memory.Clear()
	return l.disk.Clear()
}
