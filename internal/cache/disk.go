package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mailproof/mailproof/internal/model"
)

// Disk persists link results across runs under one file per URL.
type Disk struct {
	dir string
	ttl time.Duration
}

func NewDisk(dir string, ttl time.Duration) *Disk {
	return &Disk{dir: dir, ttl: ttl}
}

type diskEntry struct {
	Status    model.LinkStatus `json:"status"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func (d *Disk) GetLink(url string) (model.LinkStatus, bool) {
	data, err := os.ReadFile(d.path(url))
	if err != nil {
		return model.LinkStatus{}, false
	}
	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return model.LinkStatus{}, false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(d.path(url))
		return model.LinkStatus{}, false
	}
	return entry.Status, true
}

func (d *Disk) SetLink(url string, st model.LinkStatus, ttl time.Duration) error {
	if ttl == 0 {
		ttl = d.ttl
	}
	entry := diskEntry{Status: st, ExpiresAt: time.Now().Add(ttl)}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(d.path(url), data, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func (d *Disk) Delete(url string) error {
	return os.Remove(d.path(url))
}

func (d *Disk) Clear() error {
	return os.RemoveAll(d.dir)
}

func (d *Disk) path(url string) string {
	return filepath.Join(d.dir, Key(url)+".json")
}
