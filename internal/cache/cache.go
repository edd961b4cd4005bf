// Package cache stores link-check results so repeated runs against the
// same campaign don't hammer the same URLs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/mailproof/mailproof/internal/model"
)

// Store is the interface the link validator checks before going to the
// network.
type Store interface {
	GetLink(url string) (model.LinkStatus, bool)
	SetLink(url string, st model.LinkStatus, ttl time.Duration) error
	Delete(url string) error
	Clear() error
}

// Key hashes a URL into a cache key. The version segment invalidates
// everything when the LinkStatus shape changes.
func Key(url string) string {
	h := sha256.Sum256([]byte(url))
	return "mailproof:v1:" + hex.EncodeToString(h[:])
}
