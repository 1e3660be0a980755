package alphavantage

import (
	"strings"
	"sync"
)

// KeyRing rotates through a set of API keys. The free Alpha Vantage tier
// throttles per key, so the client advances to the next key whenever a
// response carries a rate-limit notice. Keys are injected by the caller;
// the ring never reads the environment.
type KeyRing struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewKeyRing creates a key ring from the given keys, dropping blanks.
func NewKeyRing(keys ...string) *KeyRing {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	return &KeyRing{keys: cleaned}
}

// Current returns the active key, or an empty string when the ring is empty.
func (r *KeyRing) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return ""
	}
	return r.keys[r.idx]
}

// Rotate advances to the next key and returns it.
func (r *KeyRing) Rotate() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.keys) == 0 {
		return ""
	}
	r.idx = (r.idx + 1) % len(r.keys)
	return r.keys[r.idx]
}

// Size returns the number of keys in the ring.
func (r *KeyRing) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}

// keyHint returns the last four characters of a key for log output.
func keyHint(key string) string {
	if len(key) <= 4 {
		return key
	}
	return "..." + key[len(key)-4:]
}
