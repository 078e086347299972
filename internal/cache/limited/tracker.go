package limited

import (
	"sync"

	"goflare.io/broker/internal/models"
)

// Tracker remembers which page keys were stored for each kind so a kind
// can be invalidated without scanning the cache.
type Tracker struct {
	mu   sync.Mutex
	keys map[models.Kind]map[string]struct{}
}

// NewTracker creates a new Tracker instance.
func NewTracker() *Tracker {
	return &Tracker{keys: make(map[models.Kind]map[string]struct{})}
}

// Add adds a key to the tracker.
func (t *Tracker) Add(kind models.Kind, key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.keys[kind]
	if !ok {
		set = make(map[string]struct{})
		t.keys[kind] = set
	}
	set[key] = struct{}{}
}

// Take removes and returns every key tracked for kind.
func (t *Tracker) Take(kind models.Kind) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	set := t.keys[kind]
	delete(t.keys, kind)

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return keys
}

// Reset forgets every key.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.keys = make(map[models.Kind]map[string]struct{})
	t.mu.Unlock()
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, set := range t.keys {
		n += len(set)
	}
	return n
}
