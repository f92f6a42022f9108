package naming

import (
	"fmt"
	"strings"
	"sync"
)

// CollisionResolver tracks synthesized names claimed by episodes and resolves
// duplicates by inserting " (N)" before the extension. The first claimant
// keeps the plain name. All methods are goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]int // name → episode index that owns it
	counters map[string]int // requested name → next counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]int),
		counters: make(map[string]int),
	}
}

// Resolve returns the final name for the episode at index. ext must be the
// suffix of requested that the counter goes in front of; pass "" when the
// name has no extension. The bool reports whether a suffix was added.
func (cr *CollisionResolver) Resolve(index int, requested, ext string) (string, bool) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	owner, exists := cr.owners[requested]
	if !exists || owner == index {
		cr.owners[requested] = index
		return requested, false
	}

	stem := strings.TrimSuffix(requested, ext)
	counter := cr.counters[requested]
	if counter == 0 {
		counter = 2
	}

	for {
		candidate := fmt.Sprintf("%s (%d)%s", stem, counter, ext)
		cOwner, cExists := cr.owners[candidate]
		if !cExists || cOwner == index {
			cr.counters[requested] = counter + 1
			cr.owners[candidate] = index
			return candidate, true
		}
		counter++
	}
}
