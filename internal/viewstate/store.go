// Package viewstate holds the collections displayed by one view activation.
package viewstate

import (
	"log/slog"
	"sync"

	"github.com/ashureev/hms-console/internal/domain"
)

// PatchRecord returns a new collection identical to c except that the record
// keyed key has field set to value. All other elements are the same pointers.
// If no record matches, c is returned unchanged and matched is false.
func PatchRecord(c domain.Collection, key, field string, value any) (out domain.Collection, matched bool, err error) {
	rec, idx := c.Find(key)
	if rec == nil {
		return c, false, nil
	}

	patched, err := rec.With(field, value)
	if err != nil {
		return c, false, err
	}

	out = make(domain.Collection, len(c))
	copy(out, c)
	out[idx] = patched
	return out, true, nil
}

// Store holds one collection per name for a single view activation.
// Writes replace whole slot values; readers never see a partially built
// collection.
type Store struct {
	mu      sync.RWMutex
	slots   map[domain.CollectionName]domain.Collection
	version uint64
	logger  *slog.Logger
}

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		slots:  make(map[domain.CollectionName]domain.Collection),
		logger: logger,
	}
}

// Replace overwrites the named slot.
func (s *Store) Replace(name domain.CollectionName, c domain.Collection) {
	if c == nil {
		c = domain.Collection{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = c
	s.version++
}

// Get returns the current collection for name (empty if never filled).
func (s *Store) Get(name domain.CollectionName) domain.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.slots[name]; ok {
		return c
	}
	return domain.Collection{}
}

// Patch applies PatchRecord to the slot's current value. It reports whether
// a record matched. A missing key is not an error.
func (s *Store) Patch(name domain.CollectionName, key, field string, value any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.slots[name]
	next, matched, err := PatchRecord(current, key, field, value)
	if err != nil {
		return false, err
	}
	if !matched {
		s.logger.Debug("Patch target not in collection", "collection", name, "key", key)
		return false, nil
	}
	s.slots[name] = next
	s.version++
	return true, nil
}

// Snapshot returns the current slot values.
func (s *Store) Snapshot() map[domain.CollectionName]domain.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.CollectionName]domain.Collection, len(s.slots))
	for k, v := range s.slots {
		out[k] = v
	}
	return out
}

// Version increments on every successful write.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
