// internal/core/collection/store.go

// Package collection implements the persisted collection store backing
// the shopping cart and the product comparator. A store is an ordered,
// de-duplicated sequence of entries bound to one browsing session,
// hydrated once from durable storage and mirrored back on every
// mutation. The in-memory state is authoritative for the session:
// persistence failures are logged and swallowed, never surfaced.
package collection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kkzakaria/boom-informatique-sub001/internal/core/ports"
)

// Entry is an element of a persisted collection, identified by a stable
// product id.
type Entry interface {
	Key() int64
}

// Store holds the generic mechanics shared by the cart and comparator:
// ordering, de-duplication, hydration and snapshot persistence.
type Store[E Entry] struct {
	key      string
	ttl      time.Duration
	kv       ports.KeyValueStore
	logger   *slog.Logger
	entries  []E
	hydrated bool
}

// NewStore creates an empty, unhydrated store persisted under key.
func NewStore[E Entry](key string, ttl time.Duration, kv ports.KeyValueStore, logger *slog.Logger) *Store[E] {
	return &Store[E]{
		key:    key,
		ttl:    ttl,
		kv:     kv,
		logger: logger.With(slog.String("component", "collection"), slog.String("key", key)),
	}
}

// Hydrate reads the persisted snapshot into memory. It runs at most
// once; a missing key or an unavailable backing store both yield an
// empty collection without failing.
func (s *Store[E]) Hydrate(ctx context.Context) {
	if s.hydrated {
		return
	}
	s.hydrated = true

	var snapshot []E
	err := s.kv.Get(ctx, s.key, &snapshot)
	switch {
	case err == nil:
		s.entries = snapshot
	case errors.Is(err, ports.ErrCacheMiss):
		// First visit for this session.
	default:
		s.logger.WarnContext(ctx, "collection hydration failed, starting empty",
			slog.String("error", err.Error()))
	}
}

// Hydrated reports whether the durable snapshot has been read.
func (s *Store[E]) Hydrated() bool { return s.hydrated }

// Entries returns a copy of the collection in insertion order.
func (s *Store[E]) Entries() []E {
	out := make([]E, len(s.entries))
	copy(out, s.entries)
	return out
}

// Count returns the number of distinct entries.
func (s *Store[E]) Count() int { return len(s.entries) }

// IsEmpty reports whether the collection has no entries.
func (s *Store[E]) IsEmpty() bool { return len(s.entries) == 0 }

// Contains reports whether an entry with the given id is present.
func (s *Store[E]) Contains(id int64) bool { return s.indexOf(id) >= 0 }

// Get returns the entry with the given id, if present.
func (s *Store[E]) Get(id int64) (E, bool) {
	var zero E
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], true
	}
	return zero, false
}

// Append adds a new entry at the end and persists. The caller must have
// verified the id is absent.
func (s *Store[E]) Append(ctx context.Context, entry E) {
	s.entries = append(s.entries, entry)
	s.persist(ctx)
}

// Replace swaps the entry with the same id in place and persists.
func (s *Store[E]) Replace(ctx context.Context, entry E) {
	if i := s.indexOf(entry.Key()); i >= 0 {
		s.entries[i] = entry
		s.persist(ctx)
	}
}

// Remove deletes the entry with the given id, preserving order, and
// persists. It reports whether an entry was removed.
func (s *Store[E]) Remove(ctx context.Context, id int64) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.persist(ctx)
	return true
}

// Clear empties the collection and deletes the persisted snapshot.
func (s *Store[E]) Clear(ctx context.Context) {
	s.entries = nil
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete collection snapshot",
			slog.String("error", err.Error()))
	}
}

func (s *Store[E]) indexOf(id int64) int {
	for i := range s.entries {
		if s.entries[i].Key() == id {
			return i
		}
	}
	return -1
}

// persist mirrors the full snapshot to durable storage. Failures are
// non-fatal: the in-memory state remains authoritative for the session.
func (s *Store[E]) persist(ctx context.Context) {
	if err := s.kv.SetWithTTL(ctx, s.key, s.entries, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to persist collection snapshot",
			slog.String("error", err.Error()))
	}
}
