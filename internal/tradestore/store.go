package tradestore

import (
	"sort"
	"sync"

	"github.com/perpwatch/perpwatch-api/internal/types"
)

// DefaultCapacity is the number of most-recent fills retained.
const DefaultCapacity = 1000

// Store is an in-memory, bounded collection of streamed fills keyed by trade
// ID. It is written by the single ingest loop and read concurrently by query
// handlers. State is process-lifetime only; a restart starts empty.
//
// A trade ID stays known forever, even after its fill is evicted by the
// capacity cap. Re-delivery of an evicted trade is therefore never
// re-admitted.
type Store struct {
	mu       sync.RWMutex
	capacity int
	knownIDs map[int64]struct{}
	fills    []types.Fill // sorted by Time descending
}

// New creates a store retaining the given number of most-recent fills.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		knownIDs: make(map[int64]struct{}),
	}
}

// Add admits a fill iff its trade ID has never been seen. It returns true
// only on first-ever admission; callers use this to decide whether to emit
// a live notification.
func (s *Store) Add(fill types.Fill) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.knownIDs[fill.TradeID]; seen {
		return false
	}
	s.knownIDs[fill.TradeID] = struct{}{}

	s.fills = append(s.fills, fill)
	sort.SliceStable(s.fills, func(i, j int) bool {
		return s.fills[i].Time > s.fills[j].Time
	})
	if len(s.fills) > s.capacity {
		s.fills = s.fills[:s.capacity]
	}
	return true
}

// Recent returns a copy of the retained fills, newest first.
func (s *Store) Recent() []types.Fill {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Fill, len(s.fills))
	copy(out, s.fills)
	return out
}

// Len returns the number of retained fills.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fills)
}

// Known reports whether a trade ID has ever been admitted, including trades
// since evicted by the capacity cap.
func (s *Store) Known(tradeID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, seen := s.knownIDs[tradeID]
	return seen
}
