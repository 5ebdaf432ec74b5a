// Package memory has a process-local payload store.
//
// It keeps the full backend contract (overwrite, idempotent delete, entry
// enumeration, capacity accounting) and backs unit tests and single-process
// development setups for any tier.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/backend"
	berr "github.com/strataml/strata/pkg/domain/errors/backenderrors"
)

type stored struct {
	payload  []byte
	storedAt time.Time
}

type storeMem struct {
	tier    domain.Tier
	mu      sync.Mutex
	entries map[string]stored
	now     func() time.Time
}

type Option func(*storeMem) *storeMem

// WithClock replaces the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(s *storeMem) *storeMem {
		s.now = now
		return s
	}
}

// New creates a store playing the given tier. The tier is only used to label
// errors; the store itself is tier-agnostic.
func New(tier domain.Tier, option ...Option) backend.HotStore {
	s := &storeMem{
		tier:    tier,
		entries: map[string]stored{},
		now:     time.Now,
	}
	for _, opt := range option {
		s = opt(s)
	}
	return s
}

func (s *storeMem) Put(ctx context.Context, entityID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.entries[entityID] = stored{payload: buf, storedAt: s.now()}
	return nil
}

func (s *storeMem) Get(ctx context.Context, entityID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entityID]
	if !ok {
		return nil, berr.Missing{Tier: s.tier, EntityID: entityID}
	}
	buf := make([]byte, len(e.payload))
	copy(buf, e.payload)
	return buf, nil
}

func (s *storeMem) Delete(ctx context.Context, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, entityID)
	return nil
}

func (s *storeMem) Exists(ctx context.Context, entityID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[entityID]
	return ok, nil
}

func (s *storeMem) Entries(ctx context.Context) ([]domain.PayloadEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.PayloadEntry, 0, len(s.entries))
	for id, e := range s.entries {
		entries = append(entries, domain.PayloadEntry{
			EntityID: id, Size: int64(len(e.payload)), StoredAt: e.storedAt,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].EntityID < entries[j].EntityID })
	return entries, nil
}

func (s *storeMem) CapacityUsed(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := int64(0)
	for _, e := range s.entries {
		total += int64(len(e.payload))
	}
	return total, nil
}
