// Package inmemory has a process-local tracker implementation.
//
// It honours the same contract as the postgres one (version guards,
// monotonic touch, total orders) and backs unit tests and single-process
// development setups.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/strataml/strata/pkg/domain"
	kpgerr "github.com/strataml/strata/pkg/domain/errors/dberrors/postgres"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
)

type trackerMem struct {
	mu      sync.Mutex
	records map[string]domain.PlacementRecord
	now     func() time.Time
}

type Option func(*trackerMem) *trackerMem

// WithClock replaces the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(t *trackerMem) *trackerMem {
		t.now = now
		return t
	}
}

func New(option ...Option) trackdb.Interface {
	t := &trackerMem{
		records: map[string]domain.PlacementRecord{},
		now:     time.Now,
	}
	for _, opt := range option {
		t = opt(t)
	}
	return t
}

func (t *trackerMem) Get(ctx context.Context, entityID string) (domain.PlacementRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[entityID]
	if !ok {
		return domain.PlacementRecord{}, kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	return rec, nil
}

func (t *trackerMem) Create(ctx context.Context, n trackdb.NewRecord) (domain.PlacementRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.records[n.EntityID]; ok {
		return domain.PlacementRecord{}, kpgerr.Duplication{Table: "placement", Identity: n.EntityID}
	}
	now := t.now()
	rec := domain.PlacementRecord{
		EntityID:     n.EntityID,
		EntityType:   n.EntityType,
		Tier:         n.Tier,
		Version:      1,
		SizeBytes:    n.SizeBytes,
		CreatedAt:    now,
		LastAccessAt: now,
		UpdatedAt:    now,
	}
	t.records[n.EntityID] = rec
	return rec, nil
}

func (t *trackerMem) CompareAndSwapTier(
	ctx context.Context, entityID string, expectedVersion int64, newTier domain.Tier,
) (domain.PlacementRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[entityID]
	if !ok {
		return domain.PlacementRecord{}, kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	if rec.Version != expectedVersion {
		return domain.PlacementRecord{}, kpgerr.StaleVersion{
			Table: "placement", Identity: entityID, Expected: expectedVersion,
		}
	}
	rec.Tier = newTier
	rec.Version += 1
	rec.UpdatedAt = t.now()
	t.records[entityID] = rec
	return rec, nil
}

func (t *trackerMem) RecordWrite(
	ctx context.Context, entityID string, expectedVersion int64, sizeBytes int64,
) (domain.PlacementRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[entityID]
	if !ok {
		return domain.PlacementRecord{}, kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	if rec.Version != expectedVersion {
		return domain.PlacementRecord{}, kpgerr.StaleVersion{
			Table: "placement", Identity: entityID, Expected: expectedVersion,
		}
	}
	now := t.now()
	rec.Tier = domain.TierHot
	rec.SizeBytes = sizeBytes
	rec.Version += 1
	rec.LastAccessAt = now
	rec.UpdatedAt = now
	t.records[entityID] = rec
	return rec, nil
}

func (t *trackerMem) Touch(ctx context.Context, entityID string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[entityID]
	if !ok {
		return kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	if rec.LastAccessAt.Before(at) {
		rec.LastAccessAt = at
		t.records[entityID] = rec
	}
	return nil
}

func (t *trackerMem) Delete(ctx context.Context, entityID string, expectedVersion int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[entityID]
	if !ok {
		return kpgerr.Missing{Table: "placement", Identity: entityID}
	}
	if rec.Version != expectedVersion {
		return kpgerr.StaleVersion{Table: "placement", Identity: entityID, Expected: expectedVersion}
	}
	delete(t.records, entityID)
	return nil
}

func (t *trackerMem) ScanPage(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.records))
	for id := range t.records {
		if afterEntityID < id {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit < len(ids) {
		ids = ids[:limit]
	}

	page := make([]domain.PlacementRecord, 0, len(ids))
	for _, id := range ids {
		page = append(page, t.records[id])
	}
	return page, nil
}

func (t *trackerMem) ListByTier(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recs := []domain.PlacementRecord{}
	for _, rec := range t.records {
		if rec.Tier == tier {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].LastAccessAt.Equal(recs[j].LastAccessAt) {
			return recs[i].LastAccessAt.Before(recs[j].LastAccessAt)
		}
		return recs[i].EntityID < recs[j].EntityID
	})
	return recs, nil
}

func (t *trackerMem) Occupancy(ctx context.Context) (map[domain.Tier]domain.TierOccupancy, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	occ := map[domain.Tier]domain.TierOccupancy{}
	for _, tier := range domain.Tiers() {
		occ[tier] = domain.TierOccupancy{}
	}
	for _, rec := range t.records {
		o := occ[rec.Tier]
		o.Count += 1
		o.Bytes += rec.SizeBytes
		occ[rec.Tier] = o
	}
	return occ, nil
}
