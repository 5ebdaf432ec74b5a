package orphan

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/strataml/strata/cmd/loops/recurring"
	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/backend"
	sweepdb "github.com/strataml/strata/pkg/domain/sweeps/db"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
)

// initial value for task
func Seed() any {
	return nil
}

type config struct {
	now func() time.Time
}

type Option func(*config)

// WithClock replaces the time source the grace window is measured against.
// For tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// Return:
//
// - task: enumerate every backend and reclaim payload copies the tracker
// does not place there. One pass drains the whole backlog.
//
// A copy younger than grace is never touched: it may be the staging copy of
// a transition which has not committed yet, or a write racing the walk of
// the placement records.
func Task(
	logger *log.Logger,
	tracker trackdb.Interface,
	stores backend.Registry,
	sweeps sweepdb.Interface,
	grace time.Duration,
	batchSize int,
	workers int,
	options ...Option,
) recurring.Task[any] {
	conf := &config{now: time.Now}
	for _, opt := range options {
		opt(conf)
	}

	return func(ctx context.Context, value any) (any, bool, error) {
		startedAt := conf.now()

		canonical, err := canonicalTiers(ctx, tracker, batchSize)
		if err != nil {
			return value, false, err
		}

		record := domain.SweepRecord{Name: domain.SweepOrphan, StartedAt: startedAt}
		deadline := startedAt.Add(-grace)
		for _, tier := range domain.Tiers() {
			store, err := stores.For(tier)
			if err != nil {
				return value, false, err
			}
			entries, err := store.Entries(ctx)
			if err != nil {
				return value, false, err
			}
			record.Scanned += len(entries)

			orphans := []domain.PayloadEntry{}
			for _, entry := range entries {
				if canonical[entry.EntityID] == tier {
					continue
				}
				if entry.StoredAt.After(deadline) {
					// young enough to be an in-flight staging copy
					continue
				}
				orphans = append(orphans, entry)
			}

			c := reclaim(ctx, logger, store, tier, orphans, workers)
			record.Moved += c.moved
			record.Failed += c.failed
			record.ReclaimedBytes += c.reclaimed
		}

		record.Duration = conf.now().Sub(startedAt)
		if err := sweeps.Save(ctx, record); err != nil {
			logger.Printf("can not save the cycle record: %s", err)
		}
		logger.Printf(
			"cycle done: scanned %d copies, reclaimed %d (%dB), failed %d",
			record.Scanned, record.Moved, record.ReclaimedBytes, record.Failed,
		)

		return value, false, nil
	}
}

// canonicalTiers walks the placement records and maps each entity to the tier
// it canonically lives in. Entities absent from the map are tracked nowhere.
func canonicalTiers(
	ctx context.Context, tracker trackdb.Interface, batchSize int,
) (map[string]domain.Tier, error) {
	canonical := map[string]domain.Tier{}
	after := ""
	for {
		page, err := tracker.ScanPage(ctx, after, batchSize)
		if err != nil {
			return nil, err
		}
		for _, record := range page {
			canonical[record.EntityID] = record.Tier
		}
		if len(page) < batchSize {
			return canonical, nil
		}
		after = page[len(page)-1].EntityID
	}
}

type counts struct {
	moved     int
	failed    int
	reclaimed int64
}

// reclaim deletes the orphaned copies from store, at most workers at a time.
// A failed delete is counted and logged; the copy waits for the next cycle.
func reclaim(
	ctx context.Context,
	logger *log.Logger,
	store backend.Store,
	tier domain.Tier,
	orphans []domain.PayloadEntry,
	workers int,
) counts {
	var mu sync.Mutex
	var c counts

	var g errgroup.Group
	g.SetLimit(workers)
	for _, orphan := range orphans {
		orphan := orphan
		g.Go(func() error {
			err := store.Delete(ctx, orphan.EntityID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Printf("reclaim %s copy of %s: %s", tier, orphan.EntityID, err)
				c.failed += 1
				return nil
			}
			c.moved += 1
			c.reclaimed += orphan.Size
			return nil
		})
	}
	g.Wait()

	return c
}
