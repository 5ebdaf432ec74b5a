package tiering

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/strataml/strata/cmd/loops/recurring"
	"github.com/strataml/strata/pkg/domain"
	domerr "github.com/strataml/strata/pkg/domain/errors"
	"github.com/strataml/strata/pkg/domain/executor"
	"github.com/strataml/strata/pkg/domain/policy"
	sweepdb "github.com/strataml/strata/pkg/domain/sweeps/db"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
)

// initial value for task: a fresh cycle starting at the top of the records.
func Seed() domain.SweepCursor {
	return domain.SweepCursor{}
}

// CapacityMeter reports the bytes the hot backend holds.
// backend.HotStore satisfies this.
type CapacityMeter interface {
	CapacityUsed(ctx context.Context) (int64, error)
}

type config struct {
	now func() time.Time
}

type Option func(*config)

// WithClock replaces the time source policy verdicts read. For tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// verdict pairs a placement record with the tier the policy wants it in.
// TierNone means the entity expired and should be removed outright.
type verdict struct {
	record domain.PlacementRecord
	to     domain.Tier
}

type counts struct {
	moved     int
	failed    int
	reclaimed int64
}

// Return:
//
// - task: walk the placement records one page per pass and bring each entity
// to the tier its lifecycle policy wants. When the walk wraps, demote hot
// entities over their type's capacity budget and file the cycle's record.
//
// Entity types without a configured policy are left alone. A failed or
// abandoned transition is counted and left for the next cycle; only tracker
// errors fail the task.
func Task(
	logger *log.Logger,
	tracker trackdb.Interface,
	exec executor.Interface,
	hot CapacityMeter,
	policies domain.Policies,
	sweeps sweepdb.Interface,
	batchSize int,
	workers int,
	options ...Option,
) recurring.Task[domain.SweepCursor] {
	conf := &config{now: time.Now}
	for _, opt := range options {
		opt(conf)
	}

	return func(ctx context.Context, cursor domain.SweepCursor) (domain.SweepCursor, bool, error) {
		now := conf.now()
		if cursor.AfterEntityID == "" {
			cursor = domain.SweepCursor{StartedAt: now}
		}

		page, err := tracker.ScanPage(ctx, cursor.AfterEntityID, batchSize)
		if err != nil {
			return cursor, false, err
		}

		c := apply(ctx, logger, exec, verdicts(page, policies, now), workers)
		cursor.Scanned += len(page)
		cursor.Moved += c.moved
		cursor.Failed += c.failed
		cursor.ReclaimedBytes += c.reclaimed

		if len(page) == batchSize {
			cursor.AfterEntityID = page[len(page)-1].EntityID
			return cursor, true, nil
		}

		// the walk wrapped: rebalance hot capacity, then file the cycle
		hotRecords, err := tracker.ListByTier(ctx, domain.TierHot)
		if err != nil {
			return cursor, false, err
		}
		c = apply(ctx, logger, exec, capacityVictims(hotRecords, policies), workers)
		cursor.Moved += c.moved
		cursor.Failed += c.failed

		record := cursor.Record(domain.SweepTiering, conf.now())
		if err := sweeps.Save(ctx, record); err != nil {
			logger.Printf("can not save the cycle record: %s", err)
		}

		if used, err := hot.CapacityUsed(ctx); err == nil {
			logger.Printf(
				"cycle done: scanned %d, moved %d, failed %d, reclaimed %dB; hot backend holds %dB",
				record.Scanned, record.Moved, record.Failed, record.ReclaimedBytes, used,
			)
		} else {
			logger.Printf(
				"cycle done: scanned %d, moved %d, failed %d, reclaimed %dB (hot usage unknown: %s)",
				record.Scanned, record.Moved, record.Failed, record.ReclaimedBytes, err,
			)
		}
		if flying := len(exec.InFlight()); flying != 0 {
			logger.Printf("%d transitions still settling in the background", flying)
		}

		return Seed(), false, nil
	}
}

// verdicts runs the lifecycle policy over one page of records and keeps the
// entities which should move.
func verdicts(page []domain.PlacementRecord, policies domain.Policies, now time.Time) []verdict {
	moves := []verdict{}
	for _, record := range page {
		pol, ok := policies.For(record.EntityType)
		if !ok {
			continue
		}
		if to := policy.Decide(record, pol, now); to != record.Tier {
			moves = append(moves, verdict{record: record, to: to})
		}
	}
	return moves
}

// capacityVictims picks, per entity type, the hot records to demote so the
// type's hot usage comes back under its budget.
func capacityVictims(hotRecords []domain.PlacementRecord, policies domain.Policies) []verdict {
	byType := map[domain.EntityType][]domain.PlacementRecord{}
	usage := map[domain.EntityType]int64{}
	for _, record := range hotRecords {
		byType[record.EntityType] = append(byType[record.EntityType], record)
		usage[record.EntityType] += record.SizeBytes
	}

	victims := []verdict{}
	for et, records := range byType {
		pol, ok := policies.For(et)
		if !ok {
			continue
		}
		for _, victim := range policy.PlanCapacityEviction(records, pol, usage[et]) {
			victims = append(victims, verdict{record: victim, to: domain.TierWarm})
		}
	}
	return victims
}

// apply executes the verdicts, at most workers at a time. Failures are
// counted, logged and left behind; the loop revisits them next cycle.
func apply(
	ctx context.Context,
	logger *log.Logger,
	exec executor.Interface,
	moves []verdict,
	workers int,
) counts {
	var mu sync.Mutex
	var c counts

	var g errgroup.Group
	g.SetLimit(workers)
	for _, v := range moves {
		v := v
		g.Go(func() error {
			if v.to == domain.TierNone {
				err := exec.Remove(ctx, v.record.EntityID)
				if errors.Is(err, domerr.ErrMissing) {
					return nil
				}
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					logger.Printf("expire %s: %s", v.record.EntityID, err)
					c.failed += 1
					return nil
				}
				c.moved += 1
				c.reclaimed += v.record.SizeBytes
				return nil
			}

			result, err := exec.Move(ctx, v.record.EntityID, v.to)
			if errors.Is(err, domerr.ErrMissing) {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Printf("move %s to %s: %s", v.record.EntityID, v.to, err)
				c.failed += 1
				return nil
			}
			if result.Outcome != executor.Committed {
				c.failed += 1
				return nil
			}
			c.moved += 1
			return nil
		})
	}
	g.Wait()

	return c
}
