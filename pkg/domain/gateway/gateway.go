// Package gateway is the read/write front of the placement system.
//
// Collaborators never talk to backends or the tracker directly; the gateway
// resolves an entity's tier, pulls non-hot entities hot on access, and keeps
// the "new data is hot" rule on writes.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/backend"
	domerr "github.com/strataml/strata/pkg/domain/errors"
	"github.com/strataml/strata/pkg/domain/executor"
	"github.com/strataml/strata/pkg/domain/metrics"
	"github.com/strataml/strata/pkg/domain/policy"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
)

type Interface interface {
	// Write stores payload as entityID, always into the hot tier.
	//
	// The first write creates the placement record (version 1, hot); the
	// entity type binds here and later writes keep it. An overwrite puts
	// the payload hot and forces the record hot with a version-guarded
	// update, leaving any stale copy in another tier to the orphan sweep.
	Write(ctx context.Context, entityID string, entityType domain.EntityType, payload []byte) (domain.PlacementRecord, error)

	// Read serves the payload of entityID and reports the tier it was
	// served from.
	//
	// A read of a non-hot entity promotes it hot first; concurrent reads
	// of one entity share a single promotion. With allowStale the payload
	// is served from wherever it lies, no promotion. Every served read
	// bumps the entity's last access time asynchronously.
	Read(ctx context.Context, entityID string, allowStale bool) ([]byte, domain.Tier, error)

	// Delete removes the entity everywhere. Unknown entities error as
	// errors.ErrMissing.
	Delete(ctx context.Context, entityID string) error

	// Placement returns the entity's placement record as tracked.
	Placement(ctx context.Context, entityID string) (domain.PlacementRecord, error)
}

const (
	// bounded re-reads when a record moves under our feet.
	readRetryMax = 3

	// bounded version-guarded attempts for overwrites.
	writeRetryMax = 3
)

type gatewayImpl struct {
	tracker trackdb.Interface
	stores  backend.Registry
	exec    executor.Interface
	meter   *metrics.Registry
	logger  *log.Logger
	now     func() time.Time

	promotions singleflight.Group
}

type Option func(*gatewayImpl) *gatewayImpl

func WithLogger(logger *log.Logger) Option {
	return func(g *gatewayImpl) *gatewayImpl {
		g.logger = logger
		return g
	}
}

// WithClock replaces the time source for access bumps. For tests.
func WithClock(now func() time.Time) Option {
	return func(g *gatewayImpl) *gatewayImpl {
		g.now = now
		return g
	}
}

func New(
	tracker trackdb.Interface,
	stores backend.Registry,
	exec executor.Interface,
	meter *metrics.Registry,
	option ...Option,
) Interface {
	g := &gatewayImpl{
		tracker: tracker,
		stores:  stores,
		exec:    exec,
		meter:   meter,
		logger:  log.Default(),
		now:     time.Now,
	}
	for _, opt := range option {
		g = opt(g)
	}
	return g
}

func (g *gatewayImpl) Write(
	ctx context.Context, entityID string, entityType domain.EntityType, payload []byte,
) (domain.PlacementRecord, error) {
	// Payload first, record second. A payload without a record is an
	// orphan the sweep reclaims; a record without a payload would be born
	// inconsistent.
	if err := g.stores.Hot().Put(ctx, entityID, payload); err != nil {
		return domain.PlacementRecord{}, err
	}

	record, err := g.tracker.Create(ctx, trackdb.NewRecord{
		EntityID:   entityID,
		EntityType: entityType,
		Tier:       domain.TierHot,
		SizeBytes:  int64(len(payload)),
	})
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, domerr.ErrAlreadyExists) {
		return domain.PlacementRecord{}, err
	}

	// overwrite: force the record hot at the fresh size
	for attempt := 0; attempt < writeRetryMax; attempt++ {
		current, err := g.tracker.Get(ctx, entityID)
		if err != nil {
			return domain.PlacementRecord{}, err
		}
		updated, err := g.tracker.RecordWrite(ctx, entityID, current.Version, int64(len(payload)))
		if errors.Is(err, domerr.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return domain.PlacementRecord{}, err
		}
		return updated, nil
	}
	return domain.PlacementRecord{}, fmt.Errorf(
		"overwriting %s: %w", entityID, domerr.ErrVersionConflict,
	)
}

func (g *gatewayImpl) Read(ctx context.Context, entityID string, allowStale bool) ([]byte, domain.Tier, error) {
	for attempt := 0; attempt < readRetryMax; attempt++ {
		record, err := g.tracker.Get(ctx, entityID)
		if err != nil {
			return nil, domain.TierNone, err
		}

		target := policy.DecideOnAccess(record)
		if allowStale || target == record.Tier {
			payload, err := g.serveFrom(ctx, record)
			if errors.Is(err, domerr.ErrMissing) {
				// The payload left this tier between our record read and the
				// backend read. If the record also moved, chase it; if not,
				// tracker and backend genuinely disagree.
				fresh, rerr := g.tracker.Get(ctx, entityID)
				if rerr == nil && fresh.Version != record.Version {
					continue
				}
				g.meter.ObserveInconsistency()
				inc := executor.Inconsistent{EntityID: entityID, Tier: record.Tier}
				g.logger.Printf("operator alert: %s", inc.Error())
				return nil, domain.TierNone, inc
			}
			if err != nil {
				return nil, domain.TierNone, err
			}
			return payload, record.Tier, nil
		}

		// Collapse concurrent promotions of one entity; each caller
		// re-resolves the record once the shared move settles.
		if _, err, _ := g.promotions.Do(entityID, func() (interface{}, error) {
			return g.exec.Move(ctx, entityID, target)
		}); err != nil {
			if ctx.Err() == nil &&
				(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
				// the sharing caller gave up its wait; the move itself runs
				// on, so chase the record again
				continue
			}
			return nil, domain.TierNone, err
		}
	}
	return nil, domain.TierNone, fmt.Errorf(
		"reading %s: placement kept moving: %w", entityID, domerr.ErrVersionConflict,
	)
}

// serveFrom reads the payload from the record's tier, counts the read and
// bumps the access time in the background.
func (g *gatewayImpl) serveFrom(ctx context.Context, record domain.PlacementRecord) ([]byte, error) {
	store, err := g.stores.For(record.Tier)
	if err != nil {
		return nil, err
	}
	payload, err := store.Get(ctx, record.EntityID)
	if err != nil {
		return nil, err
	}

	g.meter.ObserveRead(record.Tier)

	// Best effort: a lost bump only delays the next sweep's verdict by one
	// cycle.
	touchCtx := context.WithoutCancel(ctx)
	at := g.now()
	go func() {
		if err := g.tracker.Touch(touchCtx, record.EntityID, at); err != nil {
			g.logger.Printf("access bump for %s dropped: %s", record.EntityID, err)
		}
	}()

	return payload, nil
}

func (g *gatewayImpl) Delete(ctx context.Context, entityID string) error {
	return g.exec.Remove(ctx, entityID)
}

func (g *gatewayImpl) Placement(ctx context.Context, entityID string) (domain.PlacementRecord, error) {
	return g.tracker.Get(ctx, entityID)
}
