package db

import (
	"context"
	"time"

	"github.com/strataml/strata/pkg/domain"
)

// NewRecord is what a caller knows about an entity at registration time.
// The tracker stamps version and timestamps itself.
type NewRecord struct {
	EntityID   string
	EntityType domain.EntityType
	Tier       domain.Tier
	SizeBytes  int64
}

// Interface is the authoritative store of placement records.
//
// Every tier mutation is version-guarded: callers pass the version they saw,
// and the store refuses the change when the record moved on
// (domain/errors.ErrVersionConflict). This is what lets two processes work
// on the same entity without locks between them.
type Interface interface {
	// Get returns the placement record of the entity.
	//
	// When no record exists, the error unwraps to ErrMissing.
	Get(ctx context.Context, entityID string) (domain.PlacementRecord, error)

	// Create registers a new entity, stamping version 1 and fresh timestamps.
	//
	// When a record with the same entity id exists, the error unwraps to
	// ErrAlreadyExists.
	Create(ctx context.Context, r NewRecord) (domain.PlacementRecord, error)

	// CompareAndSwapTier moves the record to newTier if and only if its
	// version is still expectedVersion. On success the version is
	// incremented and the updated record returned.
	//
	// Errors unwrap to ErrMissing (record gone) or ErrVersionConflict
	// (someone else won the race).
	CompareAndSwapTier(ctx context.Context, entityID string, expectedVersion int64, newTier domain.Tier) (domain.PlacementRecord, error)

	// RecordWrite commits a payload overwrite: tier is forced to hot,
	// size updated, access time refreshed, version incremented.
	// Guarded by expectedVersion like CompareAndSwapTier.
	RecordWrite(ctx context.Context, entityID string, expectedVersion int64, sizeBytes int64) (domain.PlacementRecord, error)

	// Touch bumps last_access_at to at, never backwards.
	// It is version-free: losing a touch costs one sweep cycle, nothing more.
	Touch(ctx context.Context, entityID string, at time.Time) error

	// Delete removes the record if its version is still expectedVersion.
	//
	// Errors unwrap to ErrMissing or ErrVersionConflict.
	Delete(ctx context.Context, entityID string, expectedVersion int64) error

	// ScanPage returns up to limit records whose entity id sorts after
	// afterEntityID, ordered by entity id. Pass "" to start from the top.
	ScanPage(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error)

	// ListByTier returns all records in the tier, least recently accessed
	// first. Ties are broken by entity id ascending, so the order is total.
	ListByTier(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error)

	// Occupancy reports per-tier entity counts and byte totals.
	Occupancy(ctx context.Context) (map[domain.Tier]domain.TierOccupancy, error)
}
