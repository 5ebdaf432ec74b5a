// Package backend defines the payload store interface each tier implements.
//
// A backend holds payload bytes keyed by entity id and nothing else. It does
// not consult the placement tracker and it does not know about other tiers;
// moving payloads between tiers is the executor's business.
package backend

import (
	"context"
	"fmt"

	"github.com/strataml/strata/pkg/domain"
)

type Store interface {
	// Put stores payload under entityID, overwriting any previous payload.
	//
	// Returned errors unwrap to errors.ErrUnavailable when the store cannot
	// be reached or refuses the write.
	Put(ctx context.Context, entityID string, payload []byte) error

	// Get retrieves the payload stored under entityID.
	//
	// Returned errors unwrap to:
	//
	// - errors.ErrMissing when no payload is stored under entityID
	//
	// - errors.ErrUnavailable when the store cannot be reached
	Get(ctx context.Context, entityID string) ([]byte, error)

	// Delete removes the payload stored under entityID.
	//
	// Deleting an absent payload is not an error. Returned errors unwrap to
	// errors.ErrUnavailable when the store cannot be reached.
	Delete(ctx context.Context, entityID string) error

	// Exists tells whether a payload is stored under entityID.
	Exists(ctx context.Context, entityID string) (bool, error)

	// Entries enumerates stored payloads with their sizes and store times.
	//
	// The orphan sweep depends on this to find payloads no placement record
	// points at.
	Entries(ctx context.Context) ([]domain.PayloadEntry, error)
}

// HotStore is the hot tier's store. On top of Store it accounts the bytes it
// holds, so the tiering sweep can enforce the hot capacity budget.
type HotStore interface {
	Store

	// CapacityUsed reports the total payload bytes currently stored.
	CapacityUsed(ctx context.Context) (int64, error)
}

// Registry binds each tier to its backend. Components address backends only
// through this, never by constructing one themselves.
type Registry struct {
	hot  HotStore
	warm Store
	cold Store
}

func NewRegistry(hot HotStore, warm Store, cold Store) Registry {
	return Registry{hot: hot, warm: warm, cold: cold}
}

// For returns the backend holding payloads for tier.
func (r Registry) For(tier domain.Tier) (Store, error) {
	switch tier {
	case domain.TierHot:
		return r.hot, nil
	case domain.TierWarm:
		return r.warm, nil
	case domain.TierCold:
		return r.cold, nil
	}
	return nil, fmt.Errorf("no backend is registered for tier: %s", tier)
}

// Hot returns the hot backend with its capacity accounting.
func (r Registry) Hot() HotStore {
	return r.hot
}
