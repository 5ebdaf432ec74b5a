// Package policy decides where entities should live.
//
// Everything here is a pure function of the placement record, the tier
// policy and the clock reading passed in. No I/O happens in this package;
// the sweep tasks and the access gateway act on the verdicts.
package policy

import (
	"sort"
	"time"

	"github.com/strataml/strata/pkg/domain"
)

// Decide returns the tier record should occupy under pol as of now.
//
// Hot entities idle longer than HotIdleTTL belong in warm. Warm entities
// idle longer than WarmTTL belong in cold. Cold entities idle longer than
// ColdRetention have expired and are reported as TierNone, meaning the
// entity should be deleted outright; a zero ColdRetention keeps cold
// entities forever. Otherwise the record stays where it is.
//
// Capacity pressure is not considered here. That is PlanCapacityEviction's
// business, and promotion on access is DecideOnAccess's.
func Decide(record domain.PlacementRecord, pol domain.TierPolicy, now time.Time) domain.Tier {
	idle := now.Sub(record.LastAccessAt)

	switch record.Tier {
	case domain.TierHot:
		if pol.HotIdleTTL < idle {
			return domain.TierWarm
		}
	case domain.TierWarm:
		if pol.WarmTTL < idle {
			return domain.TierCold
		}
	case domain.TierCold:
		if 0 < pol.ColdRetention && pol.ColdRetention < idle {
			return domain.TierNone
		}
	}
	return record.Tier
}

// DecideOnAccess returns the tier an entity being read should be served
// from. Reading a non-hot entity pulls it hot; a hot entity stays put.
func DecideOnAccess(record domain.PlacementRecord) domain.Tier {
	if record.Tier != domain.TierHot {
		return domain.TierHot
	}
	return record.Tier
}

// PlanCapacityEviction picks hot entities to demote so that usedBytes comes
// back under pol.HotCapacityBytes.
//
// records are the hot placement records of one entity type. Victims are the
// least recently accessed first, ties broken by entity id, and the returned
// slice is in eviction order. A zero HotCapacityBytes disables the rule.
// When demoting every record still cannot reach the budget, all of them are
// returned.
func PlanCapacityEviction(
	records []domain.PlacementRecord, pol domain.TierPolicy, usedBytes int64,
) []domain.PlacementRecord {
	if pol.HotCapacityBytes <= 0 || usedBytes <= pol.HotCapacityBytes {
		return nil
	}

	lru := make([]domain.PlacementRecord, len(records))
	copy(lru, records)
	sort.Slice(lru, func(i, j int) bool {
		if !lru[i].LastAccessAt.Equal(lru[j].LastAccessAt) {
			return lru[i].LastAccessAt.Before(lru[j].LastAccessAt)
		}
		return lru[i].EntityID < lru[j].EntityID
	})

	victims := []domain.PlacementRecord{}
	for _, record := range lru {
		if usedBytes <= pol.HotCapacityBytes {
			break
		}
		victims = append(victims, record)
		usedBytes -= record.SizeBytes
	}
	return victims
}
