package metrics

import (
	"time"

	apimetrics "github.com/strataml/strata/pkg/api/types/metrics"
	"github.com/strataml/strata/pkg/domain"
	dmetrics "github.com/strataml/strata/pkg/domain/metrics"
	"github.com/strataml/strata/pkg/utils"
	"github.com/strataml/strata/pkg/utils/rfctime"
)

func ComposeSummary(
	occupancy map[domain.Tier]domain.TierOccupancy,
	snap dmetrics.Snapshot,
	sweeps map[domain.SweepName][]domain.SweepRecord,
) apimetrics.Summary {
	occ := map[string]apimetrics.TierOccupancy{}
	for tier, o := range occupancy {
		occ[tier.String()] = apimetrics.TierOccupancy{Count: o.Count, Bytes: o.Bytes}
	}

	reads := map[string]int64{}
	for tier, n := range snap.ReadsByTier {
		reads[tier.String()] = n
	}

	var latency *apimetrics.LatencyQuantiles
	if snap.PromotionLatency.Count != 0 {
		latency = &apimetrics.LatencyQuantiles{
			Count: snap.PromotionLatency.Count,
			P50:   millis(snap.PromotionLatency.P50),
			P95:   millis(snap.PromotionLatency.P95),
			P99:   millis(snap.PromotionLatency.P99),
		}
	}

	cycles := map[string][]apimetrics.SweepCycle{}
	for name, records := range sweeps {
		cycles[name.String()] = utils.Map(records, ComposeSweepCycle)
	}

	return apimetrics.Summary{
		Occupancy:        occ,
		Reads:            reads,
		Promotions:       snap.Promotions,
		Demotions:        snap.Demotions,
		Abandons:         snap.Abandons,
		Inconsistencies:  snap.Inconsistencies,
		PromotionLatency: latency,
		Sweeps:           cycles,
	}
}

func ComposeSweepCycle(r domain.SweepRecord) apimetrics.SweepCycle {
	return apimetrics.SweepCycle{
		StartedAt:      rfctime.RFC3339(r.StartedAt),
		DurationMs:     r.Duration.Milliseconds(),
		Scanned:        r.Scanned,
		Moved:          r.Moved,
		Failed:         r.Failed,
		ReclaimedBytes: r.ReclaimedBytes,
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
