package metrics

import (
	"github.com/strataml/strata/pkg/utils/rfctime"
)

// Summary is the body of the metrics endpoint: live occupancy, gateway
// counters since process start, and recent sweep cycles.
type Summary struct {
	Occupancy map[string]TierOccupancy `json:"occupancy"`

	Reads           map[string]int64 `json:"reads"`
	Promotions      int64            `json:"promotions"`
	Demotions       int64            `json:"demotions"`
	Abandons        int64            `json:"abandons"`
	Inconsistencies int64            `json:"inconsistencies"`

	// PromotionLatency is absent until the first promotion happens.
	PromotionLatency *LatencyQuantiles `json:"promotionLatency,omitempty"`

	Sweeps map[string][]SweepCycle `json:"sweeps"`
}

type TierOccupancy struct {
	Count int64 `json:"count"`
	Bytes int64 `json:"bytes"`
}

// LatencyQuantiles are milliseconds.
type LatencyQuantiles struct {
	Count int64   `json:"count"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

type SweepCycle struct {
	StartedAt      rfctime.RFC3339 `json:"startedAt"`
	DurationMs     int64           `json:"durationMs"`
	Scanned        int             `json:"scanned"`
	Moved          int             `json:"moved"`
	Failed         int             `json:"failed"`
	ReclaimedBytes int64           `json:"reclaimedBytes"`
}
