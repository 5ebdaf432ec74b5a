// Package metrics keeps the in-process counters behind GET /api/metrics.
//
// One Registry is shared by the gateway, the executor and the sweep tasks.
// Promotion latency goes into a DDSketch, so quantiles stay cheap no matter
// how many promotions a process serves.
package metrics

import (
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/strataml/strata/pkg/domain"
)

// relative accuracy of the latency sketch. 1% is plenty for dashboards.
const sketchAccuracy = 0.01

type Registry struct {
	mu sync.Mutex

	readsByTier     map[domain.Tier]int64
	promotions      int64
	demotions       int64
	abandons        int64
	inconsistencies int64

	promotionLatency *ddsketch.DDSketch
}

func NewRegistry() *Registry {
	r := &Registry{
		readsByTier: map[domain.Tier]int64{},
	}
	if sketch, err := ddsketch.NewDefaultDDSketch(sketchAccuracy); err == nil {
		r.promotionLatency = sketch
	}
	return r
}

// ObserveRead counts a payload read served from tier.
func (r *Registry) ObserveRead(tier domain.Tier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readsByTier[tier] += 1
}

// ObservePromotion counts a committed promotion and records how long the
// caller waited for it.
func (r *Registry) ObservePromotion(latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promotions += 1
	if r.promotionLatency != nil {
		_ = r.promotionLatency.Add(latency.Seconds() * 1e3)
	}
}

// ObserveDemotion counts a committed demotion (hot to warm, warm to cold).
func (r *Registry) ObserveDemotion() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.demotions += 1
}

// ObserveAbandon counts a transition abandoned after losing its version race.
func (r *Registry) ObserveAbandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abandons += 1
}

// ObserveInconsistency counts a tracker/backend disagreement. These are
// operator-visible; the count should stay at zero.
func (r *Registry) ObserveInconsistency() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inconsistencies += 1
}

// LatencyQuantiles is a point-in-time read of the promotion latency sketch.
type LatencyQuantiles struct {
	Count int64
	P50   time.Duration
	P95   time.Duration
	P99   time.Duration
}

type Snapshot struct {
	ReadsByTier      map[domain.Tier]int64
	Promotions       int64
	Demotions        int64
	Abandons         int64
	Inconsistencies  int64
	PromotionLatency LatencyQuantiles
}

// Snapshot copies the current counter values out of the registry.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	reads := map[domain.Tier]int64{}
	for tier, n := range r.readsByTier {
		reads[tier] = n
	}

	snap := Snapshot{
		ReadsByTier:     reads,
		Promotions:      r.promotions,
		Demotions:       r.demotions,
		Abandons:        r.abandons,
		Inconsistencies: r.inconsistencies,
	}
	if r.promotionLatency != nil && 0 < r.promotions {
		snap.PromotionLatency = LatencyQuantiles{
			Count: r.promotions,
			P50:   quantileOf(r.promotionLatency, 0.50),
			P95:   quantileOf(r.promotionLatency, 0.95),
			P99:   quantileOf(r.promotionLatency, 0.99),
		}
	}
	return snap
}

func quantileOf(sketch *ddsketch.DDSketch, q float64) time.Duration {
	ms, err := sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}
