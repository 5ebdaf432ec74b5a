package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownTier = errors.New("unknown tier")

// Tier is a storage tier name.
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"

	// TierNone is a policy verdict, not a storage location.
	// It means "this entity should not be stored anywhere anymore".
	TierNone Tier = ""
)

func (t Tier) String() string {
	return string(t)
}

func (t Tier) IsKnown() bool {
	switch t {
	case TierHot, TierWarm, TierCold:
		return true
	default:
		return false
	}
}

func AsTier(s string) (Tier, error) {
	t := Tier(s)
	if t.IsKnown() {
		return t, nil
	}
	return t, fmt.Errorf(`%w: "%s"`, ErrUnknownTier, s)
}

// Tiers lists the storage tiers, hottest first.
func Tiers() []Tier {
	return []Tier{TierHot, TierWarm, TierCold}
}

var ErrUnknownEntityType = errors.New("unknown entity type")

type EntityType string

const (
	ModelWeight         EntityType = "model-weight"
	ConversationContext EntityType = "conversation-context"
	GeneratedArtifact   EntityType = "generated-artifact"
)

func (et EntityType) String() string {
	return string(et)
}

func (et EntityType) IsKnown() bool {
	switch et {
	case ModelWeight, ConversationContext, GeneratedArtifact:
		return true
	default:
		return false
	}
}

func AsEntityType(s string) (EntityType, error) {
	et := EntityType(s)
	if et.IsKnown() {
		return et, nil
	}
	return et, fmt.Errorf(`%w: "%s"`, ErrUnknownEntityType, s)
}

func EntityTypes() []EntityType {
	return []EntityType{ModelWeight, ConversationContext, GeneratedArtifact}
}

// PlacementRecord is the authoritative statement of where an entity's
// payload lives. The tier recorded here is the only location other
// components may trust; payload copies found elsewhere are orphans.
type PlacementRecord struct {
	EntityID     string
	EntityType   EntityType
	Tier         Tier
	Version      int64
	SizeBytes    int64
	CreatedAt    time.Time
	LastAccessAt time.Time
	UpdatedAt    time.Time
}

func (p *PlacementRecord) Equal(o *PlacementRecord) bool {
	if (p == nil) || (o == nil) {
		return (p == nil) && (o == nil)
	}
	return p.EntityID == o.EntityID &&
		p.EntityType == o.EntityType &&
		p.Tier == o.Tier &&
		p.Version == o.Version &&
		p.SizeBytes == o.SizeBytes &&
		p.CreatedAt.Equal(o.CreatedAt) &&
		p.LastAccessAt.Equal(o.LastAccessAt) &&
		p.UpdatedAt.Equal(o.UpdatedAt)
}

// TierPolicy is the lifecycle rule set for one entity type.
//
// Zero ColdRetention means "retain forever".
type TierPolicy struct {
	HotCapacityBytes int64
	HotIdleTTL       time.Duration
	WarmTTL          time.Duration
	ColdRetention    time.Duration
}

// Policies maps entity types to their lifecycle rules.
// It is loaded once at process start and immutable afterwards.
type Policies map[EntityType]TierPolicy

func (p Policies) For(et EntityType) (TierPolicy, bool) {
	pol, ok := p[et]
	return pol, ok
}

// TierOccupancy is the footprint of one tier: how many entities are
// placed there and how many payload bytes they account for.
type TierOccupancy struct {
	Count int64
	Bytes int64
}

// PayloadEntry is one payload found in a tier backend, as reported by
// backend enumeration. StoredAt is when that copy was written into the
// backend (not when the entity was created).
type PayloadEntry struct {
	EntityID string
	Size     int64
	StoredAt time.Time
}
