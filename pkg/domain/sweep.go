package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownSweepName = errors.New("unknown sweep name")

// SweepName identifies one of the background maintenance loops.
type SweepName string

const (
	// SweepTiering is the loop applying lifecycle policies:
	// demotion, archival, expiry and hot capacity eviction.
	SweepTiering SweepName = "tiering"

	// SweepOrphan is the loop reclaiming payload copies
	// no backend is the canonical home of.
	SweepOrphan SweepName = "orphan"
)

func (s SweepName) String() string {
	return string(s)
}

func AsSweepName(s string) (SweepName, error) {
	switch n := SweepName(s); n {
	case SweepTiering, SweepOrphan:
		return n, nil
	default:
		return n, fmt.Errorf(`%w: "%s"`, ErrUnknownSweepName, s)
	}
}

func SweepNames() []SweepName {
	return []SweepName{SweepTiering, SweepOrphan}
}

// SweepRecord is the outcome of one completed sweep cycle.
type SweepRecord struct {
	Name SweepName

	StartedAt time.Time

	Duration time.Duration

	// Scanned is how many placement records (tiering) or
	// backend entries (orphan) the cycle looked at.
	Scanned int

	// Moved counts committed transitions, expiries included.
	// The orphan sweep counts reclaimed copies here.
	Moved int

	// Failed counts entities whose transition errored or was abandoned.
	// A failed entity is retried naturally on the next cycle.
	Failed int

	// ReclaimedBytes is how many payload bytes the cycle released,
	// from expiries and orphan deletions.
	ReclaimedBytes int64
}

func (s *SweepRecord) Equal(o *SweepRecord) bool {
	if (s == nil) || (o == nil) {
		return (s == nil) && (o == nil)
	}
	return s.Name == o.Name &&
		s.StartedAt.Equal(o.StartedAt) &&
		s.Duration == o.Duration &&
		s.Scanned == o.Scanned &&
		s.Moved == o.Moved &&
		s.Failed == o.Failed &&
		s.ReclaimedBytes == o.ReclaimedBytes
}

// SweepCursor carries one tiering cycle's progress between task passes.
// A cycle walks the placement records page by page; the zero cursor means
// "start a fresh cycle".
type SweepCursor struct {
	// AfterEntityID is where the next page starts. Empty on a fresh cycle.
	AfterEntityID string

	StartedAt time.Time

	Scanned        int
	Moved          int
	Failed         int
	ReclaimedBytes int64
}

// Record folds the finished cycle into a SweepRecord.
func (c SweepCursor) Record(name SweepName, finishedAt time.Time) SweepRecord {
	return SweepRecord{
		Name:           name,
		StartedAt:      c.StartedAt,
		Duration:       finishedAt.Sub(c.StartedAt),
		Scanned:        c.Scanned,
		Moved:          c.Moved,
		Failed:         c.Failed,
		ReclaimedBytes: c.ReclaimedBytes,
	}
}
