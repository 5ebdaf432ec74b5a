package db

import (
	"context"

	"github.com/strataml/strata/pkg/domain"
)

// KeepPerName bounds the sweep history. Save prunes rows of the same sweep
// name beyond the most recent KeepPerName cycles, so the table never grows
// past a few hundred rows no matter how long the loops run.
const KeepPerName = 100

// Interface persists the outcome of completed sweep cycles.
//
// Written by the loops process, read by the API server's metrics endpoint.
type Interface interface {
	// Save appends the record of a completed cycle and prunes history
	// beyond KeepPerName cycles of the same sweep name.
	Save(ctx context.Context, r domain.SweepRecord) error

	// RecentByName returns up to limit records per sweep name,
	// newest first.
	RecentByName(ctx context.Context, limit int) (map[domain.SweepName][]domain.SweepRecord, error)
}
