// Package inmemory has a process-local sweep history.
//
// It honours the same bound and ordering as the postgres one and backs
// unit tests and single-process development setups.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/strataml/strata/pkg/domain"
	sweepdb "github.com/strataml/strata/pkg/domain/sweeps/db"
)

type sweepsMem struct {
	mu      sync.Mutex
	history map[domain.SweepName][]domain.SweepRecord
}

func New() sweepdb.Interface {
	return &sweepsMem{
		history: map[domain.SweepName][]domain.SweepRecord{},
	}
}

func (s *sweepsMem) Save(ctx context.Context, r domain.SweepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := append(s.history[r.Name], r)
	sort.SliceStable(records, func(i, j int) bool {
		return records[j].StartedAt.Before(records[i].StartedAt)
	})
	if sweepdb.KeepPerName < len(records) {
		records = records[:sweepdb.KeepPerName]
	}
	s.history[r.Name] = records
	return nil
}

func (s *sweepsMem) RecentByName(ctx context.Context, limit int) (map[domain.SweepName][]domain.SweepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := map[domain.SweepName][]domain.SweepRecord{}
	for name, records := range s.history {
		n := limit
		if len(records) < n {
			n = len(records)
		}
		found[name] = append([]domain.SweepRecord{}, records[:n]...)
	}
	return found, nil
}
