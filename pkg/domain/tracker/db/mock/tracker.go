// this package provide "mock" implementation of the tracker database for testing.
package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/strataml/strata/pkg/domain"
	trackdb "github.com/strataml/strata/pkg/domain/tracker/db"
)

type MockTrackerInterface struct {
	Impl struct {
		Get                func(context.Context, string) (domain.PlacementRecord, error)
		Create             func(context.Context, trackdb.NewRecord) (domain.PlacementRecord, error)
		CompareAndSwapTier func(context.Context, string, int64, domain.Tier) (domain.PlacementRecord, error)
		RecordWrite        func(context.Context, string, int64, int64) (domain.PlacementRecord, error)
		Touch              func(context.Context, string, time.Time) error
		Delete             func(context.Context, string, int64) error
		ScanPage           func(context.Context, string, int) ([]domain.PlacementRecord, error)
		ListByTier         func(context.Context, domain.Tier) ([]domain.PlacementRecord, error)
		Occupancy          func(context.Context) (map[domain.Tier]domain.TierOccupancy, error)
	}
}

var _ trackdb.Interface = &MockTrackerInterface{}

func NewMockTrackerInterface() *MockTrackerInterface {
	return &MockTrackerInterface{}
}

func (m *MockTrackerInterface) Get(ctx context.Context, entityID string) (domain.PlacementRecord, error) {
	if m.Impl.Get == nil {
		return domain.PlacementRecord{}, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Get(ctx, entityID)
}

func (m *MockTrackerInterface) Create(ctx context.Context, n trackdb.NewRecord) (domain.PlacementRecord, error) {
	if m.Impl.Create == nil {
		return domain.PlacementRecord{}, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Create(ctx, n)
}

func (m *MockTrackerInterface) CompareAndSwapTier(ctx context.Context, entityID string, expectedVersion int64, newTier domain.Tier) (domain.PlacementRecord, error) {
	if m.Impl.CompareAndSwapTier == nil {
		return domain.PlacementRecord{}, errors.New("[MOCK] not implemented")
	}
	return m.Impl.CompareAndSwapTier(ctx, entityID, expectedVersion, newTier)
}

func (m *MockTrackerInterface) RecordWrite(ctx context.Context, entityID string, expectedVersion int64, sizeBytes int64) (domain.PlacementRecord, error) {
	if m.Impl.RecordWrite == nil {
		return domain.PlacementRecord{}, errors.New("[MOCK] not implemented")
	}
	return m.Impl.RecordWrite(ctx, entityID, expectedVersion, sizeBytes)
}

func (m *MockTrackerInterface) Touch(ctx context.Context, entityID string, at time.Time) error {
	if m.Impl.Touch == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Touch(ctx, entityID, at)
}

func (m *MockTrackerInterface) Delete(ctx context.Context, entityID string, expectedVersion int64) error {
	if m.Impl.Delete == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Delete(ctx, entityID, expectedVersion)
}

func (m *MockTrackerInterface) ScanPage(ctx context.Context, afterEntityID string, limit int) ([]domain.PlacementRecord, error) {
	if m.Impl.ScanPage == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.ScanPage(ctx, afterEntityID, limit)
}

func (m *MockTrackerInterface) ListByTier(ctx context.Context, tier domain.Tier) ([]domain.PlacementRecord, error) {
	if m.Impl.ListByTier == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.ListByTier(ctx, tier)
}

func (m *MockTrackerInterface) Occupancy(ctx context.Context) (map[domain.Tier]domain.TierOccupancy, error) {
	if m.Impl.Occupancy == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Occupancy(ctx)
}
