package mocks

import (
	"context"
	"errors"

	"github.com/strataml/strata/pkg/domain"
	sweepdb "github.com/strataml/strata/pkg/domain/sweeps/db"
)

type MockSweepsInterface struct {
	Impl struct {
		Save         func(context.Context, domain.SweepRecord) error
		RecentByName func(context.Context, int) (map[domain.SweepName][]domain.SweepRecord, error)
	}
}

var _ sweepdb.Interface = &MockSweepsInterface{}

func NewMockSweepsInterface() *MockSweepsInterface {
	return &MockSweepsInterface{}
}

func (m *MockSweepsInterface) Save(ctx context.Context, r domain.SweepRecord) error {
	if m.Impl.Save == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Save(ctx, r)
}

func (m *MockSweepsInterface) RecentByName(ctx context.Context, limit int) (map[domain.SweepName][]domain.SweepRecord, error) {
	if m.Impl.RecentByName == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.RecentByName(ctx, limit)
}
