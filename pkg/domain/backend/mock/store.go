// this package provide "mock" implementation of the tier backend for testing.
package mocks

import (
	"context"
	"errors"

	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/backend"
)

type MockStore struct {
	Impl struct {
		Put          func(context.Context, string, []byte) error
		Get          func(context.Context, string) ([]byte, error)
		Delete       func(context.Context, string) error
		Exists       func(context.Context, string) (bool, error)
		Entries      func(context.Context) ([]domain.PayloadEntry, error)
		CapacityUsed func(context.Context) (int64, error)
	}
}

var _ backend.HotStore = &MockStore{}

func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Put(ctx context.Context, entityID string, payload []byte) error {
	if m.Impl.Put == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Put(ctx, entityID, payload)
}

func (m *MockStore) Get(ctx context.Context, entityID string) ([]byte, error) {
	if m.Impl.Get == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Get(ctx, entityID)
}

func (m *MockStore) Delete(ctx context.Context, entityID string) error {
	if m.Impl.Delete == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Delete(ctx, entityID)
}

func (m *MockStore) Exists(ctx context.Context, entityID string) (bool, error) {
	if m.Impl.Exists == nil {
		return false, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Exists(ctx, entityID)
}

func (m *MockStore) Entries(ctx context.Context) ([]domain.PayloadEntry, error) {
	if m.Impl.Entries == nil {
		return nil, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Entries(ctx)
}

func (m *MockStore) CapacityUsed(ctx context.Context) (int64, error) {
	if m.Impl.CapacityUsed == nil {
		return 0, errors.New("[MOCK] not implemented")
	}
	return m.Impl.CapacityUsed(ctx)
}
