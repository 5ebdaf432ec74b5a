// this package provide "mock" implementation of the placement executor for testing.
package mocks

import (
	"context"
	"errors"

	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/executor"
)

type MockExecutorInterface struct {
	Impl struct {
		Move     func(context.Context, string, domain.Tier) (executor.Result, error)
		Remove   func(context.Context, string) error
		InFlight func() []executor.MoveIntent
	}
}

var _ executor.Interface = &MockExecutorInterface{}

func NewMockExecutorInterface() *MockExecutorInterface {
	return &MockExecutorInterface{}
}

func (m *MockExecutorInterface) Move(ctx context.Context, entityID string, to domain.Tier) (executor.Result, error) {
	if m.Impl.Move == nil {
		return executor.Result{}, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Move(ctx, entityID, to)
}

func (m *MockExecutorInterface) Remove(ctx context.Context, entityID string) error {
	if m.Impl.Remove == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Remove(ctx, entityID)
}

func (m *MockExecutorInterface) InFlight() []executor.MoveIntent {
	if m.Impl.InFlight == nil {
		return nil
	}
	return m.Impl.InFlight()
}
