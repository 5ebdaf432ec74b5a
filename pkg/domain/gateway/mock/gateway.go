// this package provide "mock" implementation of the gateway for testing.
package mocks

import (
	"context"
	"errors"

	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/gateway"
)

type MockGatewayInterface struct {
	Impl struct {
		Write     func(context.Context, string, domain.EntityType, []byte) (domain.PlacementRecord, error)
		Read      func(context.Context, string, bool) ([]byte, domain.Tier, error)
		Delete    func(context.Context, string) error
		Placement func(context.Context, string) (domain.PlacementRecord, error)
	}
}

var _ gateway.Interface = &MockGatewayInterface{}

func NewMockGatewayInterface() *MockGatewayInterface {
	return &MockGatewayInterface{}
}

func (m *MockGatewayInterface) Write(ctx context.Context, entityID string, entityType domain.EntityType, payload []byte) (domain.PlacementRecord, error) {
	if m.Impl.Write == nil {
		return domain.PlacementRecord{}, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Write(ctx, entityID, entityType, payload)
}

func (m *MockGatewayInterface) Read(ctx context.Context, entityID string, allowStale bool) ([]byte, domain.Tier, error) {
	if m.Impl.Read == nil {
		return nil, domain.TierNone, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Read(ctx, entityID, allowStale)
}

func (m *MockGatewayInterface) Delete(ctx context.Context, entityID string) error {
	if m.Impl.Delete == nil {
		return errors.New("[MOCK] not implemented")
	}
	return m.Impl.Delete(ctx, entityID)
}

func (m *MockGatewayInterface) Placement(ctx context.Context, entityID string) (domain.PlacementRecord, error) {
	if m.Impl.Placement == nil {
		return domain.PlacementRecord{}, errors.New("[MOCK] not implemented")
	}
	return m.Impl.Placement(ctx, entityID)
}
