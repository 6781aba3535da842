package mocks

import (
	"context"

	"compliancehub/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockGrantRepository struct {
	mock.Mock
}

func (m *MockGrantRepository) Create(ctx context.Context, grant *model.AccessGrant) (bool, error) {
	args := m.Called(ctx, grant)
	return args.Bool(0), args.Error(1)
}

func (m *MockGrantRepository) Find(ctx context.Context, versionID, userID string) (*model.AccessGrant, error) {
	args := m.Called(ctx, versionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessGrant), args.Error(1)
}

func (m *MockGrantRepository) Exists(ctx context.Context, versionID, userID string) (bool, error) {
	args := m.Called(ctx, versionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGrantRepository) ExistsForEvidence(ctx context.Context, evidenceID, userID string) (bool, error) {
	args := m.Called(ctx, evidenceID, userID)
	return args.Bool(0), args.Error(1)
}
