package mocks

import (
	"context"

	"compliancehub/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockEvidenceRepository struct {
	mock.Mock
}

func (m *MockEvidenceRepository) CreateWithVersion(ctx context.Context, ev *model.Evidence, ver *model.EvidenceVersion) (*model.Evidence, *model.EvidenceVersion, error) {
	args := m.Called(ctx, ev, ver)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Evidence), args.Get(1).(*model.EvidenceVersion), args.Error(2)
}

func (m *MockEvidenceRepository) FindByID(ctx context.Context, id string) (*model.Evidence, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Evidence), args.Error(1)
}

func (m *MockEvidenceRepository) ListByFactory(ctx context.Context, factoryUserID string) ([]model.Evidence, error) {
	args := m.Called(ctx, factoryUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Evidence), args.Error(1)
}

func (m *MockEvidenceRepository) ListGranted(ctx context.Context, userID string) ([]model.Evidence, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Evidence), args.Error(1)
}

func (m *MockEvidenceRepository) ListAll(ctx context.Context) ([]model.Evidence, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Evidence), args.Error(1)
}

func (m *MockEvidenceRepository) MaxVersionNumber(ctx context.Context, evidenceID string) (int, error) {
	args := m.Called(ctx, evidenceID)
	return args.Int(0), args.Error(1)
}

func (m *MockEvidenceRepository) CreateVersion(ctx context.Context, ver *model.EvidenceVersion) (*model.EvidenceVersion, error) {
	args := m.Called(ctx, ver)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EvidenceVersion), args.Error(1)
}

func (m *MockEvidenceRepository) FindVersionByID(ctx context.Context, id string) (*model.EvidenceVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EvidenceVersion), args.Error(1)
}

func (m *MockEvidenceRepository) ListVersions(ctx context.Context, evidenceID string) ([]model.EvidenceVersion, error) {
	args := m.Called(ctx, evidenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EvidenceVersion), args.Error(1)
}

func (m *MockEvidenceRepository) ListVersionsGranted(ctx context.Context, evidenceID, userID string) ([]model.EvidenceVersion, error) {
	args := m.Called(ctx, evidenceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EvidenceVersion), args.Error(1)
}
