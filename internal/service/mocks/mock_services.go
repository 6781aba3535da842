package mocks

import (
	"context"

	"compliancehub/internal/model"
	"compliancehub/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockEvidenceService struct {
	mock.Mock
}

func (m *MockEvidenceService) CreateEvidence(ctx context.Context, actor *model.User, name, docType string, initial service.VersionInput) (*model.Evidence, *model.EvidenceVersion, error) {
	args := m.Called(ctx, actor, name, docType, initial)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Evidence), args.Get(1).(*model.EvidenceVersion), args.Error(2)
}

func (m *MockEvidenceService) AddVersion(ctx context.Context, evidenceID string, actor *model.User, in service.VersionInput) (*model.EvidenceVersion, error) {
	args := m.Called(ctx, evidenceID, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EvidenceVersion), args.Error(1)
}

func (m *MockEvidenceService) CanAccess(ctx context.Context, versionID string, user *model.User) (bool, error) {
	args := m.Called(ctx, versionID, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockEvidenceService) ListVersions(ctx context.Context, evidenceID string, requester *model.User) ([]model.EvidenceVersion, error) {
	args := m.Called(ctx, evidenceID, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EvidenceVersion), args.Error(1)
}

func (m *MockEvidenceService) ListEvidence(ctx context.Context, requester *model.User) ([]model.Evidence, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Evidence), args.Error(1)
}

func (m *MockEvidenceService) DownloadURL(ctx context.Context, versionID string, actor *model.User) (string, error) {
	args := m.Called(ctx, versionID, actor)
	return args.String(0), args.Error(1)
}

type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) CreateRequest(ctx context.Context, buyer *model.User, factoryUserID, title string, itemDocTypes []string) (*model.Request, error) {
	args := m.Called(ctx, buyer, factoryUserID, title, itemDocTypes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestService) FulfillItem(ctx context.Context, requestID, itemID string, actor *model.User, versionID string) (*model.Request, error) {
	args := m.Called(ctx, requestID, itemID, actor, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestService) RejectItem(ctx context.Context, requestID, itemID string, actor *model.User, notes string) (*model.Request, error) {
	args := m.Called(ctx, requestID, itemID, actor, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestService) CancelRequest(ctx context.Context, requestID string, actor *model.User) (*model.Request, error) {
	args := m.Called(ctx, requestID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestService) GetRequest(ctx context.Context, requestID string, actor *model.User) (*model.Request, error) {
	args := m.Called(ctx, requestID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestService) ListRequests(ctx context.Context, actor *model.User, status model.RequestStatus) ([]model.Request, error) {
	args := m.Called(ctx, actor, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Request), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, actor *model.User, action model.AuditAction, objectType model.AuditObjectType, objectID string, metadata map[string]any) (*model.AuditLogEntry, error) {
	args := m.Called(ctx, actor, action, objectType, objectID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditLogEntry), args.Error(1)
}

func (m *MockAuditService) Project(entry *model.AuditLogEntry) model.NormalizedEntry {
	args := m.Called(entry)
	return args.Get(0).(model.NormalizedEntry)
}

func (m *MockAuditService) ListEntries(ctx context.Context, page, pageSize int) (*service.AuditListResult, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuditListResult), args.Error(1)
}
