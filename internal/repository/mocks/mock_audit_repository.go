package mocks

import (
	"context"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	args := m.Called(ctx, entry)
	if f, ok := args.Get(0).(func(context.Context, *model.AuditLogEntry) *model.AuditLogEntry); ok {
		return f(ctx, entry), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditLogEntry), args.Error(1)
}

func (m *MockAuditRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.AuditLogEntry], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.AuditLogEntry]), args.Error(1)
}
