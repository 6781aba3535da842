package mocks

import (
	"context"

	"compliancehub/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) CreateWithItems(ctx context.Context, req *model.Request, items []model.RequestItem) (*model.Request, error) {
	args := m.Called(ctx, req, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestRepository) FindByID(ctx context.Context, id string) (*model.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Request), args.Error(1)
}

func (m *MockRequestRepository) ListItems(ctx context.Context, requestID string) ([]model.RequestItem, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RequestItem), args.Error(1)
}

func (m *MockRequestRepository) FindItem(ctx context.Context, requestID, itemID string) (*model.RequestItem, error) {
	args := m.Called(ctx, requestID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RequestItem), args.Error(1)
}

func (m *MockRequestRepository) MarkItemFulfilled(ctx context.Context, item *model.RequestItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockRequestRepository) MarkItemRejected(ctx context.Context, item *model.RequestItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, requestID string, status model.RequestStatus) error {
	args := m.Called(ctx, requestID, status)
	return args.Error(0)
}

func (m *MockRequestRepository) ListByBuyer(ctx context.Context, buyerUserID string) ([]model.Request, error) {
	args := m.Called(ctx, buyerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Request), args.Error(1)
}

func (m *MockRequestRepository) ListByFactory(ctx context.Context, factoryUserID string, status model.RequestStatus) ([]model.Request, error) {
	args := m.Called(ctx, factoryUserID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Request), args.Error(1)
}

func (m *MockRequestRepository) ListAll(ctx context.Context) ([]model.Request, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Request), args.Error(1)
}
