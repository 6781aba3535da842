package repository

import (
	"context"

	"compliancehub/internal/model"
)

// RequestRepository defines data access for requests and their items.
type RequestRepository interface {
	// CreateWithItems inserts a request and all of its items in one
	// transaction.
	CreateWithItems(ctx context.Context, req *model.Request, items []model.RequestItem) (*model.Request, error)

	// FindByID returns a request without its items.
	FindByID(ctx context.Context, id string) (*model.Request, error)

	// ListItems returns the items of a request in creation order.
	ListItems(ctx context.Context, requestID string) ([]model.RequestItem, error)

	// FindItem returns one item scoped to its owning request.
	FindItem(ctx context.Context, requestID, itemID string) (*model.RequestItem, error)

	// MarkItemFulfilled writes version reference, status, fulfilledBy and
	// fulfilledAt for the item. The caller guarantees the item is pending.
	MarkItemFulfilled(ctx context.Context, item *model.RequestItem) error

	// MarkItemRejected writes rejected status and notes for the item.
	MarkItemRejected(ctx context.Context, item *model.RequestItem) error

	// UpdateStatus sets a request's status.
	UpdateStatus(ctx context.Context, requestID string, status model.RequestStatus) error

	// ListByBuyer returns requests created by the buyer, newest first.
	ListByBuyer(ctx context.Context, buyerUserID string) ([]model.Request, error)

	// ListByFactory returns requests addressed to the factory, newest first.
	// An empty status lists all of them.
	ListByFactory(ctx context.Context, factoryUserID string, status model.RequestStatus) ([]model.Request, error)

	// ListAll returns every request, newest first.
	ListAll(ctx context.Context) ([]model.Request, error)
}
