package model

import "time"

// RequestStatus is derived from item states, never set directly by callers
// except for cancellation.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// Terminal reports whether no further status transitions are possible.
func (s RequestStatus) Terminal() bool {
	return s == RequestCompleted || s == RequestCancelled
}

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemFulfilled ItemStatus = "fulfilled"
	ItemRejected  ItemStatus = "rejected"
)

func (s ItemStatus) Terminal() bool { return s != ItemPending }

// Request is a buyer's ask, addressed to one factory, for one or more
// document types.
type Request struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	BuyerUserID   string        `json:"buyerUserId"`
	FactoryUserID string        `json:"factoryUserId"`
	Status        RequestStatus `json:"status"`
	Items         []RequestItem `json:"items,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// RequestItem is one document-type line within a Request. EvidenceVersionID,
// FulfilledAt and FulfilledBy are set exactly once, at the first transition
// into fulfilled, and never overwritten.
type RequestItem struct {
	ID                string     `json:"id"`
	RequestID         string     `json:"requestId"`
	DocType           string     `json:"docType"`
	Status            ItemStatus `json:"status"`
	EvidenceVersionID string     `json:"evidenceVersionId,omitempty"`
	FulfilledAt       *time.Time `json:"fulfilledAt,omitempty"`
	FulfilledBy       string     `json:"fulfilledBy,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}
