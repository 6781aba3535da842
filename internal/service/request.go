package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
)

// RequestService is the request workflow engine. It owns the Request and
// RequestItem state machines, consults the evidence store for ownership
// checks, grants buyer visibility on fulfillment, and derives request
// completion from item states.
//
// Status transitions: items go pending -> fulfilled | rejected (terminal).
// A request starts pending, moves to in_progress when its first item turns
// terminal while siblings remain pending, completes when every item is
// terminal, and may be cancelled by its buyer while pending or in progress.
type RequestService interface {
	// CreateRequest creates a request with one pending item per docType.
	CreateRequest(ctx context.Context, buyer *model.User, factoryUserID, title string, itemDocTypes []string) (*model.Request, error)

	// FulfillItem marks the item fulfilled with the given version, grants the
	// buyer access to that version, and re-derives the request status.
	FulfillItem(ctx context.Context, requestID, itemID string, actor *model.User, versionID string) (*model.Request, error)

	// RejectItem marks the item rejected and re-derives the request status.
	RejectItem(ctx context.Context, requestID, itemID string, actor *model.User, notes string) (*model.Request, error)

	// CancelRequest cancels a pending or in-progress request. Buyer only.
	CancelRequest(ctx context.Context, requestID string, actor *model.User) (*model.Request, error)

	// GetRequest returns a request with items, subject to party visibility.
	GetRequest(ctx context.Context, requestID string, actor *model.User) (*model.Request, error)

	// ListRequests returns the requests visible to the actor, newest first.
	// status filters factory listings; it is ignored for buyers and admins.
	ListRequests(ctx context.Context, actor *model.User, status model.RequestStatus) ([]model.Request, error)
}

type requestService struct {
	repo     repository.RequestRepository
	evidence repository.EvidenceRepository
	users    repository.UserRepository
	grants   GrantService
	audit    AuditService
	locks    *keyMutex
	now      func() time.Time
}

// NewRequestService constructs a new RequestService.
func NewRequestService(repo repository.RequestRepository, evidence repository.EvidenceRepository, users repository.UserRepository, grants GrantService, audit AuditService) RequestService {
	return &requestService{
		repo:     repo,
		evidence: evidence,
		users:    users,
		grants:   grants,
		audit:    audit,
		locks:    newKeyMutex(),
		now:      time.Now,
	}
}

func (s *requestService) CreateRequest(ctx context.Context, buyer *model.User, factoryUserID, title string, itemDocTypes []string) (*model.Request, error) {
	if !buyer.IsBuyer() {
		return nil, fmt.Errorf("%w: only buyers can create requests", ErrValidation)
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if len(itemDocTypes) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for _, dt := range itemDocTypes {
		if dt == "" {
			return nil, fmt.Errorf("%w: every item needs a docType", ErrValidation)
		}
	}

	factory, err := s.users.FindByID(ctx, factoryUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: unknown factory", ErrValidation)
		}
		return nil, err
	}
	if !factory.IsFactory() {
		return nil, fmt.Errorf("%w: addressee is not a factory", ErrValidation)
	}

	now := s.now().UTC()
	req := &model.Request{
		ID:            uuid.NewString(),
		Title:         title,
		BuyerUserID:   buyer.UserID,
		FactoryUserID: factory.UserID,
		Status:        model.RequestPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	items := make([]model.RequestItem, 0, len(itemDocTypes))
	for _, dt := range itemDocTypes {
		items = append(items, model.RequestItem{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			DocType:   dt,
			Status:    model.ItemPending,
			CreatedAt: now,
		})
	}

	stored, err := s.repo.CreateWithItems(ctx, req, items)
	if err != nil {
		return nil, err
	}

	if _, err := s.audit.Record(ctx, buyer, model.ActionCreate, model.ObjectRequest, stored.ID, requestCreatedMeta(stored)); err != nil {
		return nil, err
	}
	return stored, nil
}

// loadRequestFor fetches the request and enforces party visibility. Buyers
// and factories that are not a named party get not-found, never a hint that
// the request exists.
func (s *requestService) loadRequestFor(ctx context.Context, requestID string, actor *model.User) (*model.Request, error) {
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: request", ErrNotFound)
		}
		return nil, err
	}
	if actor.IsAdmin() || req.BuyerUserID == actor.UserID || req.FactoryUserID == actor.UserID {
		return req, nil
	}
	return nil, fmt.Errorf("%w: request", ErrNotFound)
}

func (s *requestService) FulfillItem(ctx context.Context, requestID, itemID string, actor *model.User, versionID string) (*model.Request, error) {
	req, err := s.loadRequestFor(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}
	if req.FactoryUserID != actor.UserID {
		return nil, fmt.Errorf("%w: only the receiving factory can fulfill items", ErrPermission)
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: request is %s", ErrConflict, req.Status)
	}

	ver, err := s.evidence.FindVersionByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: version", ErrNotFound)
		}
		return nil, err
	}
	ev, err := s.evidence.FindByID(ctx, ver.EvidenceID)
	if err != nil {
		return nil, err
	}
	if ev.FactoryUserID != actor.UserID {
		return nil, fmt.Errorf("%w: version not under your control", ErrValidation)
	}

	// Item mutation and the completion re-check hold the per-request lock so
	// sibling fulfillments cannot race the all-terminal decision.
	s.locks.Lock(req.ID)
	defer s.locks.Unlock(req.ID)

	item, err := s.repo.FindItem(ctx, req.ID, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: request item", ErrNotFound)
		}
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, fmt.Errorf("%w: item already %s", ErrConflict, item.Status)
	}

	now := s.now().UTC()
	item.Status = model.ItemFulfilled
	item.EvidenceVersionID = ver.ID
	item.FulfilledAt = &now
	item.FulfilledBy = actor.UserID
	if err := s.repo.MarkItemFulfilled(ctx, item); err != nil {
		return nil, err
	}

	if _, err := s.grants.Grant(ctx, ver.ID, req.BuyerUserID, actor.UserID); err != nil {
		return nil, err
	}

	if _, err := s.audit.Record(ctx, actor, model.ActionUpdate, model.ObjectRequestItem, item.ID, itemFulfilledMeta(req, item, ver)); err != nil {
		return nil, err
	}

	return s.settleStatus(ctx, req.ID, actor)
}

func (s *requestService) RejectItem(ctx context.Context, requestID, itemID string, actor *model.User, notes string) (*model.Request, error) {
	req, err := s.loadRequestFor(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}
	if req.FactoryUserID != actor.UserID {
		return nil, fmt.Errorf("%w: only the receiving factory can reject items", ErrPermission)
	}
	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: request is %s", ErrConflict, req.Status)
	}

	s.locks.Lock(req.ID)
	defer s.locks.Unlock(req.ID)

	item, err := s.repo.FindItem(ctx, req.ID, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: request item", ErrNotFound)
		}
		return nil, err
	}
	if item.Status.Terminal() {
		return nil, fmt.Errorf("%w: item already %s", ErrConflict, item.Status)
	}

	item.Status = model.ItemRejected
	item.Notes = notes
	if err := s.repo.MarkItemRejected(ctx, item); err != nil {
		return nil, err
	}

	if _, err := s.audit.Record(ctx, actor, model.ActionUpdate, model.ObjectRequestItem, item.ID, itemStatusMeta(req, item, model.ItemPending, model.ItemRejected)); err != nil {
		return nil, err
	}

	return s.settleStatus(ctx, req.ID, actor)
}

// settleStatus re-derives the request status from its items: completed when
// every item is terminal, in_progress when some are. Must be called with the
// per-request lock held so completion flips exactly once.
func (s *requestService) settleStatus(ctx context.Context, requestID string, actor *model.User) (*model.Request, error) {
	// Re-read under the lock: the status loaded before the lock is stale when
	// a sibling settlement got there first.
	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListItems(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	allTerminal := true
	anyTerminal := false
	for i := range items {
		if items[i].Status.Terminal() {
			anyTerminal = true
		} else {
			allTerminal = false
		}
	}

	next := req.Status
	switch {
	case req.Status.Terminal():
		// Already settled, nothing left to derive.
	case allTerminal:
		next = model.RequestCompleted
	case anyTerminal && req.Status == model.RequestPending:
		next = model.RequestInProgress
	}

	if next != req.Status {
		if err := s.repo.UpdateStatus(ctx, req.ID, next); err != nil {
			return nil, err
		}
		if _, err := s.audit.Record(ctx, actor, model.ActionUpdate, model.ObjectRequest, req.ID, requestStatusMeta(req, req.Status, next)); err != nil {
			return nil, err
		}
		req.Status = next
	}

	req.Items = items
	return req, nil
}

func (s *requestService) CancelRequest(ctx context.Context, requestID string, actor *model.User) (*model.Request, error) {
	req, err := s.loadRequestFor(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}
	if req.BuyerUserID != actor.UserID {
		return nil, fmt.Errorf("%w: only the buyer can cancel a request", ErrPermission)
	}

	s.locks.Lock(req.ID)
	defer s.locks.Unlock(req.ID)

	// Re-read under the lock: a concurrent fulfillment may have completed it.
	current, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if current.Status.Terminal() {
		return nil, fmt.Errorf("%w: request is %s", ErrConflict, current.Status)
	}

	if err := s.repo.UpdateStatus(ctx, current.ID, model.RequestCancelled); err != nil {
		return nil, err
	}
	// Cancellation is the one transition attributed to the buyer: the party
	// causing a transition is always the audit actor.
	if _, err := s.audit.Record(ctx, actor, model.ActionUpdate, model.ObjectRequest, current.ID, requestStatusMeta(current, current.Status, model.RequestCancelled)); err != nil {
		return nil, err
	}

	current.Status = model.RequestCancelled
	current.Items, err = s.repo.ListItems(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	return current, nil
}

func (s *requestService) GetRequest(ctx context.Context, requestID string, actor *model.User) (*model.Request, error) {
	req, err := s.loadRequestFor(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}
	req.Items, err = s.repo.ListItems(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *requestService) ListRequests(ctx context.Context, actor *model.User, status model.RequestStatus) ([]model.Request, error) {
	switch {
	case actor.IsFactory():
		return s.repo.ListByFactory(ctx, actor.UserID, status)
	case actor.IsBuyer():
		return s.repo.ListByBuyer(ctx, actor.UserID)
	default:
		return s.repo.ListAll(ctx)
	}
}
