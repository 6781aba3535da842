package service

import (
	"context"
	"sync"
	"time"

	"compliancehub/internal/model"

	"github.com/google/uuid"
)

// stubAudit is an in-memory AuditService for exercising the domain services.
// It captures every recorded event; a non-nil err makes Record fail, which
// must fail the caller too.
type stubAudit struct {
	mu     sync.Mutex
	err    error
	events []stubEvent
}

type stubEvent struct {
	actorID    string
	action     model.AuditAction
	objectType model.AuditObjectType
	objectID   string
	metadata   map[string]any
}

func (s *stubAudit) Record(ctx context.Context, actor *model.User, action model.AuditAction, objectType model.AuditObjectType, objectID string, metadata map[string]any) (*model.AuditLogEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, stubEvent{
		actorID:    actor.UserID,
		action:     action,
		objectType: objectType,
		objectID:   objectID,
		metadata:   metadata,
	})
	return &model.AuditLogEntry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		Action:      action,
		ObjectType:  objectType,
		ObjectID:    objectID,
		Metadata:    metadata,
	}, nil
}

func (s *stubAudit) Project(entry *model.AuditLogEntry) model.NormalizedEntry {
	return model.NormalizedEntry{}
}

func (s *stubAudit) ListEntries(ctx context.Context, page, pageSize int) (*AuditListResult, error) {
	return &AuditListResult{}, nil
}

func (s *stubAudit) recorded() []stubEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]stubEvent, len(s.events))
	copy(out, s.events)
	return out
}

// stubGrants is an in-memory GrantService tracking granted pairs.
type stubGrants struct {
	mu      sync.Mutex
	err     error
	granted []model.AccessGrant
}

func (s *stubGrants) Grant(ctx context.Context, versionID, userID, grantedBy string) (*model.AccessGrant, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.granted {
		if s.granted[i].VersionID == versionID && s.granted[i].UserID == userID {
			return &s.granted[i], nil
		}
	}
	g := model.AccessGrant{VersionID: versionID, UserID: userID, GrantedBy: grantedBy, GrantedAt: time.Now().UTC()}
	s.granted = append(s.granted, g)
	return &g, nil
}

func (s *stubGrants) HasGrant(ctx context.Context, versionID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.granted {
		if s.granted[i].VersionID == versionID && s.granted[i].UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
