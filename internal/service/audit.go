package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
)

// AuditListResult is the service-level DTO for paginated, normalized entries.
type AuditListResult struct {
	Items []model.NormalizedEntry `json:"data"`
	Total int                     `json:"total"`
}

// AuditService appends immutable audit entries and projects them into the
// display-stable normalized shape. It never triggers domain logic: recording
// is a one-way sink and projection is a pure function.
type AuditService interface {
	// Record appends one entry. The actor's identifier, role and the
	// recording timestamp are always injected into metadata before storage.
	// A failed append fails the caller: audit loss counts as a write failure
	// of the action itself.
	Record(ctx context.Context, actor *model.User, action model.AuditAction, objectType model.AuditObjectType, objectID string, metadata map[string]any) (*model.AuditLogEntry, error)

	// Project derives the normalized view of a stored entry. Pure and
	// deterministic: the same entry always yields the same view.
	Project(entry *model.AuditLogEntry) model.NormalizedEntry

	// ListEntries returns one page of normalized entries, timestamp
	// descending. Pages are independently reproducible; no cursor state is
	// kept between calls.
	ListEntries(ctx context.Context, page, pageSize int) (*AuditListResult, error)
}

const (
	defaultAuditPageSize = 20
	maxAuditPageSize     = 100
)

type auditService struct {
	repo     repository.AuditRepository
	recorded *prometheus.CounterVec
	now      func() time.Time
}

// NewAuditService constructs a new AuditService. reg may be nil to skip
// metric registration (tests).
func NewAuditService(repo repository.AuditRepository, reg prometheus.Registerer) AuditService {
	recorded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_recorded_total",
			Help: "Total number of audit events appended to the trail.",
		},
		[]string{"action", "object_type"},
	)
	if reg != nil {
		reg.MustRegister(recorded)
	}
	return &auditService{repo: repo, recorded: recorded, now: time.Now}
}

func (s *auditService) Record(ctx context.Context, actor *model.User, action model.AuditAction, objectType model.AuditObjectType, objectID string, metadata map[string]any) (*model.AuditLogEntry, error) {
	if actor == nil {
		return nil, fmt.Errorf("%w: actor is required", ErrValidation)
	}
	now := s.now().UTC()

	merged := make(map[string]any, len(metadata)+3)
	for k, v := range metadata {
		merged[k] = v
	}
	merged["actorUserId"] = actor.UserID
	merged["actorRole"] = string(actor.Role)
	merged["timestamp"] = now.Format(time.RFC3339Nano)

	entry := &model.AuditLogEntry{
		ID:             uuid.NewString(),
		Timestamp:      now,
		ActorUserID:    actor.UserID,
		ActorRole:      actor.Role,
		ActorFactoryID: actor.FactoryID,
		Action:         action,
		ObjectType:     objectType,
		ObjectID:       objectID,
		Metadata:       merged,
	}

	stored, err := s.repo.Append(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("audit append: %w", err)
	}
	s.recorded.WithLabelValues(string(action), string(objectType)).Inc()
	return stored, nil
}

// actionLabels maps raw action tags to their display labels. Object-specific
// overrides are checked first in Project.
var actionLabels = map[model.AuditAction]string{
	model.ActionCreate:   "CREATE",
	model.ActionUpdate:   "UPDATE",
	model.ActionDelete:   "DELETE",
	model.ActionDownload: "DOWNLOAD",
	model.ActionUpload:   "UPLOAD",
	model.ActionLogin:    "LOGIN",
}

func actionLabel(action model.AuditAction, objectType model.AuditObjectType) string {
	if action == model.ActionCreate {
		switch objectType {
		case model.ObjectRequest:
			return "CREATE_REQUEST"
		case model.ObjectEvidence:
			return "CREATE_EVIDENCE"
		case model.ObjectVersion:
			return "ADD_VERSION"
		}
	}
	if label, ok := actionLabels[action]; ok {
		return label
	}
	return strings.ToUpper(string(action))
}

// reservedMetaKeys are the keys Project consumes or produces itself;
// passthrough skips them.
var reservedMetaKeys = map[string]bool{
	"factoryId":      true,
	"buyerId":        true,
	"docType":        true,
	"previousStatus": true,
	"newStatus":      true,
	"changes":        true,
}

func (s *auditService) Project(entry *model.AuditLogEntry) model.NormalizedEntry {
	stored := entry.Metadata
	if stored == nil {
		stored = map[string]any{}
	}
	clean := map[string]any{}

	// factoryId: the actor's own factory identifier wins over stored metadata.
	if entry.ActorFactoryID != "" {
		clean["factoryId"] = entry.ActorFactoryID
	} else if v, ok := stored["factoryId"]; ok {
		clean["factoryId"] = v
	}

	// buyerId: inferred from a buyer actor only when the entry carries none.
	if entry.ActorRole == model.RoleBuyer {
		if _, ok := stored["buyerId"]; !ok {
			clean["buyerId"] = entry.ActorUserID
		}
	}
	if v, ok := stored["buyerId"]; ok {
		clean["buyerId"] = v
	}

	// docType applies only to evidence and version objects.
	if entry.ObjectType == model.ObjectEvidence || entry.ObjectType == model.ObjectVersion {
		if v, ok := stored["docType"]; ok {
			clean["docType"] = v
		} else {
			clean["docType"] = "unknown"
		}
	}

	// Status changes surface only for update actions carrying changes.status.
	if entry.Action == model.ActionUpdate {
		if changes, ok := stored["changes"].(map[string]any); ok {
			if raw, ok := changes["status"]; ok {
				if from, to, ok := statusPair(raw); ok {
					clean["previousStatus"] = from
					clean["newStatus"] = to
				} else if raw != nil {
					clean["newStatus"] = raw
				}
			}
		}
	}

	// Remaining keys pass through unchanged without overwriting produced ones.
	for k, v := range stored {
		if reservedMetaKeys[k] {
			continue
		}
		if _, exists := clean[k]; exists {
			continue
		}
		clean[k] = v
	}

	return model.NormalizedEntry{
		Timestamp:   entry.Timestamp,
		ActorUserID: entry.ActorUserID,
		ActorRole:   entry.ActorRole,
		Action:      actionLabel(entry.Action, entry.ObjectType),
		ObjectType:  string(entry.ObjectType),
		ObjectID:    entry.ObjectID,
		Metadata:    clean,
	}
}

// statusPair extracts a [from, to] pair from the stored changes.status value.
// JSON decoding yields []any; in-process callers may hand over []string.
func statusPair(raw any) (any, any, bool) {
	switch v := raw.(type) {
	case []any:
		if len(v) >= 2 {
			return v[0], v[1], true
		}
	case []string:
		if len(v) >= 2 {
			return v[0], v[1], true
		}
	}
	return nil, nil, false
}

func (s *auditService) ListEntries(ctx context.Context, page, pageSize int) (*AuditListResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultAuditPageSize
	}
	if pageSize > maxAuditPageSize {
		pageSize = maxAuditPageSize
	}

	res, err := s.repo.List(ctx, repository.PageQuery{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}

	items := make([]model.NormalizedEntry, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, s.Project(&res.Items[i]))
	}
	return &AuditListResult{Items: items, Total: res.Total}, nil
}
