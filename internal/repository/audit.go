package repository

import (
	"context"

	"compliancehub/internal/model"
)

// AuditRepository defines data access for the append-only audit trail.
// There is deliberately no update or delete.
type AuditRepository interface {
	// Append inserts one entry and returns the stored record.
	Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error)

	// List returns entries ordered by timestamp descending with a total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.AuditLogEntry], error)
}
