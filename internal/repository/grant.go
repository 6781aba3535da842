package repository

import (
	"context"

	"compliancehub/internal/model"
)

// GrantRepository defines data access for access grants. The table carries a
// unique constraint on (version_id, user_id); Create relies on it for
// idempotency instead of read-then-insert.
type GrantRepository interface {
	// Create inserts the grant unless the (version, user) pair already exists.
	// It reports whether a new row was written.
	Create(ctx context.Context, grant *model.AccessGrant) (bool, error)

	// Find returns the grant for the pair, or sql.ErrNoRows.
	Find(ctx context.Context, versionID, userID string) (*model.AccessGrant, error)

	// Exists reports whether a grant exists for the pair.
	Exists(ctx context.Context, versionID, userID string) (bool, error)

	// ExistsForEvidence reports whether the user holds a grant on any version
	// of the evidence.
	ExistsForEvidence(ctx context.Context, evidenceID, userID string) (bool, error)
}
