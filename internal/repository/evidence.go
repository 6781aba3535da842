package repository

import (
	"context"

	"compliancehub/internal/model"
)

// EvidenceRepository defines data access for evidence and its versions using
// SQL queries only. No business logic here — strictly persistence operations.
type EvidenceRepository interface {
	// CreateWithVersion inserts an evidence record together with its first
	// version in one transaction. Either both rows exist afterwards or neither.
	CreateWithVersion(ctx context.Context, ev *model.Evidence, ver *model.EvidenceVersion) (*model.Evidence, *model.EvidenceVersion, error)

	// FindByID returns an evidence record by its ID.
	FindByID(ctx context.Context, id string) (*model.Evidence, error)

	// ListByFactory returns all evidence owned by the given factory user,
	// newest first.
	ListByFactory(ctx context.Context, factoryUserID string) ([]model.Evidence, error)

	// ListGranted returns evidence having at least one version granted to the
	// given user, newest first.
	ListGranted(ctx context.Context, userID string) ([]model.Evidence, error)

	// ListAll returns every evidence record, newest first.
	ListAll(ctx context.Context) ([]model.Evidence, error)

	// MaxVersionNumber returns the highest version number assigned to the
	// evidence, or 0 when no versions exist.
	MaxVersionNumber(ctx context.Context, evidenceID string) (int, error)

	// CreateVersion inserts a new version row. The unique constraint on
	// (evidence_id, version_number) rejects duplicate numbers.
	CreateVersion(ctx context.Context, ver *model.EvidenceVersion) (*model.EvidenceVersion, error)

	// FindVersionByID returns a version by its ID.
	FindVersionByID(ctx context.Context, id string) (*model.EvidenceVersion, error)

	// ListVersions returns all versions of an evidence, version number descending.
	ListVersions(ctx context.Context, evidenceID string) ([]model.EvidenceVersion, error)

	// ListVersionsGranted returns only the versions of an evidence granted to
	// the given user, version number descending.
	ListVersionsGranted(ctx context.Context, evidenceID, userID string) ([]model.EvidenceVersion, error)
}
