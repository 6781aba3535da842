package postgres

import (
	"context"
	"database/sql"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
)

// GrantPostgres is a PostgreSQL implementation of repository.GrantRepository.
// Idempotency comes from ON CONFLICT DO NOTHING against the unique
// (version_id, user_id) constraint, so concurrent grants never error.
type GrantPostgres struct {
	db *sql.DB
}

// NewGrantPostgres creates a new GrantPostgres repository.
func NewGrantPostgres(db *sql.DB) *GrantPostgres {
	return &GrantPostgres{db: db}
}

var _ repository.GrantRepository = (*GrantPostgres)(nil)

// Create inserts the grant unless the pair already exists. Reports whether a
// row was written.
func (r *GrantPostgres) Create(ctx context.Context, grant *model.AccessGrant) (bool, error) {
	const q = `
		INSERT INTO access_grants (version_id, user_id, granted_by, granted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (version_id, user_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, q, grant.VersionID, grant.UserID, grant.GrantedBy, grant.GrantedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Find returns the grant for the pair, or sql.ErrNoRows.
func (r *GrantPostgres) Find(ctx context.Context, versionID, userID string) (*model.AccessGrant, error) {
	const q = `
		SELECT version_id, user_id, granted_by, granted_at
		FROM access_grants
		WHERE version_id = $1 AND user_id = $2
	`
	var g model.AccessGrant
	if err := r.db.QueryRowContext(ctx, q, versionID, userID).Scan(
		&g.VersionID, &g.UserID, &g.GrantedBy, &g.GrantedAt,
	); err != nil {
		return nil, err
	}
	return &g, nil
}

// Exists reports whether a grant exists for the pair.
func (r *GrantPostgres) Exists(ctx context.Context, versionID, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM access_grants WHERE version_id = $1 AND user_id = $2)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, versionID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ExistsForEvidence reports whether the user holds a grant on any version of
// the evidence.
func (r *GrantPostgres) ExistsForEvidence(ctx context.Context, evidenceID, userID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1
			FROM access_grants g
			JOIN evidence_versions v ON v.id = g.version_id
			WHERE v.evidence_id = $1 AND g.user_id = $2
		)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, q, evidenceID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}
