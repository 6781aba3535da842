package postgres

import (
	"context"
	"database/sql"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
)

// EvidencePostgres is a PostgreSQL implementation of repository.EvidenceRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type EvidencePostgres struct {
	db *sql.DB
}

// NewEvidencePostgres creates a new EvidencePostgres repository.
func NewEvidencePostgres(db *sql.DB) *EvidencePostgres {
	return &EvidencePostgres{db: db}
}

var _ repository.EvidenceRepository = (*EvidencePostgres)(nil)

const evidenceColumns = `id, name, doc_type, factory_user_id, created_at`

const versionColumns = `id, evidence_id, version_number, notes, expiry_date, storage_path, created_by, created_at`

func scanEvidence(row interface{ Scan(...any) error }) (*model.Evidence, error) {
	var e model.Evidence
	if err := row.Scan(&e.ID, &e.Name, &e.DocType, &e.FactoryUserID, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func scanVersion(row interface{ Scan(...any) error }) (*model.EvidenceVersion, error) {
	var v model.EvidenceVersion
	if err := row.Scan(
		&v.ID,
		&v.EvidenceID,
		&v.VersionNumber,
		&v.Notes,
		&v.ExpiryDate,
		&v.StoragePath,
		&v.CreatedBy,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateWithVersion inserts the evidence row and its first version in one
// transaction so a failed version insert leaves no orphaned evidence.
func (r *EvidencePostgres) CreateWithVersion(ctx context.Context, ev *model.Evidence, ver *model.EvidenceVersion) (*model.Evidence, *model.EvidenceVersion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	const qEvidence = `
		INSERT INTO evidence (id, name, doc_type, factory_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + evidenceColumns
	outEv, err := scanEvidence(tx.QueryRowContext(ctx, qEvidence,
		ev.ID, ev.Name, ev.DocType, ev.FactoryUserID, ev.CreatedAt,
	))
	if err != nil {
		return nil, nil, err
	}

	const qVersion = `
		INSERT INTO evidence_versions (id, evidence_id, version_number, notes, expiry_date, storage_path, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + versionColumns
	outVer, err := scanVersion(tx.QueryRowContext(ctx, qVersion,
		ver.ID, ver.EvidenceID, ver.VersionNumber, ver.Notes, ver.ExpiryDate, ver.StoragePath, ver.CreatedBy, ver.CreatedAt,
	))
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return outEv, outVer, nil
}

// FindByID fetches a single evidence record by its ID.
func (r *EvidencePostgres) FindByID(ctx context.Context, id string) (*model.Evidence, error) {
	const q = `SELECT ` + evidenceColumns + ` FROM evidence WHERE id = $1`
	return scanEvidence(r.db.QueryRowContext(ctx, q, id))
}

// ListByFactory returns evidence owned by the factory, newest first.
func (r *EvidencePostgres) ListByFactory(ctx context.Context, factoryUserID string) ([]model.Evidence, error) {
	const q = `
		SELECT ` + evidenceColumns + `
		FROM evidence
		WHERE factory_user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.queryEvidence(ctx, q, factoryUserID)
}

// ListGranted returns evidence with at least one version granted to the user,
// newest first.
func (r *EvidencePostgres) ListGranted(ctx context.Context, userID string) ([]model.Evidence, error) {
	const q = `
		SELECT DISTINCT e.id, e.name, e.doc_type, e.factory_user_id, e.created_at
		FROM evidence e
		JOIN evidence_versions v ON v.evidence_id = e.id
		JOIN access_grants g ON g.version_id = v.id
		WHERE g.user_id = $1
		ORDER BY e.created_at DESC, e.id DESC
	`
	return r.queryEvidence(ctx, q, userID)
}

// ListAll returns every evidence record, newest first.
func (r *EvidencePostgres) ListAll(ctx context.Context) ([]model.Evidence, error) {
	const q = `SELECT ` + evidenceColumns + ` FROM evidence ORDER BY created_at DESC, id DESC`
	return r.queryEvidence(ctx, q)
}

func (r *EvidencePostgres) queryEvidence(ctx context.Context, q string, args ...any) ([]model.Evidence, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Evidence, 0)
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MaxVersionNumber returns the highest assigned version number, or 0.
func (r *EvidencePostgres) MaxVersionNumber(ctx context.Context, evidenceID string) (int, error) {
	const q = `SELECT COALESCE(MAX(version_number), 0) FROM evidence_versions WHERE evidence_id = $1`
	var max int
	if err := r.db.QueryRowContext(ctx, q, evidenceID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

// CreateVersion inserts a new version row and returns the stored record.
func (r *EvidencePostgres) CreateVersion(ctx context.Context, ver *model.EvidenceVersion) (*model.EvidenceVersion, error) {
	const q = `
		INSERT INTO evidence_versions (id, evidence_id, version_number, notes, expiry_date, storage_path, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + versionColumns
	return scanVersion(r.db.QueryRowContext(ctx, q,
		ver.ID, ver.EvidenceID, ver.VersionNumber, ver.Notes, ver.ExpiryDate, ver.StoragePath, ver.CreatedBy, ver.CreatedAt,
	))
}

// FindVersionByID fetches a single version by its ID.
func (r *EvidencePostgres) FindVersionByID(ctx context.Context, id string) (*model.EvidenceVersion, error) {
	const q = `SELECT ` + versionColumns + ` FROM evidence_versions WHERE id = $1`
	return scanVersion(r.db.QueryRowContext(ctx, q, id))
}

// ListVersions returns all versions of an evidence, highest number first.
func (r *EvidencePostgres) ListVersions(ctx context.Context, evidenceID string) ([]model.EvidenceVersion, error) {
	const q = `
		SELECT ` + versionColumns + `
		FROM evidence_versions
		WHERE evidence_id = $1
		ORDER BY version_number DESC
	`
	return r.queryVersions(ctx, q, evidenceID)
}

// ListVersionsGranted returns only versions granted to the user, highest
// number first.
func (r *EvidencePostgres) ListVersionsGranted(ctx context.Context, evidenceID, userID string) ([]model.EvidenceVersion, error) {
	const q = `
		SELECT v.id, v.evidence_id, v.version_number, v.notes, v.expiry_date, v.storage_path, v.created_by, v.created_at
		FROM evidence_versions v
		JOIN access_grants g ON g.version_id = v.id
		WHERE v.evidence_id = $1 AND g.user_id = $2
		ORDER BY v.version_number DESC
	`
	return r.queryVersions(ctx, q, evidenceID, userID)
}

func (r *EvidencePostgres) queryVersions(ctx context.Context, q string, args ...any) ([]model.EvidenceVersion, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.EvidenceVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
