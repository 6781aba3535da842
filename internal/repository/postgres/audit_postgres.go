package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
// Metadata is stored as JSONB. Append-only: no UPDATE or DELETE statements
// exist in this file.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

const auditColumns = `id, ts, actor_user_id, actor_role, actor_factory_id, action, object_type, object_id, metadata`

func scanAuditEntry(row interface{ Scan(...any) error }) (*model.AuditLogEntry, error) {
	var e model.AuditLogEntry
	var actorUserID, actorRole, actorFactoryID sql.NullString
	var raw []byte
	if err := row.Scan(
		&e.ID,
		&e.Timestamp,
		&actorUserID,
		&actorRole,
		&actorFactoryID,
		&e.Action,
		&e.ObjectType,
		&e.ObjectID,
		&raw,
	); err != nil {
		return nil, err
	}
	e.ActorUserID = actorUserID.String
	e.ActorRole = model.Role(actorRole.String)
	e.ActorFactoryID = actorFactoryID.String
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &e.Metadata); err != nil {
			return nil, err
		}
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	return &e, nil
}

// Append inserts one entry and returns the stored record.
func (r *AuditPostgres) Append(ctx context.Context, entry *model.AuditLogEntry) (*model.AuditLogEntry, error) {
	raw, err := json.Marshal(entry.Metadata)
	if err != nil {
		return nil, err
	}

	const q = `
		INSERT INTO audit_logs (id, ts, actor_user_id, actor_role, actor_factory_id, action, object_type, object_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + auditColumns
	return scanAuditEntry(r.db.QueryRowContext(ctx, q,
		entry.ID,
		entry.Timestamp,
		nullable(entry.ActorUserID),
		nullable(string(entry.ActorRole)),
		nullable(entry.ActorFactoryID),
		entry.Action,
		entry.ObjectType,
		entry.ObjectID,
		raw,
	))
}

// List returns entries ordered by timestamp descending with a total count.
func (r *AuditPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.AuditLogEntry], error) {
	const qCount = `SELECT COUNT(*) FROM audit_logs`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + auditColumns + `
		FROM audit_logs
		ORDER BY ts DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditLogEntry, 0)
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.AuditLogEntry]{
		Items: items,
		Total: total,
	}, nil
}
