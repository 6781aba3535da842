package postgres

import (
	"context"
	"database/sql"
	"time"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
)

// RequestPostgres is a PostgreSQL implementation of repository.RequestRepository.
type RequestPostgres struct {
	db *sql.DB
}

// NewRequestPostgres creates a new RequestPostgres repository.
func NewRequestPostgres(db *sql.DB) *RequestPostgres {
	return &RequestPostgres{db: db}
}

var _ repository.RequestRepository = (*RequestPostgres)(nil)

const requestColumns = `id, title, buyer_user_id, factory_user_id, status, created_at, updated_at`

const itemColumns = `id, request_id, doc_type, status, evidence_version_id, fulfilled_at, fulfilled_by, notes, created_at`

func scanRequest(row interface{ Scan(...any) error }) (*model.Request, error) {
	var req model.Request
	if err := row.Scan(
		&req.ID,
		&req.Title,
		&req.BuyerUserID,
		&req.FactoryUserID,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func scanItem(row interface{ Scan(...any) error }) (*model.RequestItem, error) {
	var it model.RequestItem
	var versionID, fulfilledBy sql.NullString
	if err := row.Scan(
		&it.ID,
		&it.RequestID,
		&it.DocType,
		&it.Status,
		&versionID,
		&it.FulfilledAt,
		&fulfilledBy,
		&it.Notes,
		&it.CreatedAt,
	); err != nil {
		return nil, err
	}
	it.EvidenceVersionID = versionID.String
	it.FulfilledBy = fulfilledBy.String
	return &it, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateWithItems inserts the request and all items in one transaction.
func (r *RequestPostgres) CreateWithItems(ctx context.Context, req *model.Request, items []model.RequestItem) (*model.Request, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qReq = `
		INSERT INTO requests (id, title, buyer_user_id, factory_user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + requestColumns
	out, err := scanRequest(tx.QueryRowContext(ctx, qReq,
		req.ID, req.Title, req.BuyerUserID, req.FactoryUserID, req.Status, req.CreatedAt, req.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	const qItem = `
		INSERT INTO request_items (id, request_id, doc_type, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for i := range items {
		it := &items[i]
		if _, err := tx.ExecContext(ctx, qItem, it.ID, it.RequestID, it.DocType, it.Status, it.Notes, it.CreatedAt); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out.Items = items
	return out, nil
}

// FindByID fetches a request without its items.
func (r *RequestPostgres) FindByID(ctx context.Context, id string) (*model.Request, error) {
	const q = `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, q, id))
}

// ListItems returns the items of a request in creation order.
func (r *RequestPostgres) ListItems(ctx context.Context, requestID string) ([]model.RequestItem, error) {
	const q = `
		SELECT ` + itemColumns + `
		FROM request_items
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.RequestItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindItem fetches one item scoped to its owning request.
func (r *RequestPostgres) FindItem(ctx context.Context, requestID, itemID string) (*model.RequestItem, error) {
	const q = `SELECT ` + itemColumns + ` FROM request_items WHERE id = $1 AND request_id = $2`
	return scanItem(r.db.QueryRowContext(ctx, q, itemID, requestID))
}

// MarkItemFulfilled writes the fulfillment fields for a pending item.
func (r *RequestPostgres) MarkItemFulfilled(ctx context.Context, item *model.RequestItem) error {
	const q = `
		UPDATE request_items
		SET status = $1, evidence_version_id = $2, fulfilled_at = $3, fulfilled_by = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, q,
		item.Status, nullable(item.EvidenceVersionID), item.FulfilledAt, nullable(item.FulfilledBy), item.ID,
	)
	return err
}

// MarkItemRejected writes rejected status and notes for an item.
func (r *RequestPostgres) MarkItemRejected(ctx context.Context, item *model.RequestItem) error {
	const q = `UPDATE request_items SET status = $1, notes = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, q, item.Status, item.Notes, item.ID)
	return err
}

// UpdateStatus sets the request status and bumps updated_at.
func (r *RequestPostgres) UpdateStatus(ctx context.Context, requestID string, status model.RequestStatus) error {
	const q = `UPDATE requests SET status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, q, status, time.Now().UTC(), requestID)
	return err
}

// ListByBuyer returns requests created by the buyer, newest first.
func (r *RequestPostgres) ListByBuyer(ctx context.Context, buyerUserID string) ([]model.Request, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE buyer_user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.queryRequests(ctx, q, buyerUserID)
}

// ListByFactory returns requests addressed to the factory, newest first,
// optionally filtered by status.
func (r *RequestPostgres) ListByFactory(ctx context.Context, factoryUserID string, status model.RequestStatus) ([]model.Request, error) {
	if status == "" {
		const q = `
			SELECT ` + requestColumns + `
			FROM requests
			WHERE factory_user_id = $1
			ORDER BY created_at DESC, id DESC
		`
		return r.queryRequests(ctx, q, factoryUserID)
	}
	const q = `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE factory_user_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
	`
	return r.queryRequests(ctx, q, factoryUserID, status)
}

// ListAll returns every request, newest first.
func (r *RequestPostgres) ListAll(ctx context.Context) ([]model.Request, error) {
	const q = `SELECT ` + requestColumns + ` FROM requests ORDER BY created_at DESC, id DESC`
	return r.queryRequests(ctx, q)
}

func (r *RequestPostgres) queryRequests(ctx context.Context, q string, args ...any) ([]model.Request, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
