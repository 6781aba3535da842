package postgres

import (
	"context"
	"database/sql"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = `user_id, role, factory_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var factoryID sql.NullString
	if err := row.Scan(&u.UserID, &u.Role, &factoryID, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.FactoryID = factoryID.String
	return &u, nil
}

// FindByID fetches a user by its stable identifier.
func (r *UserPostgres) FindByID(ctx context.Context, userID string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, userID))
}

// Upsert inserts the user or refreshes role/factory_id when they changed.
func (r *UserPostgres) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (user_id, role, factory_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, factory_id = EXCLUDED.factory_id
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, q,
		user.UserID, user.Role, nullable(user.FactoryID), user.CreatedAt,
	))
}
