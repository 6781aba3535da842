package repository

import (
	"context"

	"compliancehub/internal/model"
)

// UserRepository defines data access for authenticated parties.
type UserRepository interface {
	// FindByID returns a user by its stable identifier, or sql.ErrNoRows.
	FindByID(ctx context.Context, userID string) (*model.User, error)

	// Upsert inserts the user or updates role/factoryId when they changed.
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
}
