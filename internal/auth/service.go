package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
	"compliancehub/internal/service"
)

// LoginInput carries the credentials and client details for one login.
// Client details feed the login audit event only.
type LoginInput struct {
	UserID    string
	Role      model.Role
	FactoryID string
	IPAddress string
	UserAgent string
}

// LoginResult is handed back to the HTTP layer.
type LoginResult struct {
	User   *model.User `json:"user"`
	Tokens *TokenPair  `json:"tokens"`
}

// Service is the authentication provider: it maintains user records, issues
// tokens on login and resolves bearer tokens back into actors.
type Service struct {
	users  repository.UserRepository
	tokens *TokenService
	audit  service.AuditService
	now    func() time.Time
}

// NewService constructs an auth Service.
func NewService(users repository.UserRepository, tokens *TokenService, audit service.AuditService) *Service {
	return &Service{users: users, tokens: tokens, audit: audit, now: time.Now}
}

// Login upserts the user record, issues a token pair and records a login
// audit event.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", service.ErrValidation)
	}
	switch in.Role {
	case model.RoleBuyer, model.RoleFactory, model.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: invalid role", service.ErrValidation)
	}
	if in.Role == model.RoleFactory && in.FactoryID == "" {
		return nil, fmt.Errorf("%w: factoryId is required for factory users", service.ErrValidation)
	}

	factoryID := ""
	if in.Role == model.RoleFactory {
		factoryID = in.FactoryID
	}
	user, err := s.users.Upsert(ctx, &model.User{
		UserID:    in.UserID,
		Role:      in.Role,
		FactoryID: factoryID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if in.IPAddress != "" {
		meta["ipAddress"] = in.IPAddress
	}
	if in.UserAgent != "" {
		meta["userAgent"] = in.UserAgent
	}
	if _, err := s.audit.Record(ctx, user, model.ActionLogin, model.ObjectUser, user.UserID, meta); err != nil {
		return nil, err
	}

	return &LoginResult{User: user, Tokens: pair}, nil
}

// Resolve turns a bearer token into the authoritative user record.
func (s *Service) Resolve(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateAccess(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
