package service

import (
	"context"
	"fmt"
	"time"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
)

// GrantService is the access-grant ledger: it records which versions are
// visible to which non-owning users. Grants are a side effect of request
// fulfillment (already audited there), so they carry no audit events of
// their own.
type GrantService interface {
	// Grant creates the (version, user) grant if absent and returns the
	// existing grant unchanged if present. Never an error on repeats.
	Grant(ctx context.Context, versionID, userID, grantedBy string) (*model.AccessGrant, error)

	// HasGrant reports whether the pair is granted. Pure query.
	HasGrant(ctx context.Context, versionID, userID string) (bool, error)
}

type grantService struct {
	repo repository.GrantRepository
	now  func() time.Time
}

// NewGrantService constructs a new GrantService.
func NewGrantService(repo repository.GrantRepository) GrantService {
	return &grantService{repo: repo, now: time.Now}
}

func (s *grantService) Grant(ctx context.Context, versionID, userID, grantedBy string) (*model.AccessGrant, error) {
	if versionID == "" || userID == "" {
		return nil, fmt.Errorf("%w: version and user are required", ErrValidation)
	}

	grant := &model.AccessGrant{
		VersionID: versionID,
		UserID:    userID,
		GrantedBy: grantedBy,
		GrantedAt: s.now().UTC(),
	}
	created, err := s.repo.Create(ctx, grant)
	if err != nil {
		return nil, err
	}
	if created {
		return grant, nil
	}
	// Pair already granted: hand back the original row untouched.
	return s.repo.Find(ctx, versionID, userID)
}

func (s *grantService) HasGrant(ctx context.Context, versionID, userID string) (bool, error) {
	return s.repo.Exists(ctx, versionID, userID)
}
