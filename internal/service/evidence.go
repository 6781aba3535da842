package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"compliancehub/internal/model"
	"compliancehub/internal/repository"
	"compliancehub/internal/storage"
)

// VersionInput carries the caller-supplied fields for one new evidence
// version. The file is streamed to object storage; the core never inspects
// its content.
type VersionInput struct {
	Notes       string
	ExpiryDate  *time.Time
	File        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// EvidenceService owns evidence records and their ordered version history.
// Version numbers per evidence are strictly increasing from 1 with no gaps;
// the per-evidence lock serializes the read-then-write and the unique
// constraint on (evidence_id, version_number) is the hard backstop.
type EvidenceService interface {
	// CreateEvidence creates an evidence record and its version 1 atomically.
	// Only factory users may create evidence.
	CreateEvidence(ctx context.Context, actor *model.User, name, docType string, initial VersionInput) (*model.Evidence, *model.EvidenceVersion, error)

	// AddVersion appends the next version to an evidence owned by actor.
	AddVersion(ctx context.Context, evidenceID string, actor *model.User, in VersionInput) (*model.EvidenceVersion, error)

	// CanAccess reports whether user may see the version: owning factory, or
	// holder of an access grant. Pure query.
	CanAccess(ctx context.Context, versionID string, user *model.User) (bool, error)

	// ListVersions returns versions visible to requester, version number
	// descending. Owners see all; buyers see granted versions only.
	ListVersions(ctx context.Context, evidenceID string, requester *model.User) ([]model.EvidenceVersion, error)

	// ListEvidence returns evidence visible to requester: own records for a
	// factory, granted records for a buyer, everything for an admin.
	ListEvidence(ctx context.Context, requester *model.User) ([]model.Evidence, error)

	// DownloadURL returns a presigned locator for the version's file and
	// records a download audit event.
	DownloadURL(ctx context.Context, versionID string, actor *model.User) (string, error)
}

const versionURLExpiry = 15 * time.Minute

type evidenceService struct {
	repo   repository.EvidenceRepository
	grants repository.GrantRepository
	store  storage.Storage
	audit  AuditService
	locks  *keyMutex
	now    func() time.Time
}

// NewEvidenceService constructs a new EvidenceService.
func NewEvidenceService(repo repository.EvidenceRepository, grants repository.GrantRepository, store storage.Storage, audit AuditService) EvidenceService {
	return &evidenceService{
		repo:   repo,
		grants: grants,
		store:  store,
		audit:  audit,
		locks:  newKeyMutex(),
		now:    time.Now,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// putVersionFile streams the version payload to object storage under a
// generated key, keeping only the extension from the original filename.
func (s *evidenceService) putVersionFile(ctx context.Context, in VersionInput) (string, error) {
	if in.File == nil {
		return "", fmt.Errorf("%w: version file is required", ErrValidation)
	}
	ext := filepath.Ext(in.Filename)
	key := filepath.ToSlash(filepath.Join("evidence", uuid.NewString()+ext))

	info, err := s.store.Put(ctx, key, in.File, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.Filename,
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload to storage: %w", err)
	}
	return info.Key, nil
}

func (s *evidenceService) CreateEvidence(ctx context.Context, actor *model.User, name, docType string, initial VersionInput) (*model.Evidence, *model.EvidenceVersion, error) {
	if !actor.IsFactory() {
		return nil, nil, fmt.Errorf("%w: only factory users can create evidence", ErrValidation)
	}
	if name == "" || docType == "" {
		return nil, nil, fmt.Errorf("%w: name and docType are required", ErrValidation)
	}

	key, err := s.putVersionFile(ctx, initial)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	ev := &model.Evidence{
		ID:            uuid.NewString(),
		Name:          name,
		DocType:       docType,
		FactoryUserID: actor.UserID,
		CreatedAt:     now,
	}
	ver := &model.EvidenceVersion{
		ID:            uuid.NewString(),
		EvidenceID:    ev.ID,
		VersionNumber: 1,
		Notes:         initial.Notes,
		ExpiryDate:    initial.ExpiryDate,
		StoragePath:   key,
		CreatedBy:     actor.UserID,
		CreatedAt:     now,
	}

	storedEv, storedVer, err := s.repo.CreateWithVersion(ctx, ev, ver)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, nil, fmt.Errorf("db save failed: %w", err)
	}

	if _, err := s.audit.Record(ctx, actor, model.ActionCreate, model.ObjectEvidence, storedEv.ID, evidenceCreatedMeta(storedEv)); err != nil {
		return nil, nil, err
	}
	if _, err := s.audit.Record(ctx, actor, model.ActionCreate, model.ObjectVersion, storedVer.ID, versionAddedMeta(storedEv, storedVer)); err != nil {
		return nil, nil, err
	}
	return storedEv, storedVer, nil
}

func (s *evidenceService) AddVersion(ctx context.Context, evidenceID string, actor *model.User, in VersionInput) (*model.EvidenceVersion, error) {
	ev, err := s.repo.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: evidence", ErrNotFound)
		}
		return nil, err
	}
	if !actor.IsFactory() || ev.FactoryUserID != actor.UserID {
		return nil, fmt.Errorf("%w: you can only add versions to your own evidence", ErrPermission)
	}

	key, err := s.putVersionFile(ctx, in)
	if err != nil {
		return nil, err
	}

	// Serialize number assignment per evidence so concurrent additions never
	// duplicate or skip a number.
	s.locks.Lock(ev.ID)
	defer s.locks.Unlock(ev.ID)

	max, err := s.repo.MaxVersionNumber(ctx, ev.ID)
	if err != nil {
		return nil, err
	}

	ver := &model.EvidenceVersion{
		ID:            uuid.NewString(),
		EvidenceID:    ev.ID,
		VersionNumber: max + 1,
		Notes:         in.Notes,
		ExpiryDate:    in.ExpiryDate,
		StoragePath:   key,
		CreatedBy:     actor.UserID,
		CreatedAt:     s.now().UTC(),
	}
	stored, err := s.repo.CreateVersion(ctx, ver)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: version number already assigned", ErrConflict)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if _, err := s.audit.Record(ctx, actor, model.ActionCreate, model.ObjectVersion, stored.ID, versionAddedMeta(ev, stored)); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *evidenceService) CanAccess(ctx context.Context, versionID string, user *model.User) (bool, error) {
	ver, err := s.repo.FindVersionByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: version", ErrNotFound)
		}
		return false, err
	}
	ev, err := s.repo.FindByID(ctx, ver.EvidenceID)
	if err != nil {
		return false, err
	}
	if user.IsFactory() && ev.FactoryUserID == user.UserID {
		return true, nil
	}
	return s.grants.Exists(ctx, versionID, user.UserID)
}

func (s *evidenceService) ListVersions(ctx context.Context, evidenceID string, requester *model.User) ([]model.EvidenceVersion, error) {
	ev, err := s.repo.FindByID(ctx, evidenceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: evidence", ErrNotFound)
		}
		return nil, err
	}

	switch {
	case requester.IsAdmin(), requester.IsFactory() && ev.FactoryUserID == requester.UserID:
		return s.repo.ListVersions(ctx, ev.ID)
	case requester.IsBuyer():
		granted, err := s.grants.ExistsForEvidence(ctx, ev.ID, requester.UserID)
		if err != nil {
			return nil, err
		}
		if !granted {
			// No grants anywhere on this evidence: the record does not exist
			// as far as this buyer is concerned.
			return nil, fmt.Errorf("%w: evidence", ErrNotFound)
		}
		return s.repo.ListVersionsGranted(ctx, ev.ID, requester.UserID)
	default:
		return nil, fmt.Errorf("%w: evidence", ErrNotFound)
	}
}

func (s *evidenceService) ListEvidence(ctx context.Context, requester *model.User) ([]model.Evidence, error) {
	switch {
	case requester.IsFactory():
		return s.repo.ListByFactory(ctx, requester.UserID)
	case requester.IsBuyer():
		return s.repo.ListGranted(ctx, requester.UserID)
	default:
		return s.repo.ListAll(ctx)
	}
}

func (s *evidenceService) DownloadURL(ctx context.Context, versionID string, actor *model.User) (string, error) {
	ok, err := s.CanAccess(ctx, versionID, actor)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: version", ErrNotFound)
	}

	ver, err := s.repo.FindVersionByID(ctx, versionID)
	if err != nil {
		return "", err
	}
	ev, err := s.repo.FindByID(ctx, ver.EvidenceID)
	if err != nil {
		return "", err
	}

	url, err := s.store.PresignGet(ctx, ver.StoragePath, versionURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}

	if _, err := s.audit.Record(ctx, actor, model.ActionDownload, model.ObjectVersion, ver.ID, downloadMeta(ev, ver)); err != nil {
		return "", err
	}
	return url, nil
}
