package shareustc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CredentialIssuer obtains temporary upload credentials scoped to a prefix.
type CredentialIssuer interface {
	AssumeRole(ctx context.Context, prefix string) (StsCredential, error)
}

// URLSigner produces signed object URLs. expiresIn is in seconds.
type URLSigner interface {
	PresignURL(key string, expiresIn uint64, method string) (string, error)
}

// ObjectDeleter removes an object. Deleting an absent object succeeds.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}

const (
	DefaultPresignExpiry = time.Hour
	MaxPresignExpiry     = 24 * time.Hour
)

// StorageService is the entry point for every object-storage operation a
// caller may trigger. Each successful operation is written to the audit log.
type StorageService struct {
	issuer  CredentialIssuer
	signer  URLSigner
	deleter ObjectDeleter
	audit   AuditRepo
	clock   Clock
	logger  *slog.Logger
}

// ServiceConfig holds optional collaborators for StorageService.
type ServiceConfig struct {
	// Audit receives one entry per successful operation. Nil disables auditing.
	Audit  AuditRepo
	Clock  Clock
	Logger *slog.Logger
}

func NewStorageService(issuer CredentialIssuer, signer URLSigner, deleter ObjectDeleter, cfg ServiceConfig) (*StorageService, error) {
	if issuer == nil || signer == nil || deleter == nil {
		return nil, fmt.Errorf("new storage service: object store collaborators are required: %w", ErrConfig)
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &StorageService{
		issuer:  issuer,
		signer:  signer,
		deleter: deleter,
		audit:   cfg.Audit,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}, nil
}

// IssueUploadCredentials returns an STS credential that can only write under prefix.
func (s *StorageService) IssueUploadCredentials(ctx context.Context, id Identity, prefix string) (StsCredential, error) {
	if err := ctx.Err(); err != nil {
		return StsCredential{}, fmt.Errorf("issue upload credentials: %w", err)
	}

	p, err := ParseUploadPrefix(prefix)
	if err != nil {
		return StsCredential{}, fmt.Errorf("issue upload credentials: %w", err)
	}

	cred, err := s.issuer.AssumeRole(ctx, string(p))
	if err != nil {
		return StsCredential{}, fmt.Errorf("issue upload credentials: %w", err)
	}

	s.record(ctx, id, AuditStsIssued, string(p)+"/", "expiration="+cred.Expiration)
	return cred, nil
}

// PresignDownload signs a GET URL for an uploaded object. A zero expiry uses
// DefaultPresignExpiry; anything beyond MaxPresignExpiry is rejected.
func (s *StorageService) PresignDownload(ctx context.Context, id Identity, key string, expires time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}

	key = NormalizeObjectKey(key)
	if !IsValidObjectKey(key) || !HasUploadPrefix(key) {
		return "", fmt.Errorf("presign download %q: key must be a file under resources/ or images/: %w", key, ErrValidation)
	}

	if expires == 0 {
		expires = DefaultPresignExpiry
	}
	if expires < time.Second || expires > MaxPresignExpiry {
		return "", fmt.Errorf("presign download: expiry must be between 1s and %s: %w", MaxPresignExpiry, ErrValidation)
	}

	secs := uint64(expires / time.Second)
	url, err := s.signer.PresignURL(key, secs, http.MethodGet)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}

	s.record(ctx, id, AuditPresignIssued, key, "expires_in="+strconv.FormatUint(secs, 10))
	return url, nil
}

// DeleteObject removes key from the bucket. It is idempotent.
func (s *StorageService) DeleteObject(ctx context.Context, id Identity, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	key = NormalizeObjectKey(key)
	if !IsValidObjectKey(key) {
		return fmt.Errorf("delete object %q: %w", key, ErrValidation)
	}

	if err := s.deleter.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}

	s.record(ctx, id, AuditObjectDeleted, key, "")
	return nil
}

// RecordRefresh notes that id exchanged a refresh token for a new pair.
func (s *StorageService) RecordRefresh(ctx context.Context, id Identity) {
	s.record(ctx, id, AuditTokenRefreshed, id.ID.String(), "")
}

// AuditLog lists recorded operations, newest first.
func (s *StorageService) AuditLog(ctx context.Context, q AuditQuery) (AuditPage, error) {
	if s.audit == nil {
		return AuditPage{}, fmt.Errorf("audit log: no audit repository configured: %w", ErrNotFound)
	}
	if q.Action != "" && !q.Action.IsValid() {
		return AuditPage{}, fmt.Errorf("audit log: unknown action %q: %w", q.Action, ErrValidation)
	}

	page, err := s.audit.List(ctx, q)
	if err != nil {
		return AuditPage{}, fmt.Errorf("audit log: %w", err)
	}
	return page, nil
}

// record never fails the caller; a lost audit row is logged instead.
func (s *StorageService) record(ctx context.Context, id Identity, action AuditAction, target, detail string) {
	if s.audit == nil {
		return
	}

	entry := AuditEntry{
		ID:        uuid.New(),
		UserID:    id.ID,
		Username:  id.Username,
		Action:    action,
		Target:    target,
		Detail:    detail,
		CreatedAt: s.clock.Now().UTC(),
	}

	// The request may already be finishing; the row should still land.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.audit.Record(recordCtx, entry); err != nil {
		level := slog.LevelError
		if errors.Is(err, context.DeadlineExceeded) {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "audit record failed",
			"action", action,
			"target", target,
			"user_id", id.ID,
			"error", err,
		)
	}
}
