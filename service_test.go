package shareustc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shareustc/shareustc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyObjectStore struct {
	mock.Mock
}

func (s *SpyObjectStore) AssumeRole(ctx context.Context, prefix string) (shareustc.StsCredential, error) {
	args := s.Called(ctx, prefix)
	return args.Get(0).(shareustc.StsCredential), args.Error(1)
}

func (s *SpyObjectStore) PresignURL(key string, expiresIn uint64, method string) (string, error) {
	args := s.Called(key, expiresIn, method)
	return args.String(0), args.Error(1)
}

func (s *SpyObjectStore) DeleteObject(ctx context.Context, key string) error {
	args := s.Called(ctx, key)
	return args.Error(0)
}

type SpyAuditRepo struct {
	mock.Mock
}

func (s *SpyAuditRepo) Record(ctx context.Context, entry shareustc.AuditEntry) error {
	args := s.Called(ctx, entry)
	return args.Error(0)
}

func (s *SpyAuditRepo) List(ctx context.Context, q shareustc.AuditQuery) (shareustc.AuditPage, error) {
	args := s.Called(ctx, q)
	return args.Get(0).(shareustc.AuditPage), args.Error(1)
}

func (s *SpyAuditRepo) Prune(ctx context.Context, before time.Time) (int64, error) {
	args := s.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func NewStorageService(t *testing.T) (*shareustc.StorageService, *SpyObjectStore, *SpyAuditRepo) {
	t.Helper()
	store := new(SpyObjectStore)
	audit := new(SpyAuditRepo)
	s, err := shareustc.NewStorageService(store, store, store, shareustc.ServiceConfig{
		Audit: audit,
		Clock: shareustc.FixedClock(testNow),
	})
	require.NoError(t, err, "new storage service")
	return s, store, audit
}

func auditEntry(action shareustc.AuditAction, target string) any {
	return mock.MatchedBy(func(e shareustc.AuditEntry) bool {
		return e.Action == action && e.Target == target && e.UserID == testIdentity().ID && e.CreatedAt.Equal(testNow)
	})
}

func TestNewStorageService_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := shareustc.NewStorageService(nil, nil, nil, shareustc.ServiceConfig{})
	assert.ErrorIs(t, err, shareustc.ErrConfig)
}

func TestStorageService_IssueUploadCredentials(t *testing.T) {
	t.Parallel()

	s, store, audit := NewStorageService(t)
	cred := shareustc.StsCredential{AccessKeyID: "STS.x", Expiration: "2025-03-01T12:15:00Z"}

	store.On("AssumeRole", mock.Anything, "resources").Return(cred, nil)
	audit.On("Record", mock.Anything, auditEntry(shareustc.AuditStsIssued, "resources/")).Return(nil)

	got, err := s.IssueUploadCredentials(context.Background(), testIdentity(), "resources")
	require.NoError(t, err)
	assert.Equal(t, cred, got)

	store.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestStorageService_IssueUploadCredentials_BadPrefix(t *testing.T) {
	t.Parallel()

	s, store, audit := NewStorageService(t)

	_, err := s.IssueUploadCredentials(context.Background(), testIdentity(), "other")
	assert.ErrorIs(t, err, shareustc.ErrValidation)

	store.AssertNotCalled(t, "AssumeRole", mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestStorageService_IssueUploadCredentials_UpstreamError(t *testing.T) {
	t.Parallel()

	s, store, audit := NewStorageService(t)
	store.On("AssumeRole", mock.Anything, "images").Return(shareustc.StsCredential{}, shareustc.ErrService)

	_, err := s.IssueUploadCredentials(context.Background(), testIdentity(), "images")
	assert.ErrorIs(t, err, shareustc.ErrService)
	audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestStorageService_IssueUploadCredentials_AuditFailureIgnored(t *testing.T) {
	t.Parallel()

	s, store, audit := NewStorageService(t)
	store.On("AssumeRole", mock.Anything, "images").Return(shareustc.StsCredential{AccessKeyID: "a"}, nil)
	audit.On("Record", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	got, err := s.IssueUploadCredentials(context.Background(), testIdentity(), "images")
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessKeyID)
}

func TestStorageService_PresignDownload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		expires  time.Duration
		wantKey  string
		wantSecs uint64
		wantErr  error
	}{
		{name: "default expiry", key: "/resources/a.pdf", wantKey: "resources/a.pdf", wantSecs: 3600},
		{name: "custom expiry", key: "images/b.png", expires: 10 * time.Minute, wantKey: "images/b.png", wantSecs: 600},
		{name: "max expiry", key: "images/b.png", expires: 24 * time.Hour, wantKey: "images/b.png", wantSecs: 86400},
		{name: "too long", key: "images/b.png", expires: 25 * time.Hour, wantErr: shareustc.ErrValidation},
		{name: "sub second", key: "images/b.png", expires: time.Millisecond, wantErr: shareustc.ErrValidation},
		{name: "outside prefixes", key: "private/x", wantErr: shareustc.ErrValidation},
		{name: "prefix only", key: "resources/", wantErr: shareustc.ErrValidation},
		{name: "traversal", key: "resources/../secret", wantErr: shareustc.ErrValidation},
		{name: "empty", key: "  ", wantErr: shareustc.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, store, audit := NewStorageService(t)

			if tt.wantErr != nil {
				_, err := s.PresignDownload(context.Background(), testIdentity(), tt.key, tt.expires)
				assert.ErrorIs(t, err, tt.wantErr)
				store.AssertNotCalled(t, "PresignURL", mock.Anything, mock.Anything, mock.Anything)
				return
			}

			store.On("PresignURL", tt.wantKey, tt.wantSecs, "GET").Return("https://signed", nil)
			audit.On("Record", mock.Anything, auditEntry(shareustc.AuditPresignIssued, tt.wantKey)).Return(nil)

			url, err := s.PresignDownload(context.Background(), testIdentity(), tt.key, tt.expires)
			require.NoError(t, err)
			assert.Equal(t, "https://signed", url)
			store.AssertExpectations(t)
			audit.AssertExpectations(t)
		})
	}
}

func TestStorageService_DeleteObject(t *testing.T) {
	t.Parallel()

	s, store, audit := NewStorageService(t)
	store.On("DeleteObject", mock.Anything, "resources/a.pdf").Return(nil)
	audit.On("Record", mock.Anything, auditEntry(shareustc.AuditObjectDeleted, "resources/a.pdf")).Return(nil)

	require.NoError(t, s.DeleteObject(context.Background(), testIdentity(), "/resources/a.pdf"))

	err := s.DeleteObject(context.Background(), testIdentity(), "")
	assert.ErrorIs(t, err, shareustc.ErrValidation)

	store.AssertNumberOfCalls(t, "DeleteObject", 1)
	audit.AssertExpectations(t)
}

func TestStorageService_DeleteObject_UpstreamError(t *testing.T) {
	t.Parallel()

	s, store, audit := NewStorageService(t)
	store.On("DeleteObject", mock.Anything, "images/x.png").Return(shareustc.ErrRequest)

	err := s.DeleteObject(context.Background(), testIdentity(), "images/x.png")
	assert.ErrorIs(t, err, shareustc.ErrRequest)
	audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestStorageService_CancelledContext(t *testing.T) {
	t.Parallel()

	s, store, _ := NewStorageService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.IssueUploadCredentials(ctx, testIdentity(), "images")
	assert.ErrorIs(t, err, context.Canceled)
	store.AssertNotCalled(t, "AssumeRole", mock.Anything, mock.Anything)
}

func TestStorageService_RecordRefresh(t *testing.T) {
	t.Parallel()

	s, _, audit := NewStorageService(t)
	audit.On("Record", mock.Anything, auditEntry(shareustc.AuditTokenRefreshed, testIdentity().ID.String())).Return(nil)

	s.RecordRefresh(context.Background(), testIdentity())
	audit.AssertExpectations(t)
}

func TestStorageService_AuditLog(t *testing.T) {
	t.Parallel()

	s, _, audit := NewStorageService(t)
	page := shareustc.AuditPage{Items: []shareustc.AuditEntry{{Action: shareustc.AuditStsIssued}}}
	q := shareustc.AuditQuery{Action: shareustc.AuditStsIssued, Limit: 10}
	audit.On("List", mock.Anything, q).Return(page, nil)

	got, err := s.AuditLog(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, page, got)

	_, err = s.AuditLog(context.Background(), shareustc.AuditQuery{Action: "bogus"})
	assert.ErrorIs(t, err, shareustc.ErrValidation)
}

func TestStorageService_NoAudit(t *testing.T) {
	t.Parallel()

	store := new(SpyObjectStore)
	s, err := shareustc.NewStorageService(store, store, store, shareustc.ServiceConfig{})
	require.NoError(t, err)

	store.On("DeleteObject", mock.Anything, "images/x.png").Return(nil)
	require.NoError(t, s.DeleteObject(context.Background(), testIdentity(), "images/x.png"))

	_, err = s.AuditLog(context.Background(), shareustc.AuditQuery{})
	assert.ErrorIs(t, err, shareustc.ErrNotFound)
}
