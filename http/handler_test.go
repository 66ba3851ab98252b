package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shareustc/shareustc"
	shttp "github.com/shareustc/shareustc/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) IssueUploadCredentials(ctx context.Context, id shareustc.Identity, prefix string) (shareustc.StsCredential, error) {
	args := m.Called(ctx, id, prefix)
	return args.Get(0).(shareustc.StsCredential), args.Error(1)
}

func (m *MockService) PresignDownload(ctx context.Context, id shareustc.Identity, key string, expires time.Duration) (string, error) {
	args := m.Called(ctx, id, key, expires)
	return args.String(0), args.Error(1)
}

func (m *MockService) DeleteObject(ctx context.Context, id shareustc.Identity, key string) error {
	args := m.Called(ctx, id, key)
	return args.Error(0)
}

func (m *MockService) RecordRefresh(ctx context.Context, id shareustc.Identity) {
	m.Called(ctx, id)
}

func (m *MockService) AuditLog(ctx context.Context, q shareustc.AuditQuery) (shareustc.AuditPage, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(shareustc.AuditPage), args.Error(1)
}

var (
	alice = shareustc.Identity{ID: uuid.MustParse("1d5c9a7e-3b2f-4e6d-8a1c-0f9e8d7c6b5a"), Username: "alice", Role: shareustc.RoleUser}
	admin = shareustc.Identity{ID: uuid.MustParse("9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"), Username: "root", Role: shareustc.RoleAdmin, IsVerified: true}
)

type testEnv struct {
	router  http.Handler
	service *MockService
	codec   *shareustc.TokenCodec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := shareustc.NewTokenCodec(shareustc.TokenConfig{Secret: []byte("test-secret")}, shareustc.FixedClock(testNow))
	require.NoError(t, err)

	service := new(MockService)
	handler := shttp.NewHandler(&shttp.HandlerConfig{
		Authenticator: shareustc.NewAuthenticator(codec, nil),
		Tokens:        codec,
		Bucket:        shttp.BucketInfo{Bucket: "shareustc", Region: "oss-cn-shanghai", Endpoint: "https://oss-cn-shanghai.aliyuncs.com"},
	}, service)

	return &testEnv{router: handler.Router(), service: service, codec: codec}
}

func (e *testEnv) token(t *testing.T, id shareustc.Identity, typ shareustc.TokenType) string {
	t.Helper()
	tok, _, err := e.codec.Issue(id, typ)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) {
	t.Helper()
	var env struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, http.StatusOK, env.Code)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shttp.ErrorResponse {
	t.Helper()
	var er shttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&er))
	return er
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do("GET", "/api/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	decodeEnvelope(t, rec, nil)
}

func TestHandler_Health_IgnoresBadToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do("GET", "/api/health", "garbage", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_Me(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do("GET", "/api/users/me", env.token(t, alice, shareustc.TokenAccess), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got shareustc.Identity
	decodeEnvelope(t, rec, &got)
	assert.Equal(t, alice, got)
}

func TestHandler_ProtectedRejections(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tests := []struct {
		name     string
		token    string
		wantCode string
	}{
		{name: "no token", wantCode: "missing_credentials"},
		{name: "refresh token", token: env.token(t, alice, shareustc.TokenRefresh), wantCode: "wrong_token_type"},
		{name: "garbage", token: "abc", wantCode: "malformed_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := env.do("POST", "/api/oss/sts-token", tt.token, `{"prefix":"resources"}`)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			er := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, er.Error)
			assert.Equal(t, http.StatusUnauthorized, er.Code)
		})
	}

	env.service.AssertNotCalled(t, "IssueUploadCredentials", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_STSToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	cred := shareustc.StsCredential{
		AccessKeyID:     "STS.x",
		AccessKeySecret: "s",
		SecurityToken:   "tok",
		Expiration:      "2025-03-01T12:15:00Z",
	}
	env.service.On("IssueUploadCredentials", mock.Anything, alice, "images").Return(cred, nil)

	rec := env.do("POST", "/api/oss/sts-token", env.token(t, alice, shareustc.TokenAccess), `{"prefix":"images"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	decodeEnvelope(t, rec, &got)
	assert.Equal(t, map[string]string{
		"accessKeyId":     "STS.x",
		"accessKeySecret": "s",
		"securityToken":   "tok",
		"expiration":      "2025-03-01T12:15:00Z",
		"bucket":          "shareustc",
		"region":          "oss-cn-shanghai",
		"endpoint":        "https://oss-cn-shanghai.aliyuncs.com",
	}, got)
	env.service.AssertExpectations(t)
}

func TestHandler_STSToken_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "validation", err: shareustc.ErrValidation, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "config", err: shareustc.ErrConfig, wantStatus: http.StatusInternalServerError, wantCode: "config_error"},
		{name: "request", err: shareustc.ErrRequest, wantStatus: http.StatusBadGateway, wantCode: "upstream_error"},
		{name: "service", err: shareustc.ErrService, wantStatus: http.StatusBadGateway, wantCode: "upstream_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			env.service.On("IssueUploadCredentials", mock.Anything, alice, "resources").
				Return(shareustc.StsCredential{}, tt.err)

			rec := env.do("POST", "/api/oss/sts-token", env.token(t, alice, shareustc.TokenAccess), `{"prefix":"resources"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Error)
		})
	}
}

func TestHandler_STSToken_BadBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tok := env.token(t, alice, shareustc.TokenAccess)

	for _, body := range []string{`{`, `{}`, `{"prefix":""}`} {
		rec := env.do("POST", "/api/oss/sts-token", tok, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	env.service.AssertNotCalled(t, "IssueUploadCredentials", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Presign(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.service.On("PresignDownload", mock.Anything, alice, "resources/a.pdf", 10*time.Minute).
		Return("https://signed.example/resources/a.pdf?Signature=x", nil)

	rec := env.do("GET", "/api/oss/presign?key=resources/a.pdf&expires=600", env.token(t, alice, shareustc.TokenAccess), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	decodeEnvelope(t, rec, &got)
	assert.Equal(t, "https://signed.example/resources/a.pdf?Signature=x", got["url"])

	rec = env.do("GET", "/api/oss/presign?key=a&expires=soon", env.token(t, alice, shareustc.TokenAccess), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_DeleteObject(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.service.On("DeleteObject", mock.Anything, admin, "images/2025/a.png").Return(nil)

	rec := env.do("DELETE", "/api/oss/objects/images/2025/a.png", env.token(t, admin, shareustc.TokenAccess), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do("DELETE", "/api/oss/objects/images/2025/a.png", env.token(t, alice, shareustc.TokenAccess), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Error)

	env.service.AssertNumberOfCalls(t, "DeleteObject", 1)
}

func TestHandler_Refresh(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.service.On("RecordRefresh", mock.Anything, alice).Return()

	body := `{"refreshToken":"` + env.token(t, alice, shareustc.TokenRefresh) + `"}`
	rec := env.do("POST", "/api/auth/refresh", "", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var pair shareustc.TokenPair
	decodeEnvelope(t, rec, &pair)
	assert.Equal(t, "Bearer", pair.TokenType)

	claims, err := env.codec.Verify(pair.AccessToken, shareustc.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, alice.ID.String(), claims.Subject)
	env.service.AssertExpectations(t)
}

func TestHandler_Refresh_RejectsAccessToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	body := `{"refreshToken":"` + env.token(t, alice, shareustc.TokenAccess) + `"}`
	rec := env.do("POST", "/api/auth/refresh", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "wrong_token_type", decodeError(t, rec).Error)

	rec = env.do("POST", "/api/auth/refresh", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.service.AssertNotCalled(t, "RecordRefresh", mock.Anything, mock.Anything)
}

func TestHandler_AuditLogs(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	page := shareustc.AuditPage{
		Items:      []shareustc.AuditEntry{{ID: uuid.New(), Action: shareustc.AuditObjectDeleted, Target: "images/a.png", CreatedAt: testNow}},
		NextCursor: "next",
	}
	env.service.On("AuditLog", mock.Anything, shareustc.AuditQuery{
		Action: shareustc.AuditObjectDeleted,
		Limit:  20,
		Cursor: "abc",
	}).Return(page, nil)

	rec := env.do("GET", "/api/admin/audit-logs?action=object_deleted&limit=20&cursor=abc", env.token(t, admin, shareustc.TokenAccess), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got shareustc.AuditPage
	decodeEnvelope(t, rec, &got)
	assert.Equal(t, "next", got.NextCursor)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "images/a.png", got.Items[0].Target)

	rec = env.do("GET", "/api/admin/audit-logs", env.token(t, alice, shareustc.TokenAccess), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandler_UnknownRoute(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do("GET", "/api/nothing", env.token(t, alice, shareustc.TokenAccess), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Error)

	rec = env.do("GET", "/api/nothing", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_CORS(t *testing.T) {
	t.Parallel()

	codec, err := shareustc.NewTokenCodec(shareustc.TokenConfig{Secret: []byte("k")}, nil)
	require.NoError(t, err)

	handler := shttp.NewHandler(&shttp.HandlerConfig{
		Authenticator: shareustc.NewAuthenticator(codec, nil),
		Tokens:        codec,
		CORS: shttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://share.example.edu"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}, new(MockService))

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("Origin", "https://share.example.edu")
	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://share.example.edu", rec.Header().Get("Access-Control-Allow-Origin"))
}
