package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/shareustc/shareustc"
)

const maxBodyBytes = 1 << 16

type Service interface {
	IssueUploadCredentials(ctx context.Context, id shareustc.Identity, prefix string) (shareustc.StsCredential, error)
	PresignDownload(ctx context.Context, id shareustc.Identity, key string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, id shareustc.Identity, key string) error
	RecordRefresh(ctx context.Context, id shareustc.Identity)
	AuditLog(ctx context.Context, q shareustc.AuditQuery) (shareustc.AuditPage, error)
}

// TokenService verifies refresh tokens and mints new pairs.
type TokenService interface {
	Verify(raw string, expect shareustc.TokenType) (shareustc.Claims, error)
	IssuePair(id shareustc.Identity) (shareustc.TokenPair, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

// BucketInfo is echoed to clients alongside STS credentials so they can
// address the bucket directly.
type BucketInfo struct {
	Bucket   string
	Region   string
	Endpoint string
}

type HandlerConfig struct {
	Authenticator *shareustc.Authenticator
	Tokens        TokenService
	Bucket        BucketInfo
	CORS          CORSConfig
}

// Handler serves the authentication and object-storage API.
type Handler struct {
	config   HandlerConfig
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:   *config,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Router returns an http.Handler with every route behind AuthMiddleware.
// Which routes need a token is decided by the authenticator's path policy.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(AuthMiddleware(h.config.Authenticator))
	r.NotFound(writeNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/auth/refresh", h.handleRefresh)
		r.Get("/users/me", h.handleMe)

		r.Route("/oss", func(r chi.Router) {
			r.Post("/sts-token", h.handleSTSToken)
			r.Get("/presign", h.handlePresign)
			r.With(RequireRole(shareustc.RoleAdmin)).Delete("/objects/*", h.handleDeleteObject)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(shareustc.RoleAdmin))
			r.Get("/audit-logs", h.handleAuditLogs)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteData(w, "ok", map[string]string{"status": "healthy"})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	claims, err := h.config.Tokens.Verify(req.RefreshToken, shareustc.TokenRefresh)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	id, err := shareustc.ExtractIdentity(claims)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	pair, err := h.config.Tokens.IssuePair(id)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	h.service.RecordRefresh(r.Context(), id)
	WriteData(w, "Token refreshed", pair)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := shareustc.IdentityFromContext(r.Context())
	if !ok {
		HandleError(w, r, shareustc.ErrUnauthorized)
		return
	}
	WriteData(w, "ok", id)
}

type stsTokenRequest struct {
	Prefix string `json:"prefix" validate:"required"`
}

type stsTokenResponse struct {
	AccessKeyID     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SecurityToken   string `json:"securityToken"`
	Expiration      string `json:"expiration"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
}

func (h *Handler) handleSTSToken(w http.ResponseWriter, r *http.Request) {
	id, ok := shareustc.IdentityFromContext(r.Context())
	if !ok {
		HandleError(w, r, shareustc.ErrUnauthorized)
		return
	}

	var req stsTokenRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	cred, err := h.service.IssueUploadCredentials(r.Context(), id, req.Prefix)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteData(w, "STS credential issued", stsTokenResponse{
		AccessKeyID:     cred.AccessKeyID,
		AccessKeySecret: cred.AccessKeySecret,
		SecurityToken:   cred.SecurityToken,
		Expiration:      cred.Expiration,
		Bucket:          h.config.Bucket.Bucket,
		Region:          h.config.Bucket.Region,
		Endpoint:        h.config.Bucket.Endpoint,
	})
}

func (h *Handler) handlePresign(w http.ResponseWriter, r *http.Request) {
	id, ok := shareustc.IdentityFromContext(r.Context())
	if !ok {
		HandleError(w, r, shareustc.ErrUnauthorized)
		return
	}

	key := r.URL.Query().Get("key")

	var expires time.Duration
	if s := r.URL.Query().Get("expires"); s != "" {
		secs, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			HandleError(w, r, fmt.Errorf("expires must be a number of seconds: %w", shareustc.ErrValidation))
			return
		}
		expires = time.Duration(secs) * time.Second
	}

	url, err := h.service.PresignDownload(r.Context(), id, key, expires)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteData(w, "ok", map[string]string{"url": url})
}

func (h *Handler) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	id, ok := shareustc.IdentityFromContext(r.Context())
	if !ok {
		HandleError(w, r, shareustc.ErrUnauthorized)
		return
	}

	if err := h.service.DeleteObject(r.Context(), id, chi.URLParam(r, "*")); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := shareustc.AuditQuery{
		Action: shareustc.AuditAction(r.URL.Query().Get("action")),
		Cursor: r.URL.Query().Get("cursor"),
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			q.Limit = parsed
		}
	}
	q.Limit = q.NormalizeLimit()

	page, err := h.service.AuditLog(r.Context(), q)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteData(w, "ok", page)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json body: %w", shareustc.ErrValidation)
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request body: %s: %w", err.Error(), shareustc.ErrValidation)
	}
	return nil
}
