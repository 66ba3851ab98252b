package shareustc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 2 * time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// tokenClaims is the JSON payload of a bearer token.
type tokenClaims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	Verified  bool   `json:"verified"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (tc *tokenClaims) toClaims() (Claims, error) {
	if tc.ExpiresAt == nil || tc.IssuedAt == nil {
		return Claims{}, errors.New("token lacks exp or iat")
	}
	typ, err := ParseTokenType(tc.TokenType)
	if err != nil {
		return Claims{}, err
	}
	if !tc.ExpiresAt.After(tc.IssuedAt.Time) {
		return Claims{}, errors.New("exp is not after iat")
	}
	return Claims{
		Subject:    tc.Subject,
		Username:   tc.Username,
		Role:       tc.Role,
		IsVerified: tc.Verified,
		Type:       typ,
		IssuedAt:   tc.IssuedAt.Time,
		ExpiresAt:  tc.ExpiresAt.Time,
	}, nil
}

// TokenConfig configures a TokenCodec.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenCodec issues and verifies HS256 bearer tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
	parser     *jwt.Parser
}

// NewTokenCodec creates a codec. A nil clock uses the system clock.
func NewTokenCodec(cfg TokenConfig, clock Clock) (*TokenCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("token secret is empty: %w", ErrConfig)
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.AccessTTL < time.Second || cfg.RefreshTTL < time.Second {
		return nil, fmt.Errorf("token ttl must be at least one second: %w", ErrConfig)
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &TokenCodec{
		secret:     cfg.Secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		clock:      clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(clock.Now),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Issue signs a token of the given type for id. It returns the token and its expiry.
func (c *TokenCodec) Issue(id Identity, typ TokenType) (string, time.Time, error) {
	var ttl time.Duration
	switch typ {
	case TokenAccess:
		ttl = c.accessTTL
	case TokenRefresh:
		ttl = c.refreshTTL
	default:
		return "", time.Time{}, fmt.Errorf("issue token: concrete token type required: %w", ErrValidation)
	}

	now := c.clock.Now()
	exp := now.Add(ttl)
	claims := tokenClaims{
		Username:  id.Username,
		Role:      string(id.Role),
		Verified:  id.IsVerified,
		TokenType: typ.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return signed, exp, nil
}

// IssuePair signs a fresh access/refresh pair for id.
func (c *TokenCodec) IssuePair(id Identity) (TokenPair, error) {
	access, _, err := c.Issue(id, TokenAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := c.Issue(id, TokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(c.accessTTL / time.Second),
	}, nil
}

// Verify decodes raw, checks expiry, signature and, unless expect is TokenAny,
// the token type. Expiry is checked before the signature, so an expired token
// is reported as expired whatever key signed it.
func (c *TokenCodec) Verify(raw string, expect TokenType) (Claims, error) {
	var unverified tokenClaims
	if _, _, err := c.parser.ParseUnverified(raw, &unverified); err != nil {
		return Claims{}, newAuthError(AuthMalformed, err)
	}
	if unverified.ExpiresAt == nil {
		return Claims{}, newAuthError(AuthMalformed, errors.New("token lacks exp"))
	}
	if !c.clock.Now().Before(unverified.ExpiresAt.Time) {
		return Claims{}, newAuthError(AuthExpired, jwt.ErrTokenExpired)
	}

	var verified tokenClaims
	if _, err := c.parser.ParseWithClaims(raw, &verified, c.keyFunc); err != nil {
		return Claims{}, classifyParseError(err)
	}

	claims, err := verified.toClaims()
	if err != nil {
		return Claims{}, newAuthError(AuthMalformed, err)
	}

	if expect != TokenAny && claims.Type != expect {
		return Claims{}, newAuthError(AuthWrongType, fmt.Errorf("want %s token, got %s", expect, claims.Type))
	}

	return claims, nil
}

func (c *TokenCodec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return c.secret, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return newAuthError(AuthMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return newAuthError(AuthExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return newAuthError(AuthSignatureInvalid, err)
	default:
		return newAuthError(AuthMalformed, err)
	}
}

// ExtractIdentity turns verified claims into an Identity. The subject must be a
// UUID; the role string falls back to RoleGuest when unknown.
func ExtractIdentity(c Claims) (Identity, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, newAuthError(AuthMalformed, fmt.Errorf("subject is not a valid id: %w", err))
	}
	return Identity{
		ID:         id,
		Username:   c.Username,
		Role:       ParseRole(c.Role),
		IsVerified: c.IsVerified,
	}, nil
}
