package shareustc

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the privilege level carried by an authenticated identity.
type Role string

const (
	RoleGuest    Role = "guest"
	RoleUser     Role = "user"
	RoleVerified Role = "verified"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a role string to a Role. Unknown or empty values map to
// RoleGuest instead of failing, so a signed token with a stale role string
// degrades to the lowest privilege.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser
	case RoleVerified:
		return RoleVerified
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleGuest
	}
}

// Identity is the caller attached to a request after successful token verification.
type Identity struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
}

// HasRole reports whether the identity holds any of the given roles.
func (i Identity) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// TokenType tags a bearer token with its purpose. TokenAny is only used as an
// expectation meaning "accept either type".
type TokenType uint8

const (
	TokenAny TokenType = iota
	TokenAccess
	TokenRefresh
)

func (t TokenType) String() string {
	switch t {
	case TokenAccess:
		return "access"
	case TokenRefresh:
		return "refresh"
	default:
		return "any"
	}
}

// ParseTokenType parses the wire tag of a token. Only "access" and "refresh" are valid.
func ParseTokenType(s string) (TokenType, error) {
	switch s {
	case "access":
		return TokenAccess, nil
	case "refresh":
		return TokenRefresh, nil
	default:
		return TokenAny, fmt.Errorf("unknown token type %q", s)
	}
}

// Claims is the verified content of a bearer token.
type Claims struct {
	Subject    string
	Username   string
	Role       string
	IsVerified bool
	Type       TokenType
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// TokenPair is returned when a caller logs in or refreshes.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// StsCredential is a short-lived credential returned by the STS AssumeRole call.
type StsCredential struct {
	AccessKeyID     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SecurityToken   string `json:"securityToken"`
	Expiration      string `json:"expiration"`
}

// UploadPrefix is one of the fixed object-storage prefixes a client may upload into.
type UploadPrefix string

const (
	PrefixResources UploadPrefix = "resources"
	PrefixImages    UploadPrefix = "images"
)

// ParseUploadPrefix accepts only the fixed upload prefixes.
func ParseUploadPrefix(s string) (UploadPrefix, error) {
	switch UploadPrefix(s) {
	case PrefixResources, PrefixImages:
		return UploadPrefix(s), nil
	default:
		return "", fmt.Errorf("prefix must be resources or images: %w", ErrValidation)
	}
}

// AuditAction names the security-relevant operation recorded in the audit log.
type AuditAction string

const (
	AuditStsIssued      AuditAction = "sts_issued"
	AuditPresignIssued  AuditAction = "presign_issued"
	AuditObjectDeleted  AuditAction = "object_deleted"
	AuditTokenRefreshed AuditAction = "token_refreshed"
)

type AuditEntry struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"userId"`
	Username  string      `json:"username"`
	Action    AuditAction `json:"action"`
	Target    string      `json:"target"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

type AuditQuery struct {
	Action AuditAction
	Limit  int
	Cursor string
}

type AuditPage struct {
	Items      []AuditEntry `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
}
