package shareustc

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// AuditRepo persists the security-relevant operations performed through the service.
type AuditRepo interface {
	Record(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, q AuditQuery) (AuditPage, error)
	// Prune deletes entries created before the given time and returns how many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 500
)

// Tables holds configurable table names for audit storage.
type Tables struct {
	AuditLog string `mapstructure:"audit_log"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.AuditLog == "" {
		return errors.New("validate tables: audit log table name cannot be empty")
	}

	if !IsValidTableName(t.AuditLog) {
		return fmt.Errorf("validate tables: invalid audit log table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.AuditLog)
	}

	return nil
}

// NormalizeLimit clamps a requested page size into [1, MaxAuditPageSize].
func (q AuditQuery) NormalizeLimit() int {
	switch {
	case q.Limit <= 0:
		return DefaultAuditPageSize
	case q.Limit > MaxAuditPageSize:
		return MaxAuditPageSize
	default:
		return q.Limit
	}
}

// IsValid reports whether a is one of the recorded actions.
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditStsIssued, AuditPresignIssued, AuditObjectDeleted, AuditTokenRefreshed:
		return true
	default:
		return false
	}
}
