package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shareustc/shareustc"
)

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// auditDDL creates the audit table and the indexes List walks newest first.
func auditDDL(table string) []string {
	t := ident(table)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL,
			username TEXT NOT NULL,
			action TEXT NOT NULL,
			target TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at DESC, id DESC)`,
			ident("idx_"+table+"_created"), t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (action, created_at DESC, id DESC)`,
			ident("idx_"+table+"_action_created"), t),
	}
}

// Migrate creates the audit table when missing. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables shareustc.Tables) error {
	for i, stmt := range auditDDL(tables.AuditLog) {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s step %d: %w", tables.AuditLog, i+1, err)
		}
	}
	return nil
}

// DropTables removes the audit table and its indexes.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables shareustc.Tables) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+ident(tables.AuditLog)); err != nil {
		return fmt.Errorf("drop %s: %w", tables.AuditLog, err)
	}
	return nil
}
