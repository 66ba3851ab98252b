package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shareustc/shareustc"
)

func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

// auditDDL creates the audit table and its two listing indexes. Timestamps
// are fixed-width UTC text so that string order is time order.
func auditDDL(table string) []string {
	t := quoteIdentifier(table)
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT NOT NULL PRIMARY KEY,
			user_id TEXT NOT NULL,
			username TEXT NOT NULL,
			action TEXT NOT NULL,
			target TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`, t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (created_at, id)`,
			quoteIdentifier("idx_"+table+"_created"), t),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (action, created_at, id)`,
			quoteIdentifier("idx_"+table+"_action_created"), t),
	}
}

// Migrate creates the audit table when missing. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, tables shareustc.Tables) error {
	for i, stmt := range auditDDL(tables.AuditLog) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s step %d: %w", tables.AuditLog, i+1, err)
		}
	}
	return nil
}

// DropTables removes the audit table and its indexes.
func DropTables(ctx context.Context, db *sql.DB, tables shareustc.Tables) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(tables.AuditLog)); err != nil {
		return fmt.Errorf("drop %s: %w", tables.AuditLog, err)
	}
	return nil
}
