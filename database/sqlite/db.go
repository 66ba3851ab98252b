package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/database/internal"
)

// auditColumns mirrors createAuditTable. SQLite reports declared types as written.
var auditColumns = []internal.Column{
	{Name: "id", Type: "text"},
	{Name: "user_id", Type: "text"},
	{Name: "username", Type: "text"},
	{Name: "action", Type: "text"},
	{Name: "target", Type: "text"},
	{Name: "detail", Type: "text"},
	{Name: "created_at", Type: "text"},
}

// ValidateSchema checks that the audit table exists with the columns Migrate creates.
func ValidateSchema(ctx context.Context, db *sql.DB, tables shareustc.Tables) error {
	if !shareustc.IsValidTableName(tables.AuditLog) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.AuditLog)
	}

	cols, err := tableColumns(ctx, db, tables.AuditLog)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	if err := internal.CheckColumns(tables.AuditLog, auditColumns, cols); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}

// tableColumns reads PRAGMA table_info, which yields no rows for a missing table.
func tableColumns(ctx context.Context, db *sql.DB, table string) ([]internal.Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []internal.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols = append(cols, internal.Column{
			Name:     name,
			Type:     strings.ToLower(typ),
			Nullable: notNull == 0,
		})
	}

	return cols, rows.Err()
}
