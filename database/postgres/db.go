package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/database/internal"
)

// auditColumns mirrors createAuditTable in information_schema spelling.
var auditColumns = []internal.Column{
	{Name: "id", Type: "uuid"},
	{Name: "user_id", Type: "uuid"},
	{Name: "username", Type: "text"},
	{Name: "action", Type: "text"},
	{Name: "target", Type: "text"},
	{Name: "detail", Type: "text"},
	{Name: "created_at", Type: "timestamp with time zone"},
}

const columnsQuery = `
	SELECT column_name, data_type, is_nullable = 'YES'
	FROM information_schema.columns
	WHERE table_schema = current_schema() AND table_name = $1
	ORDER BY ordinal_position`

// ValidateSchema checks that the audit table exists with the columns Migrate creates.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables shareustc.Tables) error {
	if !shareustc.IsValidTableName(tables.AuditLog) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.AuditLog)
	}

	rows, err := pool.Query(ctx, columnsQuery, tables.AuditLog)
	if err != nil {
		return fmt.Errorf("validate schema: query columns: %w", err)
	}
	defer rows.Close()

	var cols []internal.Column
	for rows.Next() {
		var c internal.Column
		if err := rows.Scan(&c.Name, &c.Type, &c.Nullable); err != nil {
			return fmt.Errorf("validate schema: scan column: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}

	if err := internal.CheckColumns(tables.AuditLog, auditColumns, cols); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return nil
}
