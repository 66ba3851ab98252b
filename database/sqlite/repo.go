// Package sqlite implements the audit-log repository using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/database/internal"
)

// timeLayout is fixed width so that lexical order of the column matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Record(ctx context.Context, entry shareustc.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, user_id, username, action, target, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

	_, err := r.db.ExecContext(ctx, query,
		entry.ID.String(), entry.UserID.String(), entry.Username, string(entry.Action),
		entry.Target, entry.Detail, formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return nil
}

// List returns entries newest first.
func (r *repo) List(ctx context.Context, q shareustc.AuditQuery) (shareustc.AuditPage, error) {
	cursor, err := internal.DecodeCursor(q.Cursor)
	if err != nil {
		return shareustc.AuditPage{}, fmt.Errorf("list: %w", err)
	}

	limit := q.NormalizeLimit()

	var conditions []string
	var args []any

	if q.Action != "" {
		conditions = append(conditions, "action = ?")
		args = append(args, string(q.Action))
	}
	if q.Cursor != "" {
		conditions = append(conditions, "(created_at, id) < (?, ?)")
		args = append(args, formatTime(cursor.CreatedAt), cursor.ID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`SELECT id, user_id, username, action, target, detail, created_at
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, quoteIdentifier(r.tableName), where)
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return shareustc.AuditPage{}, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]shareustc.AuditEntry, 0, limit)
	for rows.Next() {
		var e shareustc.AuditEntry
		var idStr, userIDStr, action, createdAt string

		if scanErr := rows.Scan(&idStr, &userIDStr, &e.Username, &action, &e.Target, &e.Detail, &createdAt); scanErr != nil {
			return shareustc.AuditPage{}, fmt.Errorf("list: scan: %w", scanErr)
		}

		var parseErr error
		e.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return shareustc.AuditPage{}, fmt.Errorf("list: parse id: %w", parseErr)
		}

		e.UserID, parseErr = uuid.Parse(userIDStr)
		if parseErr != nil {
			return shareustc.AuditPage{}, fmt.Errorf("list: parse user_id: %w", parseErr)
		}

		e.CreatedAt, parseErr = time.Parse(timeLayout, createdAt)
		if parseErr != nil {
			return shareustc.AuditPage{}, fmt.Errorf("list: parse created_at: %w", parseErr)
		}

		e.Action = shareustc.AuditAction(action)
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return shareustc.AuditPage{}, fmt.Errorf("list: rows: %w", err)
	}

	var nextCursor string
	if len(items) > limit {
		last := items[limit-1]
		nextCursor = internal.EncodeCursor(last.CreatedAt, last.ID.String())
		items = items[:limit]
	}

	return shareustc.AuditPage{Items: items, NextCursor: nextCursor}, nil
}

func (r *repo) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`DELETE FROM %s WHERE created_at < ?`, quoteIdentifier(r.tableName))

	result, err := r.db.ExecContext(ctx, query, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}

	return n, nil
}
