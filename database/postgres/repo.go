// Package postgres implements the audit-log repository using PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/database/internal"
)

type repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func (r *repo) Record(ctx context.Context, entry shareustc.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, username, action, target, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, ident(r.tableName))

	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Username, string(entry.Action),
		entry.Target, entry.Detail, entry.CreatedAt.UTC(),
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
		args = append(args, string(q.Action))
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if q.Cursor != "" {
		cursorID, parseErr := uuid.Parse(cursor.ID)
		if parseErr != nil {
			return shareustc.AuditPage{}, fmt.Errorf("list: cursor id: %w", shareustc.ErrValidation)
		}
		args = append(args, cursor.CreatedAt, cursorID)
		conditions = append(conditions, fmt.Sprintf("(created_at, id) < ($%d, $%d)", len(args)-1, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit+1)
	query := fmt.Sprintf(`
		SELECT id, user_id, username, action, target, detail, created_at
		FROM %s
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d
	`, ident(r.tableName), where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return shareustc.AuditPage{}, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	items := make([]shareustc.AuditEntry, 0, limit)
	for rows.Next() {
		var e shareustc.AuditEntry
		var action string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &action, &e.Target, &e.Detail, &e.CreatedAt); err != nil {
			return shareustc.AuditPage{}, fmt.Errorf("list: scan: %w", err)
		}
		e.Action = shareustc.AuditAction(action)
		e.CreatedAt = e.CreatedAt.UTC()
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
	query := fmt.Sprintf(`DELETE FROM %s WHERE created_at < $1`, ident(r.tableName))

	result, err := r.pool.Exec(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	return result.RowsAffected(), nil
}
