package database_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(tableName string) database.Config {
	return database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: shareustc.Tables{AuditLog: tableName},
	}
}

func TestConnect_SQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig("audit_log"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.NoError(t, db.Ping(ctx))
}

func TestConnect_InvalidType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  string
	}{
		{name: "unknown", typ: "mysql"},
		{name: "empty", typ: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := newTestConfig("audit_log")
			cfg.Type = tt.typ

			_, err := database.Connect(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unsupported database type")
		})
	}
}

func TestConnect_InvalidTableName(t *testing.T) {
	t.Parallel()

	_, err := database.Connect(context.Background(), newTestConfig("Audit-Log"))

	assert.ErrorContains(t, err, "invalid audit log table name")
}

func TestOpen_ReadyToUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Open(ctx, newTestConfig("open_test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := db.GetRepo()
	require.NotNil(t, repo)

	err = repo.Record(ctx, shareustc.AuditEntry{
		UserID:   uuid.New(),
		Username: "alice",
		Action:   shareustc.AuditStsIssued,
		Target:   "resources/",
	})
	require.NoError(t, err)

	page, err := repo.List(ctx, shareustc.AuditQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestDatabase_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig("close_test"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(ctx), "ping should fail after close")
}
