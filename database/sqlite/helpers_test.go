package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shareustc/shareustc"
	"github.com/shareustc/shareustc/database/sqlite"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a migrated in-memory repo with a unique table name.
func setupTestRepo(t *testing.T) shareustc.AuditRepo {
	t.Helper()

	ctx := context.Background()
	tables := shareustc.Tables{AuditLog: "audit_" + getRandomString(t)}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}

func newEntry(action shareustc.AuditAction, target string, at time.Time) shareustc.AuditEntry {
	return shareustc.AuditEntry{
		ID:        uuid.New(),
		UserID:    uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Username:  "alice",
		Action:    action,
		Target:    target,
		CreatedAt: at,
	}
}
