package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shareustc/shareustc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_RecordAndList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first := newEntry(shareustc.AuditStsIssued, "resources/", baseTime)
	first.Detail = "expiration=2025-03-01T12:15:00Z"
	second := newEntry(shareustc.AuditObjectDeleted, "images/a.png", baseTime.Add(time.Minute))

	require.NoError(t, repo.Record(ctx, first))
	require.NoError(t, repo.Record(ctx, second))

	page, err := repo.List(ctx, shareustc.AuditQuery{})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)
	assert.Equal(t, second.ID, page.Items[0].ID, "newest first")
	assert.Equal(t, first.Target, page.Items[1].Target)
	assert.Equal(t, first.Detail, page.Items[1].Detail)
	assert.True(t, first.CreatedAt.Equal(page.Items[1].CreatedAt))
}

func TestRepo_ListFilterByAction(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, newEntry(shareustc.AuditStsIssued, "resources/", baseTime)))
	require.NoError(t, repo.Record(ctx, newEntry(shareustc.AuditPresignIssued, "resources/a.pdf", baseTime.Add(time.Second))))

	page, err := repo.List(ctx, shareustc.AuditQuery{Action: shareustc.AuditPresignIssued})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "resources/a.pdf", page.Items[0].Target)
}

func TestRepo_ListPagination(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := range 5 {
		at := baseTime.Add(time.Duration(i/2) * time.Second)
		require.NoError(t, repo.Record(ctx, newEntry(shareustc.AuditPresignIssued, "resources/f", at)))
	}

	seen := make(map[uuid.UUID]bool)
	var cursor string

	for {
		page, err := repo.List(ctx, shareustc.AuditQuery{Limit: 2, Cursor: cursor})
		require.NoError(t, err)

		for _, item := range page.Items {
			assert.False(t, seen[item.ID], "entry returned twice")
			seen[item.ID] = true
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Len(t, seen, 5)
}

func TestRepo_Prune(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, newEntry(shareustc.AuditStsIssued, "old", baseTime.AddDate(0, 0, -40))))
	require.NoError(t, repo.Record(ctx, newEntry(shareustc.AuditStsIssued, "new", baseTime)))

	n, err := repo.Prune(ctx, baseTime.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	page, err := repo.List(ctx, shareustc.AuditQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "new", page.Items[0].Target)
}
