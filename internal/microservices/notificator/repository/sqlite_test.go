package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-delivery/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLite_ClaimComplete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	d := domain.Delivery{MessageID: "m-1", OrderID: 1, CustomerID: 1, Message: "hi"}
	require.NoError(t, repo.Claim(ctx, d))

	d.Outcome, d.SMSSent = domain.OutcomeDelivered, true
	require.NoError(t, repo.Complete(ctx, d))

	err := repo.Claim(ctx, d)
	assert.ErrorIs(t, err, ErrAlreadyDelivered)

	list, err := repo.ListByOrder(ctx, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.OutcomeDelivered, list[0].Outcome)
	assert.True(t, list[0].SMSSent)
	assert.False(t, list[0].EmailSent)
	assert.Equal(t, 1, list[0].Attempts)
}

func TestSQLite_ReclaimAfterFailure(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	d := domain.Delivery{MessageID: "m-2", OrderID: 7, CustomerID: 2, Message: "hi"}
	require.NoError(t, repo.Claim(ctx, d))
	d.Outcome, d.Error = domain.OutcomeFailed, "smtp down"
	require.NoError(t, repo.Complete(ctx, d))

	require.NoError(t, repo.Claim(ctx, d))

	list, err := repo.ListByOrder(ctx, 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Attempts)
	assert.Equal(t, domain.OutcomeProcessing, list[0].Outcome)
}

func TestSQLite_CompleteUnknown(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Complete(context.Background(), domain.Delivery{MessageID: "nope", Outcome: domain.OutcomeFailed})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSQLite_ListByOrderPaging(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		require.NoError(t, repo.Claim(ctx, domain.Delivery{MessageID: id, OrderID: 5, CustomerID: 1, Message: id}))
	}
	require.NoError(t, repo.Claim(ctx, domain.Delivery{MessageID: "other", OrderID: 6, CustomerID: 1, Message: "x"}))

	page, err := repo.ListByOrder(ctx, 5, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].MessageID)
	assert.Equal(t, "b", page[1].MessageID)

	rest, err := repo.ListByOrder(ctx, 5, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "a", rest[0].MessageID)

	none, err := repo.ListByOrder(ctx, 99, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
