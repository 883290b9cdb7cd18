package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/ariefcatur/glam-orders/internal/cart"
	"github.com/ariefcatur/glam-orders/internal/sqlitedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLiteRepo(t *testing.T) (*SQLiteRepo, *sql.DB) {
	t.Helper()
	db, err := sqlitedb.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewSQLiteRepo(context.Background(), db)
	require.NoError(t, err)

	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo, db
}

func newOrder(user, key string) Order {
	items := sampleItems()
	return Order{
		UserID:          user,
		Items:           items,
		DeliveryFee:     1000,
		Total:           cart.Subtotal(items) + 1000,
		ShippingAddress: "3,Olu-Ajilo, Isolo",
		PhoneNumber:     "+234 903 463 3896",
		IdempotencyKey:  key,
	}
}

func TestSQLiteRepoCreate(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	ctx := context.Background()

	o, existed, err := repo.Create(ctx, newOrder("user-1", "k1"))
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, int64(30000), o.Total)

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Items, got.Items)
	assert.Equal(t, o.CreatedAt, got.CreatedAt)
	assert.Equal(t, "+234 903 463 3896", got.PhoneNumber)
}

func TestSQLiteRepoCreateIsIdempotent(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	ctx := context.Background()

	first, _, err := repo.Create(ctx, newOrder("user-1", "same-key"))
	require.NoError(t, err)

	second, existed, err := repo.Create(ctx, newOrder("user-1", "same-key"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, first.ID, second.ID)

	list, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteRepoIdempotencyKeyIsPerUser(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	ctx := context.Background()

	mine, _, err := repo.Create(ctx, newOrder("user-1", "shared"))
	require.NoError(t, err)

	theirs, existed, err := repo.Create(ctx, newOrder("user-2", "shared"))
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEqual(t, mine.ID, theirs.ID)
	assert.Equal(t, "user-2", theirs.UserID)

	again, existed, err := repo.Create(ctx, newOrder("user-2", "shared"))
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, theirs.ID, again.ID)
}

func TestSQLiteRepoRejectsEmptyAddress(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	o := newOrder("user-1", "k")
	o.ShippingAddress = ""

	_, _, err := repo.Create(context.Background(), o)
	assert.Error(t, err)
}

func TestSQLiteRepoListByUserNewestFirstAndIsolated(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	ctx := context.Background()

	var ids []string
	for i, key := range []string{"a", "b", "c"} {
		o, _, err := repo.Create(ctx, newOrder("user-1", key))
		require.NoError(t, err)
		ids = append(ids, o.ID)
		_, _, err = repo.Create(ctx, newOrder("user-2", key+"-other"))
		require.NoError(t, err, "order %d", i)
	}

	list, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{list[0].ID, list[1].ID, list[2].ID})
	for i, o := range list {
		assert.Equal(t, "user-1", o.UserID)
		if i > 0 {
			assert.True(t, list[i-1].CreatedAt.After(o.CreatedAt))
		}
	}

	none, err := repo.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteRepoReadsStringEncodedItems(t *testing.T) {
	repo, db := setupSQLiteRepo(t)
	ctx := context.Background()

	o, _, err := repo.Create(ctx, newOrder("user-1", "legacy"))
	require.NoError(t, err)

	canonical, err := EncodeItems(o.Items)
	require.NoError(t, err)
	legacy, err := json.Marshal(string(canonical))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `UPDATE orders SET items = ? WHERE id = ?`, string(legacy), o.ID)
	require.NoError(t, err)

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Items, got.Items)
}

func TestSQLiteRepoUpdateStatus(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	ctx := context.Background()
	o, _, err := repo.Create(ctx, newOrder("user-1", "k"))
	require.NoError(t, err)

	_, err = repo.UpdateStatus(ctx, o.ID, StatusDelivered)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	updated, err := repo.UpdateStatus(ctx, o.ID, StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, updated.Status)

	updated, err = repo.UpdateStatus(ctx, o.ID, StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)

	_, err = repo.UpdateStatus(ctx, o.ID, StatusProcessing)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = repo.UpdateStatus(ctx, "missing", StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteRepoGetNotFound(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)
	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
