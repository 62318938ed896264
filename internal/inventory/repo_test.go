package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) (*Repo, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &Repo{DB: mock}, mock
}

func recordRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"property_id", "product_id", "name", "quantity", "unit_price_cents", "updated_at",
	})
}

func TestSnapshotForUpdate(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("locks and returns matching records", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("prop-1", "p1").
			WillReturnRows(recordRows().AddRow("prop-1", "p1", "Coffee", 5, int64(1000), now))
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("prop-1", "p2").
			WillReturnRows(recordRows()) // no record for p2

		tx, err := mock.Begin(ctx)
		require.NoError(t, err)

		snap, err := repo.SnapshotForUpdate(ctx, tx, "prop-1", []string{"p1", "p2"})
		require.NoError(t, err)

		require.Contains(t, snap, "p1")
		assert.Equal(t, 5, snap["p1"].Quantity)
		assert.Equal(t, int64(1000), snap["p1"].UnitPriceCents)
		assert.NotContains(t, snap, "p2")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error surfaces", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").
			WithArgs("prop-1", "p1").
			WillReturnError(errors.New("lock timeout"))

		tx, err := mock.Begin(ctx)
		require.NoError(t, err)

		_, err = repo.SnapshotForUpdate(ctx, tx, "prop-1", []string{"p1"})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDecrement(t *testing.T) {
	ctx := context.Background()

	t.Run("applies when stock suffices", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE inventory").
			WithArgs("prop-1", "p1", 2).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		tx, err := mock.Begin(ctx)
		require.NoError(t, err)

		applied, err := repo.Decrement(ctx, tx, "prop-1", "p1", 2)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard rejects oversell", func(t *testing.T) {
		repo, mock := newRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE inventory").
			WithArgs("prop-1", "p1", 99).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		tx, err := mock.Begin(ctx)
		require.NoError(t, err)

		applied, err := repo.Decrement(ctx, tx, "prop-1", "p1", 99)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListByProperty(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("FROM inventory").
		WithArgs("prop-1").
		WillReturnRows(recordRows().
			AddRow("prop-1", "p2", "Snacks", 7, int64(350), now).
			AddRow("prop-1", "p1", "Wine", 2, int64(1200), now))

	recs, err := repo.ListByProperty(context.Background(), "prop-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Snacks", recs[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec("INSERT INTO inventory").
		WithArgs("prop-1", "p1", "Coffee", 10, int64(1000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), Record{
		PropertyID: "prop-1", ProductID: "p1", Name: "Coffee", Quantity: 10, UnitPriceCents: 1000,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
