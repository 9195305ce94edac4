package postgresql_test

import (
	"context"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_database "github.com/stockroom/inventory-portal/internal/db/mocks"
	"github.com/stockroom/inventory-portal/internal/repository"
	"github.com/stockroom/inventory-portal/internal/repository/postgresql"
)

func TestProductRepo_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewProductRepo(mockDB)

		expected := &repository.Product{ID: "p1", Name: "Soap", AvailableQty: 12, Qty: 20, SalePrice: decimal.NewFromInt(120)}
		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("p1")).
			DoAndReturn(func(_ context.Context, dest *repository.Product, _ string, _ ...interface{}) error {
				*dest = *expected
				return nil
			})

		product, err := repo.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, expected, product)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewProductRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("gone")).Return(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, "gone")
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestProductRepo_UpdateAvailableQty(t *testing.T) {
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewProductRepo(mockDB)

		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq(8), gomock.Eq("p1")).Return(pgconn.CommandTag("UPDATE 1"), nil)
		assert.NoError(t, repo.UpdateAvailableQty(ctx, "p1", 8))
	})

	t.Run("negative quantities are stored as given", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewProductRepo(mockDB)

		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq(-2), gomock.Eq("p1")).Return(pgconn.CommandTag("UPDATE 1"), nil)
		assert.NoError(t, repo.UpdateAvailableQty(ctx, "p1", -2))
	})

	t.Run("unknown product", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewProductRepo(mockDB)

		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq(3), gomock.Eq("gone")).Return(pgconn.CommandTag("UPDATE 0"), nil)
		assert.ErrorIs(t, repo.UpdateAvailableQty(ctx, "gone", 3), repository.ErrObjectNotFound)
	})
}
