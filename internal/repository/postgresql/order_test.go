package postgresql_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

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

func testOrder(orderID string) *repository.Order {
	return &repository.Order{
		OrderID:        orderID,
		Name:           "Karim",
		Phone:          "01800000000",
		Address:        "House 4, Road 2",
		District:       "Dhaka",
		Products:       json.RawMessage(`[{"_id":"p1","quantity":1}]`),
		Quantity:       1,
		Courier:        "pathao",
		DeliveryCharge: decimal.NewFromInt(60),
		Total:          decimal.NewFromInt(560),
		OrderStatus:    "processing",
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestOrderRepo_CreateTx(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewOrderRepo(mockDB)

		order := testOrder("AbCdEfGhIj")
		mockTx.EXPECT().Exec(
			gomock.Any(),
			gomock.Any(),
			gomock.Eq(order.OrderID),
			gomock.Any(), gomock.Eq(order.Name), gomock.Eq(order.Phone), gomock.Eq(order.Address), gomock.Eq(order.District),
			gomock.Eq(order.Products), gomock.Eq(order.Quantity), gomock.Eq(order.Courier),
			gomock.Eq(order.DeliveryCharge), gomock.Any(), gomock.Eq(order.Total), gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Eq(order.OrderStatus), gomock.Eq(order.CreatedAt),
		).Return(pgconn.CommandTag("INSERT 0 1"), nil)

		assert.NoError(t, repo.CreateTx(ctx, mockTx, order))
	})

	t.Run("unique violation", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewOrderRepo(mockDB)

		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_id_key"}
		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, pgErr)

		err := repo.CreateTx(ctx, mockTx, testOrder("AbCdEfGhIj"))
		assert.ErrorIs(t, err, repository.ErrDuplicateKey)
		assert.Contains(t, err.Error(), "orders_order_id_key")
	})
}

func TestOrderRepo_CreateManyTx(t *testing.T) {
	ctx := context.Background()

	t.Run("all rows inserted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewOrderRepo(mock_database.NewMockDB(ctrl))

		orders := []*repository.Order{testOrder("a1"), testOrder("a2"), testOrder("a3")}
		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(pgconn.CommandTag("INSERT 0 1"), nil).Times(3)

		n, err := repo.CreateManyTx(ctx, mockTx, orders)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("stops at the failing row", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockTx := mock_database.NewMockTx(ctrl)
		repo := postgresql.NewOrderRepo(mock_database.NewMockDB(ctrl))

		orders := []*repository.Order{testOrder("a1"), testOrder("a2"), testOrder("a3")}
		expectedErr := errors.New("value too long for type character varying")
		gomock.InOrder(
			mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any()).Return(pgconn.CommandTag("INSERT 0 1"), nil),
			mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, expectedErr),
		)

		n, err := repo.CreateManyTx(ctx, mockTx, orders)
		assert.Equal(t, 1, n)
		assert.Equal(t, expectedErr, err)
	})
}

func TestOrderRepo_GetByOrderID(t *testing.T) {
	ctx := context.Background()

	t.Run("order found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewOrderRepo(mockDB)

		expected := testOrder("AbCdEfGhIj")
		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq(expected.OrderID)).
			DoAndReturn(func(_ context.Context, dest *repository.Order, _ string, _ ...interface{}) error {
				*dest = *expected
				return nil
			})

		order, err := repo.GetByOrderID(ctx, expected.OrderID)
		require.NoError(t, err)
		assert.Equal(t, expected, order)
	})

	t.Run("order not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewOrderRepo(mockDB)

		mockDB.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("missing")).Return(pgx.ErrNoRows)

		order, err := repo.GetByOrderID(ctx, "missing")
		assert.Nil(t, order)
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})
}

func TestOrderRepo_UpdateStatusTx(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		tag     pgconn.CommandTag
		execErr error
		wantErr error
	}{
		{name: "updated", tag: pgconn.CommandTag("UPDATE 1")},
		{name: "no such order", tag: pgconn.CommandTag("UPDATE 0"), wantErr: repository.ErrObjectNotFound},
		{name: "database error", execErr: errors.New("connection reset"), wantErr: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockTx := mock_database.NewMockTx(ctrl)
			repo := postgresql.NewOrderRepo(mock_database.NewMockDB(ctrl))

			mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq("ready"), gomock.Eq("AbCdEfGhIj")).
				Return(tt.tag, tt.execErr)

			err := repo.UpdateStatusTx(ctx, mockTx, "AbCdEfGhIj", "ready")
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr.Error())
		})
	}
}

func TestOrderRepo_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewOrderRepo(mockDB)

		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq("AbCdEfGhIj")).Return(pgconn.CommandTag("DELETE 1"), nil)
		assert.NoError(t, repo.Delete(ctx, "AbCdEfGhIj"))
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewOrderRepo(mockDB)

		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Eq("missing")).Return(pgconn.CommandTag("DELETE 0"), nil)
		assert.ErrorIs(t, repo.Delete(ctx, "missing"), repository.ErrObjectNotFound)
	})
}

func TestOrderRepo_ListByStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("filtered and bounded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewOrderRepo(mockDB)

		expected := []*repository.Order{testOrder("a1"), testOrder("a2")}
		mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Eq("processing"), gomock.Eq(50)).
			DoAndReturn(func(_ context.Context, dest *[]*repository.Order, query string, _ ...interface{}) error {
				assert.Contains(t, query, "WHERE order_status = $1")
				assert.Contains(t, query, "LIMIT $2")
				*dest = expected
				return nil
			})

		orders, err := repo.ListByStatus(ctx, "processing", 50)
		require.NoError(t, err)
		assert.Equal(t, expected, orders)
	})

	t.Run("all orders without limit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_database.NewMockDB(ctrl)
		repo := postgresql.NewOrderRepo(mockDB)

		mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, dest *[]*repository.Order, query string, args ...interface{}) error {
				assert.NotContains(t, query, "WHERE")
				assert.NotContains(t, query, "LIMIT")
				assert.Empty(t, args)
				return nil
			})

		orders, err := repo.ListByStatus(ctx, "", 0)
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestOrderRepo_GetAllActiveOrders(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockDB := mock_database.NewMockDB(ctrl)
	repo := postgresql.NewOrderRepo(mockDB)

	mockDB.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("database error"))

	orders, err := repo.GetAllActiveOrders(ctx)
	assert.Nil(t, orders)
	assert.ErrorContains(t, err, "failed to get all active orders")
}
