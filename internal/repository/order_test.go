package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agrivet-checkout/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusChange{},
		&model.OrderComment{},
		&model.GatewayTxn{},
	))

	return db
}

func seedOrder(t *testing.T, db *gorm.DB, repo OrderRepository, id string, status model.OrderStatus) {
	t.Helper()
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, &model.Order{
			ID:            id,
			Status:        status,
			PaymentMethod: model.PaymentMethodCOD,
			CustomerName:  "Ahmed Mostafa",
			CustomerPhone: "01001234567",
			Address:       "12 El-Nasr Street",
			City:          "Mansoura",
			SubtotalMinor: 10000,
			ShippingMinor: 5000,
			TotalMinor:    15000,
			Currency:      "EGP",
		}); err != nil {
			return err
		}
		if err := repo.CreateOrderItems(ctx, tx, []*model.OrderItem{
			{OrderID: id, ProductID: "feed-25", Name: "Poultry feed", UnitMinor: 5000, Quantity: 2},
		}); err != nil {
			return err
		}
		return repo.AppendStatusChange(ctx, tx, &model.OrderStatusChange{
			OrderID:   id,
			Status:    status,
			Actor:     "storefront",
			ChangedAt: time.Now(),
		})
	})
	require.NoError(t, err)
}

func TestOrderRepository_CreateAndFetch(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, db, repo, "order-1", model.OrderStatusPending)

	order, err := repo.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, int64(15000), order.TotalMinor)

	items, err := repo.GetOrderItems(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "feed-25", items[0].ProductID)

	history, err := repo.GetStatusHistory(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.OrderStatusPending, history[0].Status)
}

func TestOrderRepository_UpdateStatusGuard(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, db, repo, "order-1", model.OrderStatusPending)

	err := repo.UpdateStatus(ctx, db, "order-1",
		[]model.OrderStatus{model.OrderStatusPending}, model.OrderStatusProcessing)
	require.NoError(t, err)

	// Same transition again: the order already left pending.
	err = repo.UpdateStatus(ctx, db, "order-1",
		[]model.OrderStatus{model.OrderStatusPending}, model.OrderStatusProcessing)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	order, err := repo.FindByID(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
}

func TestOrderRepository_ListFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, db, repo, "order-1", model.OrderStatusPending)
	seedOrder(t, db, repo, "order-2", model.OrderStatusDelivered)

	pending, err := repo.List(ctx, model.OrderStatusPending, 10, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "order-1", pending[0].ID)

	all, err := repo.List(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestOrderRepository_Comments(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	seedOrder(t, db, repo, "order-1", model.OrderStatusPending)

	require.NoError(t, repo.AddComment(ctx, &model.OrderComment{
		OrderID: "order-1",
		Author:  "admin",
		Text:    "customer asked for morning delivery",
	}))

	comments, err := repo.GetComments(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "admin", comments[0].Author)
}

func TestGatewayTxnRepository_Idempotency(t *testing.T) {
	db := newTestDB(t)
	repo := NewGatewayTxnRepository(db)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "txn-1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.MarkProcessed(ctx, db, "txn-1", "order-1", "card"))

	exists, err = repo.Exists(ctx, "txn-1")
	require.NoError(t, err)
	assert.True(t, exists)

	// Primary key holds the line: the same txn cannot be recorded twice.
	assert.Error(t, repo.MarkProcessed(ctx, db, "txn-1", "order-2", "card"))
}
