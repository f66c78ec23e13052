package service

import (
	"context"
	"fmt"
	"testing"

	"agrivet-checkout/internal/client"
	"agrivet-checkout/internal/metrics"
	"agrivet-checkout/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakePaymob struct {
	createCalls     int
	lastAmountCents int64
	session         *client.PaymobSession
	createErr       error
	verifyOK        bool
}

func (f *fakePaymob) CreateSession(_ context.Context, amountCents int64, _ client.BillingData) (*client.PaymobSession, error) {
	f.createCalls++
	f.lastAmountCents = amountCents
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakePaymob) VerifyCallback(_ *client.PaymobTransaction, _ string) bool {
	return f.verifyOK
}

type fakePaypal struct {
	createCalls  int
	captureCalls int
	lastValue    string
	lastCurrency string
	order        *client.PaypalOrder
	capture      *client.PaypalCapture
	createErr    error
	captureErr   error
}

func (f *fakePaypal) CreateOrder(_ context.Context, value, currency, _ string) (*client.PaypalOrder, error) {
	f.createCalls++
	f.lastValue = value
	f.lastCurrency = currency
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.order, nil
}

func (f *fakePaypal) CaptureOrder(_ context.Context, _ string) (*client.PaypalCapture, error) {
	f.captureCalls++
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return f.capture, nil
}

// Prometheus collectors register globally; one shared instance keeps the test
// binary from double-registering.
var testMetrics = metrics.NewCheckoutMetrics()

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
