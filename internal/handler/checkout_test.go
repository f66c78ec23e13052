package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"agrivet-checkout/internal/checkout"
	"agrivet-checkout/internal/client"
	"agrivet-checkout/internal/dto"
	"agrivet-checkout/internal/metrics"
	"agrivet-checkout/internal/model"
	"agrivet-checkout/internal/repository"
	"agrivet-checkout/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubPaymob struct {
	session *client.PaymobSession
	err     error
}

func (s *stubPaymob) CreateSession(context.Context, int64, client.BillingData) (*client.PaymobSession, error) {
	return s.session, s.err
}

func (s *stubPaymob) VerifyCallback(*client.PaymobTransaction, string) bool {
	return false
}

type stubPaypal struct{}

func (stubPaypal) CreateOrder(context.Context, string, string, string) (*client.PaypalOrder, error) {
	return &client.PaypalOrder{OrderID: "PP-1", ApproveURL: "https://paypal/approve"}, nil
}

func (stubPaypal) CaptureOrder(context.Context, string) (*client.PaypalCapture, error) {
	return &client.PaypalCapture{CaptureID: "CAP-1"}, nil
}

var testMetrics = metrics.NewCheckoutMetrics()

func newCheckoutMux(t *testing.T, paymob client.PaymobClient) (*echo.Echo, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Order{}, &model.OrderItem{}, &model.OrderStatusChange{},
		&model.OrderComment{}, &model.GatewayTxn{},
	))

	svc := service.NewCheckoutService(
		db,
		checkout.NewRegistry(),
		paymob,
		stubPaypal{},
		repository.NewOrderRepository(db),
		repository.NewGatewayTxnRepository(db),
		testMetrics,
		5000,
		decimal.RequireFromString("0.021"),
		"USD",
	)

	h := NewCheckoutHandler(svc, "https://shop.example")

	e := echo.New()
	e.POST("/api/paymob/session", h.CreateCardSession)
	e.POST("/api/paymob/callback", h.PaymobCallback)
	e.POST("/api/paypal/session", h.CreatePaypalSession)
	e.POST("/api/checkout/cod", h.CheckoutCOD)
	e.POST("/api/checkout/:attemptID/cancel", h.CancelAttempt)
	return e, db
}

func postJSON(t *testing.T, e *echo.Echo, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func validCODRequest() dto.CODRequest {
	return dto.CODRequest{
		CheckoutKey: "cart-1",
		Items: []dto.Item{{
			ID:       "feed-25",
			Name:     "Poultry feed 25kg",
			Price:    decimal.RequireFromString("50"),
			Quantity: 2,
		}},
		Shipping: dto.Shipping{
			FullName: "Ahmed Mostafa",
			Phone:    "0100 123 4567",
			Address:  "12 El-Nasr Street",
			City:     "Mansoura",
		},
	}
}

func TestCheckoutCOD_Created(t *testing.T) {
	e, db := newCheckoutMux(t, &stubPaymob{})

	rec := postJSON(t, e, "/api/checkout/cod", validCODRequest())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "cod", resp.PaymentMethod)
	assert.Equal(t, int64(15000), resp.TotalMinor)

	var n int64
	require.NoError(t, db.Model(&model.Order{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestCheckoutCOD_EmptyCart(t *testing.T) {
	e, _ := newCheckoutMux(t, &stubPaymob{})

	req := validCODRequest()
	req.Items = nil

	rec := postJSON(t, e, "/api/checkout/cod", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Contains(t, errResp.Message, "cart is empty")
}

func TestCheckoutCOD_BadPhone(t *testing.T) {
	e, _ := newCheckoutMux(t, &stubPaymob{})

	req := validCODRequest()
	req.Shipping.Phone = "12345"

	rec := postJSON(t, e, "/api/checkout/cod", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCardSession_ReturnsHandle(t *testing.T) {
	e, _ := newCheckoutMux(t, &stubPaymob{
		session: &client.PaymobSession{IframeURL: "https://accept/iframe?payment_token=tk", OrderRef: "12345"},
	})

	body := dto.SessionRequest{
		CheckoutKey: "cart-1",
		Amount:      decimal.RequireFromString("10"),
		Items:       validCODRequest().Items,
		Shipping:    validCODRequest().Shipping,
	}

	rec := postJSON(t, e, "/api/paymob/session", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AttemptID)
	assert.Equal(t, "https://accept/iframe?payment_token=tk", resp.URL)
	assert.Equal(t, "12345", resp.OrderRef)
}

func TestCreateCardSession_GatewayDown(t *testing.T) {
	e, _ := newCheckoutMux(t, &stubPaymob{err: assert.AnError})

	body := dto.SessionRequest{
		CheckoutKey: "cart-1",
		Items:       validCODRequest().Items,
		Shipping:    validCODRequest().Shipping,
	}

	rec := postJSON(t, e, "/api/paymob/session", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "message")
}

func TestPaymobCallback_ForgedSignature(t *testing.T) {
	e, _ := newCheckoutMux(t, &stubPaymob{})

	body := map[string]interface{}{
		"type": "TRANSACTION",
		"obj":  map[string]interface{}{"id": 777, "success": true},
	}

	rec := postJSON(t, e, "/api/paymob/callback?hmac=forged", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCancelAttempt_UnknownIsNoOp(t *testing.T) {
	e, _ := newCheckoutMux(t, &stubPaymob{})

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/gone/cancel", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
