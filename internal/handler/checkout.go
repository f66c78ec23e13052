package handler

import (
	"errors"
	"fmt"
	"net/http"

	"agrivet-checkout/internal/checkout"
	"agrivet-checkout/internal/client"
	"agrivet-checkout/internal/dto"
	"agrivet-checkout/internal/model"
	"agrivet-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	baseURL         string
}

func NewCheckoutHandler(checkoutService service.CheckoutService, baseURL string) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		baseURL:         baseURL,
	}
}

func toCartItems(items []dto.Item) []checkout.CartItem {
	out := make([]checkout.CartItem, len(items))
	for i, item := range items {
		out[i] = checkout.CartItem{
			ID:           item.ID,
			Name:         item.Name,
			Price:        item.Price,
			Quantity:     item.Quantity,
			ThumbnailURL: item.ThumbnailURL,
		}
	}
	return out
}

func toShipping(s dto.Shipping) checkout.Shipping {
	return checkout.Shipping{
		FullName: s.FullName,
		Phone:    s.Phone,
		Address:  s.Address,
		City:     s.City,
		Notes:    s.Notes,
	}
}

func toOrderResponse(order *model.Order) *dto.OrderResponse {
	return &dto.OrderResponse{
		OrderID:       order.ID,
		Status:        string(order.Status),
		PaymentMethod: string(order.PaymentMethod),
		SubtotalMinor: order.SubtotalMinor,
		ShippingMinor: order.ShippingMinor,
		TotalMinor:    order.TotalMinor,
	}
}

// httpError maps service/domain errors onto the response contract: non-2xx
// with a {message} body. Gateway and finalization errors never propagate as
// bare 500s without a user-facing message.
func httpError(err error) error {
	var code int
	switch {
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, checkout.ErrInvalidDraft):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrBadCallbackSignature):
		code = http.StatusUnauthorized
	case errors.Is(err, checkout.ErrNoSuchAttempt):
		code = http.StatusNotFound
	case errors.Is(err, checkout.ErrNotConfirmed), errors.Is(err, checkout.ErrAlreadyProcessed):
		code = http.StatusConflict
	case errors.Is(err, service.ErrFinalize):
		code = http.StatusBadGateway
	default:
		code = http.StatusInternalServerError
	}
	return echo.NewHTTPError(code, err.Error())
}

// CreateCardSession opens a Paymob hosted-iframe session for the reconciled
// cart amount.
func (h *CheckoutHandler) CreateCardSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	attempt, err := h.checkoutService.BeginCardSession(ctx, req.CheckoutKey, req.Amount, toCartItems(req.Items), toShipping(req.Shipping))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, &dto.SessionResponse{
		AttemptID: attempt.ID,
		URL:       attempt.URL,
		OrderRef:  attempt.OrderRef,
	})
}

// PaymobCallback receives Paymob's transaction-processed callback. The HMAC
// rides in the query string, the transaction in the body under "obj".
func (h *CheckoutHandler) PaymobCallback(c echo.Context) error {
	ctx := c.Request().Context()

	var payload struct {
		Type string                    `json:"type"`
		Obj  *client.PaymobTransaction `json:"obj"`
	}
	if err := c.Bind(&payload); err != nil || payload.Obj == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid callback body")
	}

	order, err := h.checkoutService.HandleCardCallback(ctx, payload.Obj, c.QueryParam("hmac"))
	if err != nil {
		return httpError(err)
	}
	if order == nil {
		// Failed, stale or duplicate outcome: acknowledged, nothing created.
		return c.NoContent(http.StatusOK)
	}

	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *CheckoutHandler) CreatePaypalSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	attempt, err := h.checkoutService.BeginPaypalSession(ctx, req.CheckoutKey, toCartItems(req.Items), toShipping(req.Shipping))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, &dto.SessionResponse{
		AttemptID: attempt.ID,
		URL:       attempt.URL,
		OrderRef:  attempt.OrderRef,
	})
}

// PaypalSuccess is the approval return: capture, finalize, confirm.
func (h *CheckoutHandler) PaypalSuccess(c echo.Context) error {
	ctx := c.Request().Context()

	attemptID := c.QueryParam("attempt")
	if attemptID == "" {
		return c.String(http.StatusBadRequest, "missing attempt id")
	}

	order, err := h.checkoutService.CapturePaypal(ctx, attemptID)
	if err != nil {
		return httpError(err)
	}
	if order == nil {
		// Stale redirect from a superseded attempt.
		return c.Redirect(http.StatusFound, h.baseURL)
	}

	html := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<meta charset="utf-8">
		<title>Payment Complete</title>
		<style>
			body {
				font-family: Arial, sans-serif;
				text-align: center;
				margin-top: 80px;
			}
		</style>
	</head>
	<body>
		<h2>Payment complete</h2>
		<p>Your order <strong>%s</strong> has been placed.</p>
		<p><a href="%s/orders/%s">Track your order</a></p>
	</body>
	</html>
	`, order.ID, h.baseURL, order.ID)

	return c.HTML(http.StatusOK, html)
}

// PaypalCancel is the buyer backing out on the approval page. Clean abort,
// back to the checkout form with the draft state still client-side.
func (h *CheckoutHandler) PaypalCancel(c echo.Context) error {
	ctx := c.Request().Context()

	if attemptID := c.QueryParam("attempt"); attemptID != "" {
		if err := h.checkoutService.CancelAttempt(ctx, attemptID); err != nil {
			return httpError(err)
		}
	}

	return c.Redirect(http.StatusFound, h.baseURL+"/checkout")
}

// CheckoutCOD validates the draft and finalizes immediately.
func (h *CheckoutHandler) CheckoutCOD(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CODRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.checkoutService.CheckoutCOD(ctx, req.CheckoutKey, toCartItems(req.Items), toShipping(req.Shipping))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

// CancelAttempt is the storefront closing the card overlay.
func (h *CheckoutHandler) CancelAttempt(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.checkoutService.CancelAttempt(ctx, c.Param("attemptID")); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RetryFinalize re-runs order persistence for a payment-confirmed attempt.
// It never re-charges.
func (h *CheckoutHandler) RetryFinalize(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.checkoutService.RetryFinalize(ctx, c.Param("attemptID"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, toOrderResponse(order))
}
