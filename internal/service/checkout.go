package service

import (
	"context"
	"fmt"
	"strconv"

	"agrivet-checkout/internal/checkout"
	"agrivet-checkout/internal/client"
	"agrivet-checkout/internal/metrics"
	"agrivet-checkout/internal/model"
	"agrivet-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CheckoutService orchestrates one checkout attempt end to end: draft
// validation, server-side amount reconciliation, gateway session setup,
// outcome handling and order finalization.
//
// Ordering guarantees: reconciliation always runs before a session is opened,
// and finalization only ever runs after a gateway reported success (COD is
// definitionally immediate success). Cancelling before success never leaves
// an order row behind.
type CheckoutService interface {
	BeginCardSession(ctx context.Context, key string, amount decimal.Decimal, items []checkout.CartItem, shipping checkout.Shipping) (*checkout.Attempt, error)
	BeginPaypalSession(ctx context.Context, key string, items []checkout.CartItem, shipping checkout.Shipping) (*checkout.Attempt, error)
	CheckoutCOD(ctx context.Context, key string, items []checkout.CartItem, shipping checkout.Shipping) (*model.Order, error)
	HandleCardCallback(ctx context.Context, txn *client.PaymobTransaction, receivedHMAC string) (*model.Order, error)
	CapturePaypal(ctx context.Context, attemptID string) (*model.Order, error)
	CancelAttempt(ctx context.Context, attemptID string) error
	RetryFinalize(ctx context.Context, attemptID string) (*model.Order, error)
}

type checkoutServiceImpl struct {
	db       *gorm.DB
	registry *checkout.Registry
	paymob   client.PaymobClient
	paypal   client.PaypalClient

	orderRepo repository.OrderRepository
	txnRepo   repository.GatewayTxnRepository
	metrics   *metrics.CheckoutMetrics

	shippingFeeMinor int64
	egpToUSD         decimal.Decimal
	paypalCurrency   string
}

func NewCheckoutService(
	db *gorm.DB,
	registry *checkout.Registry,
	paymob client.PaymobClient,
	paypal client.PaypalClient,
	orderRepo repository.OrderRepository,
	txnRepo repository.GatewayTxnRepository,
	m *metrics.CheckoutMetrics,
	shippingFeeMinor int64,
	egpToUSD decimal.Decimal,
	paypalCurrency string,
) CheckoutService {
	return &checkoutServiceImpl{
		db:               db,
		registry:         registry,
		paymob:           paymob,
		paypal:           paypal,
		orderRepo:        orderRepo,
		txnRepo:          txnRepo,
		metrics:          m,
		shippingFeeMinor: shippingFeeMinor,
		egpToUSD:         egpToUSD,
		paypalCurrency:   paypalCurrency,
	}
}

// BeginCardSession reconciles the charge amount from the cart, then asks
// Paymob for a hosted payment page. The client-declared amount is never what
// gets charged when items are present.
func (s *checkoutServiceImpl) BeginCardSession(ctx context.Context, key string, amount decimal.Decimal, items []checkout.CartItem, shipping checkout.Shipping) (*checkout.Attempt, error) {
	draft, err := checkout.NewDraft(items, shipping, s.shippingFeeMinor)
	if err != nil {
		return nil, err
	}

	// Reconciliation covers the cart only; the delivery fee is collected on
	// the order total, not through the gateway.
	chargeMinor := checkout.CalculateAmountCents(amount, draft.CartItems)

	attempt := s.registry.Begin(key, checkout.GatewayCard, draft)
	s.metrics.AttemptStarted(string(checkout.GatewayCard))

	billing := client.NewBillingData(shipping.FullName, draft.Shipping.Phone, shipping.Address, shipping.City)
	session, err := s.paymob.CreateSession(ctx, chargeMinor, billing)
	if err != nil {
		// Draft untouched, no partial order; the user can retry from the form.
		s.registry.Complete(attempt.ID)
		s.metrics.AttemptResolved(string(checkout.GatewayCard), checkout.SessionError.String())
		return nil, fmt.Errorf("create paymob session: %w", err)
	}

	if err := s.registry.Opened(attempt.ID, session.IframeURL, session.OrderRef); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"attempt_id":   attempt.ID,
		"order_ref":    session.OrderRef,
		"charge_minor": chargeMinor,
	}).Info("card session opened")

	return attempt, nil
}

// BeginPaypalSession converts the reconciled EGP total to the settlement
// currency at the configured fixed rate and opens a PayPal order.
func (s *checkoutServiceImpl) BeginPaypalSession(ctx context.Context, key string, items []checkout.CartItem, shipping checkout.Shipping) (*checkout.Attempt, error) {
	draft, err := checkout.NewDraft(items, shipping, s.shippingFeeMinor)
	if err != nil {
		return nil, err
	}

	attempt := s.registry.Begin(key, checkout.GatewayPaypal, draft)
	s.metrics.AttemptStarted(string(checkout.GatewayPaypal))

	value := s.convertToSettlement(draft.Summary.TotalMinor)
	order, err := s.paypal.CreateOrder(ctx, value, s.paypalCurrency, attempt.ID)
	if err != nil {
		s.registry.Complete(attempt.ID)
		s.metrics.AttemptResolved(string(checkout.GatewayPaypal), checkout.SessionError.String())
		return nil, fmt.Errorf("create paypal order: %w", err)
	}

	if err := s.registry.Opened(attempt.ID, order.ApproveURL, order.OrderID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"attempt_id": attempt.ID,
		"order_ref":  order.OrderID,
		"value":      value,
		"currency":   s.paypalCurrency,
	}).Info("paypal session opened")

	return attempt, nil
}

// CheckoutCOD bypasses external gateways: a valid draft is a success by
// definition and finalizes immediately.
func (s *checkoutServiceImpl) CheckoutCOD(ctx context.Context, key string, items []checkout.CartItem, shipping checkout.Shipping) (*model.Order, error) {
	draft, err := checkout.NewDraft(items, shipping, s.shippingFeeMinor)
	if err != nil {
		return nil, err
	}

	attempt := s.registry.Begin(key, checkout.GatewayCOD, draft)
	s.metrics.AttemptStarted(string(checkout.GatewayCOD))

	applied, err := s.registry.Resolve(attempt.ID, checkout.SessionSuccess, &checkout.Confirmation{})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, checkout.ErrNoSuchAttempt
	}
	s.metrics.AttemptResolved(string(checkout.GatewayCOD), checkout.SessionSuccess.String())

	return s.finalize(ctx, attempt)
}

// HandleCardCallback verifies the Paymob transaction signature, matches it to
// a live attempt by the gateway order reference and applies the outcome.
// Callbacks for superseded attempts are discarded without error.
func (s *checkoutServiceImpl) HandleCardCallback(ctx context.Context, txn *client.PaymobTransaction, receivedHMAC string) (*model.Order, error) {
	if !s.paymob.VerifyCallback(txn, receivedHMAC) {
		return nil, ErrBadCallbackSignature
	}

	orderRef := strconv.FormatInt(txn.Order.ID, 10)
	attempt, err := s.registry.FindByOrderRef(orderRef)
	if err != nil {
		// Unknown or already superseded reference: late callback, nothing to do.
		log.WithField("order_ref", orderRef).Info("discarding callback for unknown order ref")
		s.metrics.StaleCallback()
		return nil, nil
	}

	outcome := checkout.SessionError
	var conf *checkout.Confirmation
	if txn.Success {
		outcome = checkout.SessionSuccess
		conf = &checkout.Confirmation{
			TxnID:        strconv.FormatInt(txn.ID, 10),
			SettledMinor: txn.AmountCents,
			SettledCcy:   txn.Currency,
		}
	}

	applied, err := s.registry.Resolve(attempt.ID, outcome, conf)
	if err != nil {
		return nil, err
	}
	if !applied {
		s.metrics.StaleCallback()
		return nil, nil
	}
	s.metrics.AttemptResolved(string(checkout.GatewayCard), outcome.String())

	if outcome != checkout.SessionSuccess {
		return nil, nil
	}
	return s.finalize(ctx, attempt)
}

// CapturePaypal runs when the buyer returns from the approval page: capture
// the funds, then finalize. A stale attempt id means the buyer retried with a
// newer session and this redirect is ignored.
func (s *checkoutServiceImpl) CapturePaypal(ctx context.Context, attemptID string) (*model.Order, error) {
	attempt, err := s.registry.Get(attemptID)
	if err != nil {
		s.metrics.StaleCallback()
		return nil, nil
	}

	capture, err := s.paypal.CaptureOrder(ctx, attempt.OrderRef)
	if err != nil {
		return nil, fmt.Errorf("paypal capture: %w", err)
	}

	conf := &checkout.Confirmation{
		TxnID:      capture.CaptureID,
		PayerEmail: capture.PayerEmail,
		SettledCcy: capture.Currency,
	}
	if v, derr := decimal.NewFromString(capture.Value); derr == nil {
		conf.SettledMinor = v.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	}

	applied, err := s.registry.Resolve(attempt.ID, checkout.SessionSuccess, conf)
	if err != nil {
		return nil, err
	}
	if !applied {
		s.metrics.StaleCallback()
		return nil, nil
	}
	s.metrics.AttemptResolved(string(checkout.GatewayPaypal), checkout.SessionSuccess.String())

	return s.finalize(ctx, attempt)
}

// CancelAttempt is the user closing the overlay or PayPal's cancel return.
// Clean cancellation: no order, no charge record, draft reference dropped.
func (s *checkoutServiceImpl) CancelAttempt(ctx context.Context, attemptID string) error {
	attempt, err := s.registry.Get(attemptID)
	if err != nil {
		// Already gone; cancelling twice is not an error.
		return nil
	}

	applied, err := s.registry.Resolve(attemptID, checkout.SessionCancelled, nil)
	if err != nil {
		return err
	}
	if applied {
		s.metrics.AttemptResolved(string(attempt.Gateway), checkout.SessionCancelled.String())
	}
	return nil
}

// RetryFinalize re-runs persistence for an attempt whose payment is already
// confirmed. It never talks to a gateway.
func (s *checkoutServiceImpl) RetryFinalize(ctx context.Context, attemptID string) (*model.Order, error) {
	attempt, err := s.registry.Get(attemptID)
	if err != nil {
		return nil, err
	}
	return s.finalize(ctx, attempt)
}

// finalize persists the order atomically: order row, items, the initial
// status-history entry and the processed-transaction marker. On failure the
// attempt survives with its confirmation so RetryFinalize can resubmit
// persistence alone.
func (s *checkoutServiceImpl) finalize(ctx context.Context, attempt *checkout.Attempt) (*model.Order, error) {
	if attempt.State != checkout.SessionSuccess {
		return nil, checkout.ErrNotConfirmed
	}
	conf := attempt.Confirmation
	if conf == nil {
		return nil, checkout.ErrNotConfirmed
	}

	if conf.TxnID != "" {
		exists, err := s.txnRepo.Exists(ctx, conf.TxnID)
		if err != nil {
			s.metrics.FinalizeFailed()
			return nil, fmt.Errorf("%w: check processed txn: %v", ErrFinalize, err)
		}
		if exists {
			return nil, checkout.ErrAlreadyProcessed
		}
	}

	draft := attempt.Draft
	order := &model.Order{
		ID:            uuid.NewString(),
		Status:        model.OrderStatusPending,
		PaymentMethod: methodFor(attempt.Gateway),
		CustomerName:  draft.Shipping.FullName,
		CustomerPhone: draft.Shipping.Phone,
		Address:       draft.Shipping.Address,
		City:          draft.Shipping.City,
		Notes:         draft.Shipping.Notes,
		SubtotalMinor: draft.Summary.SubtotalMinor,
		ShippingMinor: draft.Summary.ShippingMinor,
		TotalMinor:    draft.Summary.TotalMinor,
		Currency:      checkout.Currency,
		PaymentRef:    conf.TxnID,
		PayerEmail:    conf.PayerEmail,
		SettledMinor:  conf.SettledMinor,
		SettledCcy:    conf.SettledCcy,
	}

	items := make([]*model.OrderItem, len(draft.CartItems))
	for i, item := range draft.CartItems {
		items[i] = &model.OrderItem{
			OrderID:      order.ID,
			ProductID:    item.ID,
			Name:         item.Name,
			UnitMinor:    item.Price.Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
			Quantity:     item.Quantity,
			ThumbnailURL: item.ThumbnailURL,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order: %w", err)
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}
		if err := s.orderRepo.AppendStatusChange(ctx, tx, &model.OrderStatusChange{
			OrderID:   order.ID,
			Status:    model.OrderStatusPending,
			Actor:     "storefront",
			ChangedAt: order.CreatedAt,
		}); err != nil {
			return fmt.Errorf("store status history: %w", err)
		}
		if conf.TxnID != "" {
			if err := s.txnRepo.MarkProcessed(ctx, tx, conf.TxnID, order.ID, string(attempt.Gateway)); err != nil {
				return fmt.Errorf("mark txn processed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.metrics.FinalizeFailed()
		log.WithError(err).WithField("attempt_id", attempt.ID).Error("finalization failed, confirmation retained")
		return nil, fmt.Errorf("%w: %v", ErrFinalize, err)
	}

	s.registry.Complete(attempt.ID)
	s.metrics.OrderFinalized(string(order.PaymentMethod))

	log.WithFields(log.Fields{
		"order_id":    order.ID,
		"method":      order.PaymentMethod,
		"total_minor": order.TotalMinor,
	}).Info("order finalized")

	return order, nil
}

func methodFor(g checkout.Gateway) model.PaymentMethod {
	switch g {
	case checkout.GatewayCard:
		return model.PaymentMethodCard
	case checkout.GatewayPaypal:
		return model.PaymentMethodPaypal
	default:
		return model.PaymentMethodCOD
	}
}

// convertToSettlement renders an EGP minor-unit total as a 2-decimal string
// in the settlement currency.
func (s *checkoutServiceImpl) convertToSettlement(totalMinor int64) string {
	pounds := decimal.NewFromInt(totalMinor).Div(decimal.NewFromInt(100))
	return pounds.Mul(s.egpToUSD).Round(2).StringFixed(2)
}
