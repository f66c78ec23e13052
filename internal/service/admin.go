package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agrivet-checkout/internal/model"
	"agrivet-checkout/internal/repository"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AdminService owns every mutation of a persisted order. The storefront
// checkout flow never touches an order after finalization.
type AdminService interface {
	GetOrder(ctx context.Context, orderID string) (*OrderDetails, error)
	ListOrders(ctx context.Context, status model.OrderStatus, limit, offset int) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to model.OrderStatus, note, actor string) error
	AddComment(ctx context.Context, orderID, text, author string) error
}

type OrderDetails struct {
	Order         *model.Order
	Items         []*model.OrderItem
	StatusHistory []*model.OrderStatusChange
	Comments      []*model.OrderComment
}

// statusFlow encodes the one-directional lifecycle. Cancellation is the only
// admin override and is reachable from any non-terminal state.
var statusFlow = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusProcessing: {model.OrderStatusPending},
	model.OrderStatusShipped:    {model.OrderStatusProcessing},
	model.OrderStatusDelivered:  {model.OrderStatusShipped},
	model.OrderStatusCancelled:  {model.OrderStatusPending, model.OrderStatusProcessing, model.OrderStatusShipped},
}

type adminServiceImpl struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
}

func NewAdminService(db *gorm.DB, orderRepo repository.OrderRepository) AdminService {
	return &adminServiceImpl{
		db:        db,
		orderRepo: orderRepo,
	}
}

func (s *adminServiceImpl) GetOrder(ctx context.Context, orderID string) (*OrderDetails, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}

	items, err := s.orderRepo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}

	history, err := s.orderRepo.GetStatusHistory(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get status history: %w", err)
	}

	comments, err := s.orderRepo.GetComments(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	return &OrderDetails{
		Order:         order,
		Items:         items,
		StatusHistory: history,
		Comments:      comments,
	}, nil
}

func (s *adminServiceImpl) ListOrders(ctx context.Context, status model.OrderStatus, limit, offset int) ([]*model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.orderRepo.List(ctx, status, limit, offset)
}

// UpdateStatus applies one lifecycle step and appends the history row in the
// same transaction. The repository's state guard makes concurrent admin
// actions lose cleanly instead of double-transitioning.
func (s *adminServiceImpl) UpdateStatus(ctx context.Context, orderID string, to model.OrderStatus, note, actor string) error {
	allowedFrom, ok := statusFlow[to]
	if !ok {
		return fmt.Errorf("%w: %q is not a reachable status", ErrIllegalStatusChange, to)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, allowedFrom, to); err != nil {
			return err
		}
		return s.orderRepo.AppendStatusChange(ctx, tx, &model.OrderStatusChange{
			OrderID:   orderID,
			Status:    to,
			Note:      note,
			Actor:     actor,
			ChangedAt: time.Now(),
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %s not eligible for %s", ErrIllegalStatusChange, orderID, to)
		}
		return fmt.Errorf("update order status: %w", err)
	}

	log.WithFields(log.Fields{
		"order_id": orderID,
		"status":   to,
		"actor":    actor,
	}).Info("order status updated")

	return nil
}

func (s *adminServiceImpl) AddComment(ctx context.Context, orderID, text, author string) error {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return fmt.Errorf("find order: %w", err)
	}

	return s.orderRepo.AddComment(ctx, &model.OrderComment{
		OrderID: orderID,
		Author:  author,
		Text:    text,
	})
}
