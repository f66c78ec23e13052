package repository

import (
	"context"
	"time"

	"agrivet-checkout/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	AppendStatusChange(ctx context.Context, tx *gorm.DB, change *model.OrderStatusChange) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, allowedFrom []model.OrderStatus, to model.OrderStatus) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	GetOrderItems(ctx context.Context, orderID string) ([]*model.OrderItem, error)
	GetStatusHistory(ctx context.Context, orderID string) ([]*model.OrderStatusChange, error)
	GetComments(ctx context.Context, orderID string) ([]*model.OrderComment, error)
	List(ctx context.Context, status model.OrderStatus, limit, offset int) ([]*model.Order, error)
	AddComment(ctx context.Context, comment *model.OrderComment) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) AppendStatusChange(ctx context.Context, tx *gorm.DB, change *model.OrderStatusChange) error {
	return tx.WithContext(ctx).Create(change).Error
}

// UpdateStatus moves an order along its one-directional lifecycle. The
// allowedFrom guard makes the transition a no-op race-safely: zero rows
// affected means the order was not in an eligible state.
func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, allowedFrom []model.OrderStatus, to model.OrderStatus) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, allowedFrom).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, orderID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) GetStatusHistory(ctx context.Context, orderID string) ([]*model.OrderStatusChange, error) {
	var changes []*model.OrderStatusChange
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at asc").
		Find(&changes).Error

	if err != nil {
		return nil, err
	}

	return changes, nil
}

func (r *orderRepoImpl) GetComments(ctx context.Context, orderID string) ([]*model.OrderComment, error) {
	var comments []*model.OrderComment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&comments).Error

	if err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *orderRepoImpl) List(ctx context.Context, status model.OrderStatus, limit, offset int) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []*model.Order
	err := q.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) AddComment(ctx context.Context, comment *model.OrderComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}
