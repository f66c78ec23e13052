package repository

import (
	"context"
	"time"

	"agrivet-checkout/internal/model"

	"gorm.io/gorm"
)

// GatewayTxnRepository records processed gateway transaction ids so a replayed
// callback never finalizes a second order for the same payment.
type GatewayTxnRepository interface {
	Exists(ctx context.Context, txnID string) (bool, error)
	MarkProcessed(ctx context.Context, tx *gorm.DB, txnID, orderID, provider string) error
}

type gatewayTxnRepoImpl struct {
	db *gorm.DB
}

func NewGatewayTxnRepository(db *gorm.DB) GatewayTxnRepository {
	return &gatewayTxnRepoImpl{db: db}
}

func (r *gatewayTxnRepoImpl) Exists(ctx context.Context, txnID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.GatewayTxn{}).
		Where("txn_id = ?", txnID).
		Count(&count).Error

	return count > 0, err
}

func (r *gatewayTxnRepoImpl) MarkProcessed(ctx context.Context, tx *gorm.DB, txnID, orderID, provider string) error {
	return tx.WithContext(ctx).Create(&model.GatewayTxn{
		TxnID:       txnID,
		OrderID:     orderID,
		Provider:    provider,
		ProcessedAt: time.Now(),
	}).Error
}
