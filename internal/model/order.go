package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodPaypal PaymentMethod = "paypal"
)

type Order struct {
	ID            string        `gorm:"primaryKey;size:64;not null"`
	Status        OrderStatus   `gorm:"size:32;index;not null"` // pending, processing, shipped, delivered, cancelled
	PaymentMethod PaymentMethod `gorm:"size:16;not null"`

	// Shipping snapshot, denormalized onto the order.
	CustomerName  string `gorm:"size:128;not null"`
	CustomerPhone string `gorm:"size:16;not null"`
	Address       string `gorm:"size:512;not null"`
	City          string `gorm:"size:64;not null"`
	Notes         string `gorm:"size:512"`

	// Totals in piastres (EGP minor units).
	SubtotalMinor int64  `gorm:"not null"`
	ShippingMinor int64  `gorm:"not null"`
	TotalMinor    int64  `gorm:"not null"`
	Currency      string `gorm:"size:8;not null"`

	// Gateway metadata: capture id, transaction id, payer email. Never card data.
	PaymentRef   string `gorm:"size:128;index"`
	PayerEmail   string `gorm:"size:128"`
	SettledMinor int64  // amount actually charged by the gateway, in its currency's minor units
	SettledCcy   string `gorm:"size:8"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK -> orders.id
	OrderID      string `gorm:"size:64;index;not null"`
	ProductID    string `gorm:"size:64;not null"`
	Name         string `gorm:"size:128;not null"`
	UnitMinor    int64  `gorm:"not null"`
	Quantity     int32  `gorm:"not null"`
	ThumbnailURL string `gorm:"size:512"`

	CreatedAt time.Time
}

// OrderStatusChange is an append-only history row; the current status on the
// order always matches the newest row.
type OrderStatusChange struct {
	ID        uint        `gorm:"primaryKey"`
	OrderID   string      `gorm:"size:64;index;not null"`
	Status    OrderStatus `gorm:"size:32;not null"`
	Note      string      `gorm:"size:512"`
	Actor     string      `gorm:"size:64"`
	ChangedAt time.Time   `gorm:"not null"`
}

type OrderComment struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   string `gorm:"size:64;index;not null"`
	Author    string `gorm:"size:64;not null"`
	Text      string `gorm:"size:1024;not null"`
	CreatedAt time.Time
}

// GatewayTxn records every gateway transaction id that already finalized an
// order, so a replayed callback cannot create a second order.
type GatewayTxn struct {
	TxnID       string `gorm:"primaryKey;size:128;not null"`
	OrderID     string `gorm:"size:64;index;not null"`
	Provider    string `gorm:"size:16;not null"`
	ProcessedAt time.Time
}
