package dto

import "github.com/shopspring/decimal"

type Item struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int32           `json:"quantity"`
	ThumbnailURL string          `json:"thumbnail_url"`
}

type Shipping struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Notes    string `json:"notes"`
}

// SessionRequest opens a gateway session for one checkout attempt. Amount is
// an untrusted hint; the server recomputes the charge from the items.
type SessionRequest struct {
	CheckoutKey string          `json:"checkout_key"`
	Amount      decimal.Decimal `json:"amount"`
	Items       []Item          `json:"cart_items"`
	Shipping    Shipping        `json:"shipping"`
}

type SessionResponse struct {
	AttemptID string `json:"attempt_id"`
	URL       string `json:"url,omitempty"`
	OrderRef  string `json:"order_ref"`
}

type CODRequest struct {
	CheckoutKey string   `json:"checkout_key"`
	Items       []Item   `json:"cart_items"`
	Shipping    Shipping `json:"shipping"`
}

type OrderResponse struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	PaymentMethod string `json:"payment_method"`
	SubtotalMinor int64  `json:"subtotal_minor"`
	ShippingMinor int64  `json:"shipping_minor"`
	TotalMinor    int64  `json:"total_minor"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type CommentRequest struct {
	Text string `json:"text"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
