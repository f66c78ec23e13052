package checkout

import (
	"fmt"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Currency is the storefront's base currency. Totals are held in its minor
// units (piastres).
const Currency = "EGP"

type CartItem struct {
	ID           string          `json:"id" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	Price        decimal.Decimal `json:"price"` // EGP, non-negative (struct-level check)
	Quantity     int32           `json:"quantity" validate:"required,min=1"`
	ThumbnailURL string          `json:"thumbnail_url"`
}

type Shipping struct {
	FullName string `json:"full_name" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required"` // normalized to digits before validation
	Address  string `json:"address" validate:"required,min=5"`
	City     string `json:"city" validate:"required"`
	Notes    string `json:"notes"`
}

// Summary is derived from the items and the configured delivery fee, never
// taken from client input.
type Summary struct {
	SubtotalMinor int64 `json:"subtotal_minor"`
	ShippingMinor int64 `json:"shipping_minor"`
	TotalMinor    int64 `json:"total_minor"`
}

// Draft is the client-held order before finalization. An invalid draft blocks
// entry into any gateway flow.
type Draft struct {
	CartItems []CartItem `validate:"required,min=1,dive"`
	Shipping  Shipping
	Summary   Summary
}

// Egyptian mobile numbers: 11 digits starting 01 after stripping formatting
// and the +20 country prefix.
const phoneDigits = 11

// NormalizePhone strips everything but digits and rewrites a 20-prefixed
// international form back to the local 0-prefixed one.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == phoneDigits+1 && strings.HasPrefix(digits, "20") {
		digits = "0" + digits[2:]
	}
	return digits
}

func newValidator() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterStructValidation(draftStructValidation, Draft{})
	return v
}

// draftStructValidation covers what struct tags cannot: decimal prices,
// phone shape and the derived-totals invariant.
func draftStructValidation(sl validatorv10.StructLevel) {
	d := sl.Current().Interface().(Draft)

	for _, item := range d.CartItems {
		if item.Price.IsNegative() {
			sl.ReportError(item.Price, "price", "Price", "price_non_negative", item.ID)
		}
	}

	phone := d.Shipping.Phone
	if len(phone) != phoneDigits || !strings.HasPrefix(phone, "01") {
		sl.ReportError(phone, "phone", "Phone", "phone_egyptian_mobile", "")
	}

	if d.Summary.TotalMinor != d.Summary.SubtotalMinor+d.Summary.ShippingMinor {
		sl.ReportError(d.Summary.TotalMinor, "total_minor", "TotalMinor", "total_equals_subtotal_plus_shipping", "")
	}
}

var draftValidator = newValidator()

// NewDraft assembles and validates a draft from user-editable form state.
// The summary is recomputed here; client-sent totals are ignored.
func NewDraft(items []CartItem, shipping Shipping, shippingFeeMinor int64) (*Draft, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	shipping.Phone = NormalizePhone(shipping.Phone)

	var subtotal int64
	for _, item := range items {
		subtotal += itemMinor(item)
	}

	d := &Draft{
		CartItems: items,
		Shipping:  shipping,
		Summary: Summary{
			SubtotalMinor: subtotal,
			ShippingMinor: shippingFeeMinor,
			TotalMinor:    subtotal + shippingFeeMinor,
		},
	}

	if err := draftValidator.Struct(d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	return d, nil
}

// itemMinor converts one line to minor units: round(price*100) * quantity,
// clamping negative prices and zero quantities the same way reconciliation does.
func itemMinor(item CartItem) int64 {
	price := item.Price
	if price.IsNegative() {
		price = decimal.Zero
	}
	qty := int64(item.Quantity)
	if qty < 1 {
		qty = 1
	}
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart() * qty
}
