// Package pricing computes order amounts. All amounts are FCFA units.
package pricing

import (
	"errors"
	"math"
	"time"

	"qgsape/internal/domain"
)

var (
	// ErrCouponExpired is returned for a coupon whose expiry is in the past.
	ErrCouponExpired = errors.New("ce code promo a expiré")
)

// Summary is what the checkout page shows.
type Summary struct {
	Subtotal     int64 `json:"subtotal"`
	Discount     int64 `json:"discount"`
	ShippingCost int64 `json:"shippingCost"`
	Total        int64 `json:"total"`
}

// Subtotal sums price times quantity.
func Subtotal(items []domain.OrderItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.LineTotal()
	}
	return sum
}

// CouponDiscount returns the amount a percentage coupon takes off subtotal.
// An expired coupon yields zero and ErrCouponExpired.
func CouponDiscount(c *domain.Coupon, subtotal int64, now time.Time) (int64, error) {
	if c == nil {
		return 0, nil
	}
	if c.Expired(now) {
		return 0, ErrCouponExpired
	}
	pct := math.Max(0, math.Min(c.Discount, 100))
	return int64(math.Round(float64(subtotal) * pct / 100)), nil
}

// Compute builds the summary: total = subtotal - discount + shipping, with the
// discount capped at the subtotal.
func Compute(items []domain.OrderItem, discount, shippingCost int64) Summary {
	subtotal := Subtotal(items)
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return Summary{
		Subtotal:     subtotal,
		Discount:     discount,
		ShippingCost: shippingCost,
		Total:        subtotal - discount + shippingCost,
	}
}
