package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qgsape/internal/domain"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func items() []domain.OrderItem {
	return []domain.OrderItem{{ProductID: "p1", Price: 5000, Quantity: 2}}
}

func TestCompute_NoCoupon(t *testing.T) {
	s := Compute(items(), 0, 1000)
	assert.Equal(t, Summary{Subtotal: 10000, Discount: 0, ShippingCost: 1000, Total: 11000}, s)
}

func TestCompute_WithValidCoupon(t *testing.T) {
	c := &domain.Coupon{Code: "SAPE10", Discount: 10, ExpiresAt: now.Add(24 * time.Hour)}
	d, err := CouponDiscount(c, Subtotal(items()), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), d)

	s := Compute(items(), d, 1000)
	assert.Equal(t, int64(10000), s.Total)
}

func TestCouponDiscount_Expired(t *testing.T) {
	c := &domain.Coupon{Code: "OLD", Discount: 50, ExpiresAt: now.Add(-time.Minute)}
	d, err := CouponDiscount(c, 10000, now)
	assert.ErrorIs(t, err, ErrCouponExpired)
	assert.Zero(t, d)
}

func TestCouponDiscount_RoundsAndClamps(t *testing.T) {
	future := now.Add(time.Hour)
	d, err := CouponDiscount(&domain.Coupon{Discount: 15, ExpiresAt: future}, 3333, now)
	require.NoError(t, err)
	assert.Equal(t, int64(500), d) // 499.95

	d, _ = CouponDiscount(&domain.Coupon{Discount: 150, ExpiresAt: future}, 2000, now)
	assert.Equal(t, int64(2000), d)

	d, _ = CouponDiscount(nil, 2000, now)
	assert.Zero(t, d)
}

func TestCompute_DiscountNeverExceedsSubtotal(t *testing.T) {
	s := Compute(items(), 50000, 1500)
	assert.Equal(t, int64(10000), s.Discount)
	assert.Equal(t, int64(1500), s.Total)
}
