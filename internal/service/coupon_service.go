package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"qgsape/internal/domain"
	"qgsape/internal/pricing"
	"qgsape/internal/repository"
)

var (
	ErrCouponNotFound = errors.New("code promo invalide")
	ErrCouponExpired  = pricing.ErrCouponExpired
)

type CouponService struct {
	*CRUD[domain.Coupon, *domain.Coupon]
	repo repository.CouponRepository
	now  func() time.Time
}

func NewCouponService(repo repository.CouponRepository) *CouponService {
	return &CouponService{CRUD: NewCRUD[domain.Coupon](repo), repo: repo, now: time.Now}
}

// CouponResult is what the cart page shows after applying a code.
type CouponResult struct {
	Code     string  `json:"code"`
	Percent  float64 `json:"percent"`
	Discount int64   `json:"discount"`
	Message  string  `json:"message"`
}

// Apply looks the code up exactly as typed and prices it against subtotal.
func (s *CouponService) Apply(ctx context.Context, code string, subtotal int64) (*CouponResult, error) {
	code = strings.TrimSpace(code)
	if code == "" || subtotal < 0 {
		return nil, ErrInvalidInput
	}
	c, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	discount, err := pricing.CouponDiscount(c, subtotal, s.now())
	if err != nil {
		return nil, err
	}
	return &CouponResult{Code: c.Code, Percent: c.Discount, Discount: discount, Message: "Code promo appliqué"}, nil
}

// Create refuses a code that already exists.
func (s *CouponService) Create(ctx context.Context, c domain.Coupon) (*domain.Coupon, error) {
	c.Code = strings.TrimSpace(c.Code)
	if _, err := s.repo.FindByCode(ctx, c.Code); err == nil {
		return nil, repository.ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.CRUD.Create(ctx, c)
}

func (s *CouponService) Update(ctx context.Context, id string, c domain.Coupon) (*domain.Coupon, error) {
	c.Code = strings.TrimSpace(c.Code)
	if other, err := s.repo.FindByCode(ctx, c.Code); err == nil && other.ID != id {
		return nil, repository.ErrConflict
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return s.CRUD.Update(ctx, id, c)
}
