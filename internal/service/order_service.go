package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

// OrderService handles orders after checkout: listing and status changes.
type OrderService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	tx       repository.TxManager
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewOrderService(products repository.ProductRepository, orders repository.OrderRepository, tx repository.TxManager, log logrus.FieldLogger) *OrderService {
	return &OrderService{products: products, orders: orders, tx: tx, log: log.WithField("module", "orders"), now: time.Now}
}

var (
	ErrNotEnoughStock = errors.New("not enough stock")
	ErrInvalidState   = errors.New("invalid state")
)

func newestFirst(list []domain.Order) []domain.Order {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date.After(list[j].Date) })
	return list
}

func (s *OrderService) List(ctx context.Context) ([]domain.Order, error) {
	list, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return newestFirst(list), nil
}

func (s *OrderService) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	if email == "" {
		return nil, ErrInvalidInput
	}
	list, err := s.orders.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return newestFirst(list), nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.Get(ctx, id)
}

// UpdateStatus moves an order along Pending -> Shipped -> Delivered, or to
// Cancelled from Pending or Shipped. Cancelling puts the items back in stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	if id == "" || !next.Valid() {
		return nil, ErrInvalidInput
	}
	var updated *domain.Order
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, id)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(next) {
			return ErrInvalidState
		}
		if next == domain.OrderStatusCancelled {
			if err := restock(ctx, s.products, o.Items); err != nil {
				return err
			}
		}
		o.Status = next
		o.UpdatedAt = s.now().UTC()
		if err := s.orders.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"order_id": id, "status": next}).Info("Order status changed")
	return updated, nil
}

type variantKey struct {
	productID string
	size      string
}

// quantities sums item quantities per product size, in first-seen product order.
func quantities(items []domain.OrderItem) (map[variantKey]int64, []string) {
	qty := make(map[variantKey]int64)
	var ids []string
	seen := make(map[string]bool)
	for _, it := range items {
		qty[variantKey{it.ProductID, it.Variant.Size}] += it.Quantity
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	return qty, ids
}

// restock returns items to their variants. It must run inside a transaction.
// Products or sizes deleted since the order was placed are skipped.
func restock(ctx context.Context, repo repository.ProductRepository, items []domain.OrderItem) error {
	qty, ids := quantities(items)
	products := make([]*domain.Product, 0, len(ids))
	for _, id := range ids {
		p, err := repo.Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		products = append(products, p)
	}
	for _, p := range products {
		for i := range p.Variants {
			p.Variants[i].Stock += qty[variantKey{p.ID, p.Variants[i].Size}]
		}
		if err := repo.Update(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
