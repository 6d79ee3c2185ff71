package service

import (
	"context"

	"qgsape/internal/cart"
	"qgsape/internal/domain"
	"qgsape/internal/pricing"
	"qgsape/internal/repository"
)

// CartService prices carts against the catalog.
type CartService struct {
	store    *cart.Store
	products repository.ProductRepository
}

func NewCartService(store *cart.Store, products repository.ProductRepository) *CartService {
	return &CartService{store: store, products: products}
}

// CartView is a cart with its subtotal.
type CartView struct {
	cart.Cart
	Subtotal int64 `json:"subtotal"`
}

func view(c *cart.Cart) *CartView {
	return &CartView{Cart: *c, Subtotal: pricing.Subtotal(c.Items())}
}

type AddItemInput struct {
	cart.LineKey
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

func (s *CartService) Create(ctx context.Context) *CartView {
	return view(s.store.New(ctx))
}

func (s *CartService) Get(ctx context.Context, id string) (*CartView, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

// AddItem snapshots the product into the cart. The requested quantity, merged
// with what the cart already holds for that size, must be in stock.
func (s *CartService) AddItem(ctx context.Context, cartID string, in AddItemInput) (*CartView, error) {
	p, err := s.products.Get(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	c, err := s.store.Modify(ctx, cartID, func(c *cart.Cart) error {
		if err := c.Add(*p, in.Size, in.Color, in.Quantity); err != nil {
			return err
		}
		return checkCartStock(c, *p, in.Size)
	})
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

func checkCartStock(c *cart.Cart, p domain.Product, size string) error {
	v, _ := p.Variant(size)
	var qty int64
	for _, l := range c.Lines {
		if l.ProductID == p.ID && l.Size == size {
			qty += l.Quantity
		}
	}
	if v == nil || qty > v.Stock {
		return ErrNotEnoughStock
	}
	return nil
}

// UpdateItem sets a line quantity; zero or less removes the line.
func (s *CartService) UpdateItem(ctx context.Context, cartID string, key cart.LineKey, qty int64) (*CartView, error) {
	var p *domain.Product
	if qty > 0 {
		var err error
		if p, err = s.products.Get(ctx, key.ProductID); err != nil {
			return nil, err
		}
	}
	c, err := s.store.Modify(ctx, cartID, func(c *cart.Cart) error {
		if err := c.UpdateQuantity(key, qty); err != nil {
			return err
		}
		if p == nil {
			return nil
		}
		return checkCartStock(c, *p, key.Size)
	})
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

func (s *CartService) RemoveItem(ctx context.Context, cartID string, key cart.LineKey) (*CartView, error) {
	c, err := s.store.Modify(ctx, cartID, func(c *cart.Cart) error { return c.Remove(key) })
	if err != nil {
		return nil, err
	}
	return view(c), nil
}

// lines returns the current lines of a cart.
func (s *CartService) lines(ctx context.Context, cartID string) ([]cart.Line, error) {
	c, err := s.store.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return c.Lines, nil
}

// settle takes what was ordered out of the cart. The cart is dropped once it
// is empty.
func (s *CartService) settle(ctx context.Context, cartID string, ordered []CheckoutItem) error {
	lines := make([]cart.Line, 0, len(ordered))
	for _, it := range ordered {
		lines = append(lines, cart.Line{
			LineKey:  cart.LineKey{ProductID: it.ProductID, Size: it.Size, Color: it.Color},
			Quantity: it.Quantity,
		})
	}
	return s.store.Settle(ctx, cartID, lines)
}
