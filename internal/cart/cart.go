package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"qgsape/internal/domain"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrUnknownVariant  = errors.New("unknown product size")
)

// LineKey identifies a cart line. Adding the same key twice merges quantities.
type LineKey struct {
	ProductID string `json:"productId" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Color     string `json:"color"`
}

// Line is one cart entry with a snapshot of the product taken when it was added.
type Line struct {
	LineKey
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl"`
	Quantity int64  `json:"quantity"`
}

// Cart is the in-memory basket of one shopper.
type Cart struct {
	ID        string    `json:"id"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Add merges by (productId, size, color) or appends a new line.
func (c *Cart) Add(p domain.Product, size, color string, qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if _, ok := p.Variant(size); !ok {
		return ErrUnknownVariant
	}
	key := LineKey{ProductID: p.ID, Size: size, Color: color}
	for i := range c.Lines {
		if c.Lines[i].LineKey == key {
			c.Lines[i].Quantity += qty
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{
		LineKey:  key,
		Name:     p.Name,
		Price:    p.Price,
		ImageURL: p.MainImage(),
		Quantity: qty,
	})
	return nil
}

// UpdateQuantity sets the quantity of a line; qty <= 0 removes it.
func (c *Cart) UpdateQuantity(key LineKey, qty int64) error {
	if qty <= 0 {
		return c.Remove(key)
	}
	for i := range c.Lines {
		if c.Lines[i].LineKey == key {
			c.Lines[i].Quantity = qty
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) Remove(key LineKey) error {
	for i := range c.Lines {
		if c.Lines[i].LineKey == key {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) Clear() { c.Lines = nil }

func (c *Cart) Empty() bool { return len(c.Lines) == 0 }

// Items converts lines into order items.
func (c *Cart) Items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, domain.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Variant:   domain.Variant{Size: l.Size},
			Color:     l.Color,
			ImageURL:  l.ImageURL,
		})
	}
	return items
}

func (c *Cart) clone() *Cart {
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp
}

// Subtract takes ordered quantities out of the cart. Lines that reach zero are
// dropped; lines the order did not cover stay.
func (c *Cart) Subtract(ordered []Line) {
	for _, o := range ordered {
		for i := range c.Lines {
			if c.Lines[i].LineKey == o.LineKey {
				c.Lines[i].Quantity -= o.Quantity
				break
			}
		}
	}
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
}

const (
	DefaultCapacity = 10000
	DefaultTTL      = 72 * time.Hour
)

// Store keeps carts in process memory. Carts do not survive a restart. A cart
// expires ttl after its last change, and the least recently used carts are
// evicted beyond capacity.
type Store struct {
	mu    sync.Mutex
	carts *expirable.LRU[string, *Cart]
	now   func() time.Time
}

func NewStore() *Store {
	return NewExpiringStore(DefaultCapacity, DefaultTTL)
}

// NewExpiringStore bounds the store. Non-positive values use the defaults.
func NewExpiringStore(capacity int, ttl time.Duration) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{carts: expirable.NewLRU[string, *Cart](capacity, nil, ttl), now: time.Now}
}

// New opens an empty cart.
func (s *Store) New(_ context.Context) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &Cart{ID: uuid.NewString(), UpdatedAt: s.now().UTC()}
	s.carts.Add(c.ID, c)
	return c.clone()
}

// Get returns a copy of the cart.
func (s *Store) Get(_ context.Context, id string) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts.Get(id)
	if !ok {
		return nil, ErrCartNotFound
	}
	return c.clone(), nil
}

// Modify applies fn to the stored cart under the store lock.
func (s *Store) Modify(_ context.Context, id string, fn func(c *Cart) error) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts.Get(id)
	if !ok {
		return nil, ErrCartNotFound
	}
	work := c.clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = s.now().UTC()
	s.carts.Add(id, work)
	return work.clone(), nil
}

// Settle removes the ordered lines and deletes the cart once nothing is left.
func (s *Store) Settle(_ context.Context, id string, ordered []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts.Get(id)
	if !ok {
		return ErrCartNotFound
	}
	work := c.clone()
	work.Subtract(ordered)
	if work.Empty() {
		s.carts.Remove(id)
		return nil
	}
	work.UpdatedAt = s.now().UTC()
	s.carts.Add(id, work)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts.Remove(id)
}
