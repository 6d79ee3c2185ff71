package domain

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo lists the allowed admin status changes.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered || next == OrderStatusCancelled
	}
	return false
}

// Address is a delivery address. Coordinates come from the map picker, when used.
type Address struct {
	Street    string   `json:"street" firestore:"street" validate:"required"`
	City      string   `json:"city" firestore:"city" validate:"required"`
	Country   string   `json:"country" firestore:"country"`
	Latitude  *float64 `json:"latitude,omitempty" firestore:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" firestore:"longitude,omitempty"`
}

// MethodRef snapshots a shipping or payment method on an order.
type MethodRef struct {
	ID   string `json:"id" firestore:"id"`
	Name string `json:"name" firestore:"name"`
}

// OrderItem is one purchased line.
type OrderItem struct {
	ProductID string  `json:"productId" firestore:"productId"`
	Name      string  `json:"name" firestore:"name"`
	Quantity  int64   `json:"quantity" firestore:"quantity"`
	Price     int64   `json:"price" firestore:"price"`
	Variant   Variant `json:"variant" firestore:"variant"`
	Color     string  `json:"color,omitempty" firestore:"color,omitempty"`
	ImageURL  string  `json:"imageUrl" firestore:"imageUrl"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() int64 { return i.Price * i.Quantity }

// Order is created once at checkout; only its status changes afterwards.
type Order struct {
	ID              string      `json:"id" firestore:"-"`
	DisplayID       string      `json:"displayId" firestore:"displayId"`
	CustomerName    string      `json:"customerName" firestore:"customerName"`
	CustomerEmail   string      `json:"customerEmail" firestore:"customerEmail"`
	CustomerPhone   string      `json:"customerPhone" firestore:"customerPhone"`
	ShippingAddress Address     `json:"shippingAddress" firestore:"shippingAddress"`
	Date            time.Time   `json:"date" firestore:"date"`
	Items           []OrderItem `json:"items" firestore:"items"`
	Subtotal        int64       `json:"subtotal" firestore:"subtotal"`
	Discount        int64       `json:"discount" firestore:"discount"`
	CouponCode      string      `json:"couponCode,omitempty" firestore:"couponCode,omitempty"`
	ShippingMethod  MethodRef   `json:"shippingMethod" firestore:"shippingMethod"`
	ShippingCost    int64       `json:"shippingCost" firestore:"shippingCost"`
	PaymentMethod   MethodRef   `json:"paymentMethod" firestore:"paymentMethod"`
	Total           int64       `json:"total" firestore:"total"`
	Status          OrderStatus `json:"status" firestore:"status"`
	UpdatedAt       time.Time   `json:"updatedAt" firestore:"updatedAt"`
}

func (o *Order) GetID() string   { return o.ID }
func (o *Order) SetID(id string) { o.ID = id }

// Coupon is a percentage discount valid until ExpiresAt.
type Coupon struct {
	ID        string    `json:"id" firestore:"-" yaml:"id"`
	Code      string    `json:"code" firestore:"code" yaml:"code" validate:"required"`
	Discount  float64   `json:"discount" firestore:"discount" yaml:"discount" validate:"gt=0,lte=100"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt" yaml:"expiresAt" validate:"required"`
}

func (c *Coupon) GetID() string   { return c.ID }
func (c *Coupon) SetID(id string) { c.ID = id }

// Expired compares against the caller's clock.
func (c *Coupon) Expired(now time.Time) bool { return c.ExpiresAt.Before(now) }

// ShippingMethod carries a flat delivery price.
type ShippingMethod struct {
	ID          string `json:"id" firestore:"-" yaml:"id"`
	Name        string `json:"name" firestore:"name" yaml:"name" validate:"required"`
	Description string `json:"description" firestore:"description" yaml:"description"`
	Price       int64  `json:"price" firestore:"price" yaml:"price" validate:"gte=0"`
	Enabled     bool   `json:"enabled" firestore:"enabled" yaml:"enabled"`
}

func (m *ShippingMethod) GetID() string   { return m.ID }
func (m *ShippingMethod) SetID(id string) { m.ID = id }
func (m *ShippingMethod) IsEnabled() bool { return m.Enabled }

type PaymentMethod struct {
	ID          string `json:"id" firestore:"-" yaml:"id"`
	Name        string `json:"name" firestore:"name" yaml:"name" validate:"required"`
	Description string `json:"description" firestore:"description" yaml:"description"`
	Enabled     bool   `json:"enabled" firestore:"enabled" yaml:"enabled"`
}

func (m *PaymentMethod) GetID() string   { return m.ID }
func (m *PaymentMethod) SetID(id string) { m.ID = id }
func (m *PaymentMethod) IsEnabled() bool { return m.Enabled }
