package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"qgsape/internal/domain"
	"qgsape/internal/notify"
	"qgsape/internal/pricing"
	"qgsape/internal/repository"
)

var ErrEmptyCart = errors.New("cart is empty")

// Dispatcher runs best-effort work after the response was decided.
type Dispatcher interface {
	Go(name string, fields logrus.Fields, fn func(ctx context.Context) error)
}

// Notifications are the checkout side effects. Nil members are skipped.
type Notifications struct {
	Contacts   notify.ContactSaver
	Customer   notify.Mailer
	Admin      notify.Mailer
	AdminEmail string
	SiteName   string
	BaseURL    string
}

// CheckoutItem is an explicit line when no server cart is used.
type CheckoutItem struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Color     string `json:"color"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

type CheckoutInput struct {
	CartID           string         `json:"cartId"`
	Items            []CheckoutItem `json:"items" validate:"dive"`
	CustomerName     string         `json:"customerName" validate:"required"`
	CustomerEmail    string         `json:"customerEmail" validate:"required,email"`
	CustomerPhone    string         `json:"customerPhone" validate:"required,min=6,max=20"`
	ShippingAddress  domain.Address `json:"shippingAddress"`
	ShippingMethodID string         `json:"shippingMethodId" validate:"required"`
	PaymentMethodID  string         `json:"paymentMethodId" validate:"required"`
	CouponCode       string         `json:"couponCode"`
}

// CheckoutService turns a cart into an order.
type CheckoutService struct {
	repos      *repository.Repositories
	carts      *CartService
	dispatcher Dispatcher
	notify     Notifications
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewCheckoutService(repos *repository.Repositories, carts *CartService, dispatcher Dispatcher, n Notifications, log logrus.FieldLogger) *CheckoutService {
	return &CheckoutService{
		repos:      repos,
		carts:      carts,
		dispatcher: dispatcher,
		notify:     n,
		log:        log.WithField("module", "checkout"),
		now:        time.Now,
	}
}

// NewDisplayID returns the customer-facing order number, e.g. QG-1A2B3C4D.
func NewDisplayID() string {
	return "QG-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *CheckoutService) items(ctx context.Context, in CheckoutInput) ([]CheckoutItem, error) {
	if in.CartID == "" {
		return in.Items, nil
	}
	lines, err := s.carts.lines(ctx, in.CartID)
	if err != nil {
		return nil, err
	}
	items := make([]CheckoutItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, CheckoutItem{ProductID: l.ProductID, Size: l.Size, Color: l.Color, Quantity: l.Quantity})
	}
	return items, nil
}

type checkoutRefs struct {
	shipping *domain.ShippingMethod
	payment  *domain.PaymentMethod
	coupon   *domain.Coupon
}

// loadRefs fetches the selected methods and the coupon concurrently.
func (s *CheckoutService) loadRefs(ctx context.Context, in CheckoutInput) (checkoutRefs, error) {
	var refs checkoutRefs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.repos.ShippingMethods.Get(gctx, in.ShippingMethodID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !m.Enabled) {
			return invalid("mode de livraison indisponible")
		}
		refs.shipping = m
		return err
	})
	g.Go(func() error {
		m, err := s.repos.PaymentMethods.Get(gctx, in.PaymentMethodID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !m.Enabled) {
			return invalid("moyen de paiement indisponible")
		}
		refs.payment = m
		return err
	})
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		g.Go(func() error {
			c, err := s.repos.Coupons.FindByCode(gctx, code)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCouponNotFound
			}
			refs.coupon = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return checkoutRefs{}, err
	}
	return refs, nil
}

// Checkout validates the request, writes the order while taking the items out
// of stock, then schedules the customer and admin notifications. Notification
// failures never fail the checkout.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (*domain.Order, error) {
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	items, err := s.items(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	for i := range items {
		if err := validateStruct(&items[i]); err != nil {
			return nil, err
		}
	}
	refs, err := s.loadRefs(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var created *domain.Order
	err = s.repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		orderItems, err := s.reserve(ctx, items)
		if err != nil {
			return err
		}
		discount, err := pricing.CouponDiscount(refs.coupon, pricing.Subtotal(orderItems), now)
		if err != nil {
			return err
		}
		sum := pricing.Compute(orderItems, discount, refs.shipping.Price)
		o := domain.Order{
			DisplayID:       NewDisplayID(),
			CustomerName:    strings.TrimSpace(in.CustomerName),
			CustomerEmail:   strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
			CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
			ShippingAddress: in.ShippingAddress,
			Date:            now,
			Items:           orderItems,
			Subtotal:        sum.Subtotal,
			Discount:        sum.Discount,
			ShippingMethod:  domain.MethodRef{ID: refs.shipping.ID, Name: refs.shipping.Name},
			ShippingCost:    sum.ShippingCost,
			PaymentMethod:   domain.MethodRef{ID: refs.payment.ID, Name: refs.payment.Name},
			Total:           sum.Total,
			Status:          domain.OrderStatusPending,
			UpdatedAt:       now,
		}
		if refs.coupon != nil {
			o.CouponCode = refs.coupon.Code
		}
		if err := s.repos.Orders.Create(ctx, &o); err != nil {
			return err
		}
		created = &o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := s.log.WithFields(logrus.Fields{"order_id": created.ID, "display_id": created.DisplayID})
	log.WithField("total", created.Total).Info("Order placed")
	if in.CartID != "" {
		if err := s.carts.settle(ctx, in.CartID, items); err != nil {
			log.WithError(err).Warn("Failed to settle cart after checkout")
		}
	}
	s.dispatchSideEffects(*created)
	return created, nil
}

// reserve reads every product, prices the items from the catalog and takes
// them out of stock. All reads happen before the writes.
func (s *CheckoutService) reserve(ctx context.Context, items []CheckoutItem) ([]domain.OrderItem, error) {
	products := make(map[string]*domain.Product)
	var ids []string
	for _, it := range items {
		if _, ok := products[it.ProductID]; ok {
			continue
		}
		p, err := s.repos.Products.Get(ctx, it.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("product %s no longer exists", it.ProductID)
		}
		if err != nil {
			return nil, err
		}
		products[it.ProductID] = p
		ids = append(ids, it.ProductID)
	}

	out := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		p := products[it.ProductID]
		v, ok := p.Variant(it.Size)
		if !ok {
			return nil, invalid("%s has no size %q", p.Name, it.Size)
		}
		if v.Stock < it.Quantity {
			return nil, fmt.Errorf("%w: %s (%s)", ErrNotEnoughStock, p.Name, it.Size)
		}
		v.Stock -= it.Quantity
		out = append(out, domain.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			Price:     p.Price,
			Variant:   domain.Variant{Size: it.Size},
			Color:     it.Color,
			ImageURL:  p.MainImage(),
		})
	}
	for _, id := range ids {
		if err := s.repos.Products.Update(ctx, products[id]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// dispatchSideEffects fires the three notifications independently.
func (s *CheckoutService) dispatchSideEffects(o domain.Order) {
	fields := logrus.Fields{"order_id": o.ID, "display_id": o.DisplayID}
	n := s.notify
	if n.Contacts != nil {
		s.dispatcher.Go("crm_contact", fields, func(ctx context.Context) error {
			return n.Contacts.SaveContact(ctx, notify.Contact{
				Email:     o.CustomerEmail,
				FirstName: o.CustomerName,
				Phone:     o.CustomerPhone,
			})
		})
	}
	if n.Customer != nil {
		s.dispatcher.Go("customer_confirmation", fields, func(ctx context.Context) error {
			msg, err := notify.OrderConfirmation(o, n.SiteName)
			if err != nil {
				return err
			}
			return n.Customer.Send(ctx, msg)
		})
	}
	if n.Admin != nil && n.AdminEmail != "" {
		s.dispatcher.Go("admin_notification", fields, func(ctx context.Context) error {
			msg, err := notify.AdminOrderNotification(o, n.AdminEmail, n.BaseURL)
			if err != nil {
				return err
			}
			return n.Admin.Send(ctx, msg)
		})
	}
}
