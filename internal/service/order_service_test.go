package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"qgsape/internal/cart"
	"qgsape/internal/domain"
	"qgsape/internal/notify"
	"qgsape/internal/repository"
)

// syncDispatcher runs side effects inline and records their names.
type syncDispatcher struct {
	mu   sync.Mutex
	ran  []string
	errs map[string]error
}

func (d *syncDispatcher) Go(name string, _ logrus.Fields, fn func(ctx context.Context) error) {
	err := fn(context.Background())
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ran = append(d.ran, name)
	if err != nil {
		if d.errs == nil {
			d.errs = map[string]error{}
		}
		d.errs[name] = err
	}
}

type fixture struct {
	repos    *repository.Repositories
	products *ProductService
	orders   *OrderService
	carts    *CartService
	checkout *CheckoutService
	disp     *syncDispatcher
	mail     *recordingMailer
	shipping *domain.ShippingMethod
	payment  *domain.PaymentMethod
}

type recordingMailer struct {
	mu       sync.Mutex
	sent     []notify.Message
	contacts []notify.Contact
	fail     error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) SaveContact(_ context.Context, c notify.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.contacts = append(m.contacts, c)
	return nil
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logrus.New()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	f := &fixture{
		repos:    repos,
		products: NewProductService(repos.Products, repos.Tx, log),
		orders:   NewOrderService(repos.Products, repos.Orders, repos.Tx, log),
		carts:    NewCartService(cart.NewStore(), repos.Products),
		disp:     &syncDispatcher{},
		mail:     &recordingMailer{},
	}
	f.checkout = NewCheckoutService(repos, f.carts, f.disp, Notifications{
		Contacts:   f.mail,
		Customer:   f.mail,
		Admin:      f.mail,
		AdminEmail: "boss@qg.test",
		SiteName:   "LE QG DE LA SAPE",
	}, log)

	f.shipping = &domain.ShippingMethod{Name: "Express Dakar", Price: 1000, Enabled: true}
	if err := repos.ShippingMethods.Create(ctx, f.shipping); err != nil {
		t.Fatal(err)
	}
	f.payment = &domain.PaymentMethod{Name: "Paiement à la livraison", Enabled: true}
	if err := repos.PaymentMethods.Create(ctx, f.payment); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) input(items ...CheckoutItem) CheckoutInput {
	return CheckoutInput{
		Items:            items,
		CustomerName:     "Awa Diop",
		CustomerEmail:    "awa@qg.test",
		CustomerPhone:    "+221770000000",
		ShippingAddress:  domain.Address{Street: "Rue 10", City: "Dakar", Country: "Sénégal"},
		ShippingMethodID: f.shipping.ID,
		PaymentMethodID:  f.payment.ID,
	}
}

func TestPlaceOrderAndCancel(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1, err := f.products.Create(ctx, costume(5, 1))
	if err != nil {
		t.Fatalf("create p1: %v", err)
	}
	p2, err := f.products.Create(ctx, costume(2, 0))
	if err != nil {
		t.Fatalf("create p2: %v", err)
	}

	o, err := f.checkout.Checkout(ctx, f.input(
		CheckoutItem{ProductID: p1.ID, Size: "M", Quantity: 3},
		CheckoutItem{ProductID: p2.ID, Size: "M", Quantity: 2},
	))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if o.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending")
	}

	// stocks decreased
	p1After, _ := f.products.GetByID(ctx, p1.ID)
	p2After, _ := f.products.GetByID(ctx, p2.ID)
	if p1After.TotalStock() != 3 || p2After.TotalStock() != 0 {
		t.Fatalf("stock not decreased: %v %v", p1After.TotalStock(), p2After.TotalStock())
	}

	// cancel
	o2, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel order: %v", err)
	}
	if o2.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled")
	}

	// stocks restored
	p1R, _ := f.products.GetByID(ctx, p1.ID)
	p2R, _ := f.products.GetByID(ctx, p2.ID)
	if p1R.TotalStock() != 6 || p2R.TotalStock() != 2 {
		t.Fatalf("stock not restored: %v %v", p1R.TotalStock(), p2R.TotalStock())
	}
}

func TestUpdateStatus_Transitions(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, _ := f.products.Create(ctx, costume(10, 10))
	o, err := f.checkout.Checkout(ctx, f.input(CheckoutItem{ProductID: p.ID, Size: "L", Quantity: 2}))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusDelivered); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("pending -> delivered must fail, got %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusShipped); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusDelivered); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delivered orders cannot be cancelled, got %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, "Lost"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status must be invalid, got %v", err)
	}

	// delivery does not touch stock
	got, _ := f.products.GetByID(ctx, p.ID)
	if v, _ := got.Variant("L"); v.Stock != 8 {
		t.Fatalf("expected 8 left, got %d", v.Stock)
	}
}

func TestCancel_Twice(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, _ := f.products.Create(ctx, costume(10, 10))
	o, err := f.checkout.Checkout(ctx, f.input(CheckoutItem{ProductID: p.ID, Size: "M", Quantity: 2}))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state on second cancel")
	}
	got, _ := f.products.GetByID(ctx, p.ID)
	if v, _ := got.Variant("M"); v.Stock != 10 {
		t.Fatalf("stock restored twice: %d", v.Stock)
	}
}

func TestCancel_SkipsDeletedProduct(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p1, _ := f.products.Create(ctx, costume(5, 5))
	p2, _ := f.products.Create(ctx, costume(5, 5))
	o, err := f.checkout.Checkout(ctx, f.input(
		CheckoutItem{ProductID: p1.ID, Size: "M", Quantity: 1},
		CheckoutItem{ProductID: p2.ID, Size: "M", Quantity: 1},
	))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if err := f.products.Delete(ctx, p1.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orders.UpdateStatus(ctx, o.ID, domain.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, _ := f.products.GetByID(ctx, p2.ID)
	if v, _ := got.Variant("M"); v.Stock != 5 {
		t.Fatalf("expected p2 restocked, got %d", v.Stock)
	}
}

func TestListOrders_NewestFirst(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, _ := f.products.Create(ctx, costume(10, 10))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		f.checkout.now = func() time.Time { return at }
		in := f.input(CheckoutItem{ProductID: p.ID, Size: "M", Quantity: 1})
		if i == 2 {
			in.CustomerEmail = "other@qg.test"
		}
		o, err := f.checkout.Checkout(ctx, in)
		if err != nil {
			t.Fatalf("checkout %d: %v", i, err)
		}
		ids = append(ids, o.ID)
	}

	all, err := f.orders.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Fatalf("unexpected order: %+v", all)
	}
	mine, err := f.orders.ListByEmail(ctx, "awa@qg.test")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ID != ids[1] {
		t.Fatalf("unexpected customer orders: %+v", mine)
	}
	if _, err := f.orders.GetOrder(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
