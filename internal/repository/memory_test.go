package repository

import (
	"context"
	"errors"
	"testing"

	"qgsape/internal/domain"
)

func TestMemoryStore_ProductCRUD(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories(NewMemoryStore())

	p := domain.Product{Name: "Veste lin", Price: 25000, Variants: []domain.Variant{{Size: "M", Stock: 5}}}
	if err := repos.Products.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("no id")
	}

	got, err := repos.Products.Get(ctx, p.ID)
	if err != nil || got.ID != p.ID {
		t.Fatalf("get: %v", err)
	}

	p.Price = 27000
	if err := repos.Products.Update(ctx, &p); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := repos.Products.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repos.Products.Get(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repos.Products.Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestMemoryStore_ReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories(NewMemoryStore())

	p := domain.Product{Name: "Chemise", Price: 10000, Variants: []domain.Variant{{Size: "L", Stock: 3}}}
	if err := repos.Products.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}
	got, _ := repos.Products.Get(ctx, p.ID)
	got.Variants[0].Stock = 0

	again, _ := repos.Products.Get(ctx, p.ID)
	if again.Variants[0].Stock != 3 {
		t.Fatalf("stored value mutated through a returned copy: %v", again.Variants[0].Stock)
	}
}

func TestMemoryStore_CreateWithExistingIDConflicts(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories(NewMemoryStore())

	u := domain.User{ID: "ama@qg.test", Role: domain.RoleClient}
	if err := repos.Users.Create(ctx, &u); err != nil {
		t.Fatal(err)
	}
	if err := repos.Users.Create(ctx, &u); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	u.Role = domain.RoleAdmin
	if err := repos.Users.Put(ctx, &u); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, _ := repos.Users.Get(ctx, u.ID)
	if got.Role != domain.RoleAdmin {
		t.Fatalf("put did not replace document")
	}
}

func TestMemoryTx_TransactionalUpdate(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories(NewMemoryStore())

	// seed product
	p := domain.Product{Name: "A", Price: 10, Variants: []domain.Variant{{Size: "M", Stock: 5}}}
	if err := repos.Products.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	// emulate atomic create order with stock decrease
	err := repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		pp, err := repos.Products.Get(ctx, p.ID)
		if err != nil {
			return err
		}
		pp.Variants[0].Stock -= 3
		if err := repos.Products.Update(ctx, pp); err != nil {
			return err
		}
		o := domain.Order{CustomerName: "John", Items: []domain.OrderItem{{ProductID: p.ID, Quantity: 3}}, Status: domain.OrderStatusPending}
		return repos.Orders.Create(ctx, &o)
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	pp, _ := repos.Products.Get(ctx, p.ID)
	if pp.Variants[0].Stock != 2 {
		t.Fatalf("stock expected 2, got %v", pp.Variants[0].Stock)
	}
}

func TestMemoryTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories(NewMemoryStore())

	p := domain.Product{Name: "A", Price: 10, Variants: []domain.Variant{{Size: "M", Stock: 5}}}
	if err := repos.Products.Create(ctx, &p); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		pp, _ := repos.Products.Get(ctx, p.ID)
		pp.Variants[0].Stock = 0
		if err := repos.Products.Update(ctx, pp); err != nil {
			return err
		}
		o := domain.Order{CustomerName: "John"}
		if err := repos.Orders.Create(ctx, &o); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	pp, _ := repos.Products.Get(ctx, p.ID)
	if pp.Variants[0].Stock != 5 {
		t.Fatalf("stock not restored: %v", pp.Variants[0].Stock)
	}
	orders, _ := repos.Orders.List(ctx)
	if len(orders) != 0 {
		t.Fatalf("order should have been rolled back, got %d", len(orders))
	}
}

func TestFind_Filtering(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories(NewMemoryStore())
	add := func(n string, price int64, cats []string, isNew bool) {
		p := domain.Product{Name: n, Price: price, Categories: cats, IsNew: isNew}
		if err := repos.Products.Create(ctx, &p); err != nil {
			t.Fatal(err)
		}
	}
	add("Boubou brodé", 45000, []string{"hommes"}, true)
	add("Robe wax", 30000, []string{"femmes"}, false)
	add("Boubou enfant", 15000, []string{"enfants"}, false)

	list, _ := repos.Products.Find(ctx, ProductFilter{Query: "boubou"})
	if len(list) != 2 {
		t.Fatalf("name filter: expected 2, got %d", len(list))
	}

	kaftan := domain.Product{Name: "Kaftan", Description: "Coupe ample en BAZIN riche", Price: 60000}
	if err := repos.Products.Create(ctx, &kaftan); err != nil {
		t.Fatal(err)
	}
	list, _ = repos.Products.Find(ctx, ProductFilter{Query: "bazin"})
	if len(list) != 1 || list[0].Name != "Kaftan" {
		t.Fatalf("description filter failed: %+v", list)
	}

	list, _ = repos.Products.Find(ctx, ProductFilter{CategoryID: "femmes"})
	if len(list) != 1 || list[0].Name != "Robe wax" {
		t.Fatalf("category filter failed: %+v", list)
	}

	min := int64(20000)
	list, _ = repos.Products.Find(ctx, ProductFilter{MinPrice: &min})
	for _, p := range list {
		if p.Price < min {
			t.Fatalf("min filter fail")
		}
	}

	list, _ = repos.Products.Find(ctx, ProductFilter{OnlyNew: true})
	if len(list) != 1 {
		t.Fatalf("new filter: expected 1, got %d", len(list))
	}
}

func TestCouponsAndOrdersQueries(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories(NewMemoryStore())

	c := domain.Coupon{Code: "SAPE10", Discount: 10}
	if err := repos.Coupons.Create(ctx, &c); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Coupons.FindByCode(ctx, "sape10"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("code match must be exact, got %v", err)
	}
	got, err := repos.Coupons.FindByCode(ctx, "SAPE10")
	if err != nil || got.ID != c.ID {
		t.Fatalf("find by code: %v", err)
	}

	for _, email := range []string{"a@qg.test", "b@qg.test", "a@qg.test"} {
		o := domain.Order{CustomerEmail: email}
		if err := repos.Orders.Create(ctx, &o); err != nil {
			t.Fatal(err)
		}
	}
	mine, _ := repos.Orders.ListByEmail(ctx, "a@qg.test")
	if len(mine) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(mine))
	}
}

func TestReviewsAreScopedByProduct(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryRepositories(NewMemoryStore())

	r1 := domain.Review{Rating: 5}
	r2 := domain.Review{Rating: 3}
	if err := repos.Reviews.Create(ctx, "p1", &r1); err != nil {
		t.Fatal(err)
	}
	if err := repos.Reviews.Create(ctx, "p2", &r2); err != nil {
		t.Fatal(err)
	}
	list, _ := repos.Reviews.List(ctx, "p1")
	if len(list) != 1 || list[0].ProductID != "p1" {
		t.Fatalf("unexpected reviews: %+v", list)
	}
	if _, err := repos.Reviews.Get(ctx, "p2", r1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("review leaked across products: %v", err)
	}
}
