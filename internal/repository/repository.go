package repository

import (
	"context"
	"errors"
	"strings"

	"qgsape/internal/domain"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a document whose id is taken.
	ErrConflict = errors.New("already exists")
)

// Document is implemented by every stored entity.
type Document interface {
	GetID() string
	SetID(id string)
}

// DocumentPtr lets generic collections call Document methods on *T.
type DocumentPtr[T any] interface {
	*T
	Document
}

// Collection is the CRUD surface shared by all flat collections.
type Collection[T any] interface {
	// Create stores v, assigning an id when v has none.
	Create(ctx context.Context, v *T) error
	// Put creates or replaces the document with v's id.
	Put(ctx context.Context, v *T) error
	Get(ctx context.Context, id string) (*T, error)
	// Update replaces an existing document.
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]T, error)
}

// ProductFilter holds the catalog search parameters.
type ProductFilter struct {
	Query      string
	CategoryID string
	MinPrice   *int64
	MaxPrice   *int64
	OnlyNew    bool
}

// Match applies the filter to one product. Query looks at the name and the
// description.
func (f ProductFilter) Match(p domain.Product) bool {
	if !containsIgnoreCase(p.Name, f.Query) && !containsIgnoreCase(p.Description, f.Query) {
		return false
	}
	if f.CategoryID != "" && !contains(p.Categories, f.CategoryID) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.OnlyNew && !p.IsNew {
		return false
	}
	return true
}

type ProductRepository interface {
	Collection[domain.Product]
	Find(ctx context.Context, f ProductFilter) ([]domain.Product, error)
}

type CouponRepository interface {
	Collection[domain.Coupon]
	// FindByCode matches the code exactly.
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
}

type OrderRepository interface {
	Collection[domain.Order]
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
}

// ReviewRepository stores reviews under their product.
type ReviewRepository interface {
	Create(ctx context.Context, productID string, r *domain.Review) error
	Get(ctx context.Context, productID, id string) (*domain.Review, error)
	Delete(ctx context.Context, productID, id string) error
	List(ctx context.Context, productID string) ([]domain.Review, error)
}

// TxManager runs fn atomically. Repository calls made with the ctx passed to fn
// take part in the transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories bundles every collection of one backend.
type Repositories struct {
	Products        ProductRepository
	Categories      Collection[domain.Category]
	Orders          OrderRepository
	Coupons         CouponRepository
	Reviews         ReviewRepository
	Users           Collection[domain.User]
	Posts           Collection[domain.Post]
	Promotions      Collection[domain.Promotion]
	Announcements   Collection[domain.Announcement]
	PaymentMethods  Collection[domain.PaymentMethod]
	ShippingMethods Collection[domain.ShippingMethod]
	Settings        Collection[domain.SiteInfo]
	Tx              TxManager
}

// Firestore collection names.
const (
	CollectionProducts        = "products"
	CollectionCategories      = "categories"
	CollectionOrders          = "orders"
	CollectionCoupons         = "coupons"
	CollectionReviews         = "reviews"
	CollectionUsers           = "users"
	CollectionPosts           = "communityPosts"
	CollectionPromotions      = "promotions"
	CollectionAnnouncements   = "announcements"
	CollectionPaymentMethods  = "paymentMethods"
	CollectionShippingMethods = "shippingMethods"
	CollectionSettings        = "settings"
)

func reviewsPath(productID string) string {
	return CollectionProducts + "/" + productID + "/" + CollectionReviews
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
