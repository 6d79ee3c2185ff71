package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"qgsape/internal/domain"
)

type firestoreTxKey struct{}

func txFrom(ctx context.Context) *firestore.Transaction {
	tx, _ := ctx.Value(firestoreTxKey{}).(*firestore.Transaction)
	return tx
}

func mapFirestoreErr(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return ErrConflict
	}
	return err
}

// firestoreCollection implements Collection[T] over one Firestore collection.
// Inside a transaction every read and write goes through the transaction.
// Firestore requires all reads of a transaction to happen before its writes, so
// Update inside a transaction does not re-read the document.
type firestoreCollection[T any, P DocumentPtr[T]] struct {
	col *firestore.CollectionRef
}

func newFirestoreCollection[T any, P DocumentPtr[T]](col *firestore.CollectionRef) *firestoreCollection[T, P] {
	return &firestoreCollection[T, P]{col: col}
}

var _ Collection[domain.Category] = (*firestoreCollection[domain.Category, *domain.Category])(nil)

func (c *firestoreCollection[T, P]) ref(id string) *firestore.DocumentRef {
	return c.col.Doc(id)
}

func (c *firestoreCollection[T, P]) decode(snap *firestore.DocumentSnapshot) (*T, error) {
	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c.col.ID, snap.Ref.ID, err)
	}
	P(&v).SetID(snap.Ref.ID)
	return &v, nil
}

func (c *firestoreCollection[T, P]) Create(ctx context.Context, v *T) error {
	p := P(v)
	var ref *firestore.DocumentRef
	if id := strings.TrimSpace(p.GetID()); id != "" {
		ref = c.ref(id)
	} else {
		ref = c.col.NewDoc()
	}
	p.SetID(ref.ID)

	var err error
	if tx := txFrom(ctx); tx != nil {
		err = tx.Create(ref, v)
	} else {
		_, err = ref.Create(ctx, v)
	}
	return mapFirestoreErr(err)
}

func (c *firestoreCollection[T, P]) Put(ctx context.Context, v *T) error {
	p := P(v)
	var ref *firestore.DocumentRef
	if id := strings.TrimSpace(p.GetID()); id != "" {
		ref = c.ref(id)
	} else {
		ref = c.col.NewDoc()
		p.SetID(ref.ID)
	}
	if tx := txFrom(ctx); tx != nil {
		return mapFirestoreErr(tx.Set(ref, v))
	}
	_, err := ref.Set(ctx, v)
	return mapFirestoreErr(err)
}

func (c *firestoreCollection[T, P]) Get(ctx context.Context, id string) (*T, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	var (
		snap *firestore.DocumentSnapshot
		err  error
	)
	if tx := txFrom(ctx); tx != nil {
		snap, err = tx.Get(c.ref(id))
	} else {
		snap, err = c.ref(id).Get(ctx)
	}
	if err != nil {
		return nil, mapFirestoreErr(err)
	}
	return c.decode(snap)
}

func (c *firestoreCollection[T, P]) Update(ctx context.Context, v *T) error {
	id := strings.TrimSpace(P(v).GetID())
	if id == "" {
		return ErrNotFound
	}
	ref := c.ref(id)
	if tx := txFrom(ctx); tx != nil {
		return mapFirestoreErr(tx.Set(ref, v))
	}
	if _, err := ref.Get(ctx); err != nil {
		return mapFirestoreErr(err)
	}
	_, err := ref.Set(ctx, v)
	return mapFirestoreErr(err)
}

func (c *firestoreCollection[T, P]) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	if tx := txFrom(ctx); tx != nil {
		return mapFirestoreErr(tx.Delete(c.ref(id), firestore.Exists))
	}
	_, err := c.ref(id).Delete(ctx, firestore.Exists)
	return mapFirestoreErr(err)
}

func (c *firestoreCollection[T, P]) List(ctx context.Context) ([]T, error) {
	return c.query(ctx, c.col.Query)
}

func (c *firestoreCollection[T, P]) query(ctx context.Context, q firestore.Query) ([]T, error) {
	var it *firestore.DocumentIterator
	if tx := txFrom(ctx); tx != nil {
		it = tx.Documents(q)
	} else {
		it = q.Documents(ctx)
	}
	defer it.Stop()

	out := make([]T, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, mapFirestoreErr(err)
		}
		v, err := c.decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

type FirestoreProducts struct {
	*firestoreCollection[domain.Product, *domain.Product]
}

var _ ProductRepository = (*FirestoreProducts)(nil)

// Find narrows by category on the server; the remaining filters run here
// because Firestore cannot combine substring and range filters.
func (r *FirestoreProducts) Find(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	q := r.col.Query
	if f.CategoryID != "" {
		q = q.Where("categories", "array-contains", f.CategoryID)
	}
	all, err := r.query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

type FirestoreCoupons struct {
	*firestoreCollection[domain.Coupon, *domain.Coupon]
}

var _ CouponRepository = (*FirestoreCoupons)(nil)

func (r *FirestoreCoupons) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	list, err := r.query(ctx, r.col.Where("code", "==", code).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

type FirestoreOrders struct {
	*firestoreCollection[domain.Order, *domain.Order]
}

var _ OrderRepository = (*FirestoreOrders)(nil)

func (r *FirestoreOrders) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	return r.query(ctx, r.col.Where("customerEmail", "==", email))
}

type FirestoreReviews struct {
	client *firestore.Client
}

var _ ReviewRepository = (*FirestoreReviews)(nil)

func (r *FirestoreReviews) col(productID string) *firestoreCollection[domain.Review, *domain.Review] {
	return newFirestoreCollection[domain.Review](r.client.Collection(reviewsPath(productID)))
}

func (r *FirestoreReviews) Create(ctx context.Context, productID string, rv *domain.Review) error {
	rv.ProductID = productID
	return r.col(productID).Create(ctx, rv)
}

func (r *FirestoreReviews) Get(ctx context.Context, productID, id string) (*domain.Review, error) {
	return r.col(productID).Get(ctx, id)
}

func (r *FirestoreReviews) Delete(ctx context.Context, productID, id string) error {
	return r.col(productID).Delete(ctx, id)
}

func (r *FirestoreReviews) List(ctx context.Context, productID string) ([]domain.Review, error) {
	return r.col(productID).List(ctx)
}

// FirestoreTx runs fn in a Firestore transaction carried through the ctx.
// Firestore may call fn more than once when the transaction contends.
type FirestoreTx struct {
	client *firestore.Client
}

func NewFirestoreTx(client *firestore.Client) *FirestoreTx { return &FirestoreTx{client: client} }

func (t *FirestoreTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	return t.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		return fn(context.WithValue(ctx, firestoreTxKey{}, tx))
	})
}

// NewFirestoreRepositories binds every collection to the given client.
func NewFirestoreRepositories(client *firestore.Client) *Repositories {
	return &Repositories{
		Products:        &FirestoreProducts{newFirestoreCollection[domain.Product](client.Collection(CollectionProducts))},
		Categories:      newFirestoreCollection[domain.Category](client.Collection(CollectionCategories)),
		Orders:          &FirestoreOrders{newFirestoreCollection[domain.Order](client.Collection(CollectionOrders))},
		Coupons:         &FirestoreCoupons{newFirestoreCollection[domain.Coupon](client.Collection(CollectionCoupons))},
		Reviews:         &FirestoreReviews{client: client},
		Users:           newFirestoreCollection[domain.User](client.Collection(CollectionUsers)),
		Posts:           newFirestoreCollection[domain.Post](client.Collection(CollectionPosts)),
		Promotions:      newFirestoreCollection[domain.Promotion](client.Collection(CollectionPromotions)),
		Announcements:   newFirestoreCollection[domain.Announcement](client.Collection(CollectionAnnouncements)),
		PaymentMethods:  newFirestoreCollection[domain.PaymentMethod](client.Collection(CollectionPaymentMethods)),
		ShippingMethods: newFirestoreCollection[domain.ShippingMethod](client.Collection(CollectionShippingMethods)),
		Settings:        newFirestoreCollection[domain.SiteInfo](client.Collection(CollectionSettings)),
		Tx:              NewFirestoreTx(client),
	}
}
