package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"qgsape/internal/domain"
)

// MemoryStore keeps every collection as encoded documents, so callers never
// share memory with stored values.
type MemoryStore struct {
	mu   sync.RWMutex
	seq  int64
	docs map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string][]byte)}
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// nextID must be called under the write lock.
func (m *MemoryStore) nextID() string {
	m.seq++
	return strconv.FormatInt(m.seq, 10)
}

func (m *MemoryStore) snapshot() map[string]map[string][]byte {
	cp := make(map[string]map[string][]byte, len(m.docs))
	for path, docs := range m.docs {
		inner := make(map[string][]byte, len(docs))
		for id, data := range docs {
			inner[id] = data
		}
		cp[path] = inner
	}
	return cp
}

func (m *MemoryStore) collection(path string) map[string][]byte {
	docs, ok := m.docs[path]
	if !ok {
		docs = make(map[string][]byte)
		m.docs[path] = docs
	}
	return docs
}

// memoryCollection implements Collection[T] on top of a MemoryStore path.
type memoryCollection[T any, P DocumentPtr[T]] struct {
	store *MemoryStore
	path  string
}

func newMemoryCollection[T any, P DocumentPtr[T]](store *MemoryStore, path string) *memoryCollection[T, P] {
	return &memoryCollection[T, P]{store: store, path: path}
}

var _ Collection[domain.Category] = (*memoryCollection[domain.Category, *domain.Category])(nil)

func (c *memoryCollection[T, P]) encode(v *T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s document: %w", c.path, err)
	}
	return data, nil
}

func (c *memoryCollection[T, P]) decode(id string, data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", c.path, id, err)
	}
	P(&v).SetID(id)
	return &v, nil
}

func (c *memoryCollection[T, P]) Create(ctx context.Context, v *T) error {
	c.store.wlock(ctx)
	defer c.store.wunlock(ctx)
	docs := c.store.collection(c.path)
	p := P(v)
	if p.GetID() == "" {
		p.SetID(c.store.nextID())
	} else if _, ok := docs[p.GetID()]; ok {
		return ErrConflict
	}
	data, err := c.encode(v)
	if err != nil {
		return err
	}
	docs[p.GetID()] = data
	return nil
}

func (c *memoryCollection[T, P]) Put(ctx context.Context, v *T) error {
	c.store.wlock(ctx)
	defer c.store.wunlock(ctx)
	p := P(v)
	if p.GetID() == "" {
		p.SetID(c.store.nextID())
	}
	data, err := c.encode(v)
	if err != nil {
		return err
	}
	c.store.collection(c.path)[p.GetID()] = data
	return nil
}

func (c *memoryCollection[T, P]) Get(ctx context.Context, id string) (*T, error) {
	c.store.rlock(ctx)
	defer c.store.runlock(ctx)
	data, ok := c.store.docs[c.path][id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.decode(id, data)
}

func (c *memoryCollection[T, P]) Update(ctx context.Context, v *T) error {
	c.store.wlock(ctx)
	defer c.store.wunlock(ctx)
	id := P(v).GetID()
	docs := c.store.docs[c.path]
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	data, err := c.encode(v)
	if err != nil {
		return err
	}
	docs[id] = data
	return nil
}

func (c *memoryCollection[T, P]) Delete(ctx context.Context, id string) error {
	c.store.wlock(ctx)
	defer c.store.wunlock(ctx)
	docs := c.store.docs[c.path]
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	delete(docs, id)
	return nil
}

// List returns documents in id order: shorter ids first, so generated ids
// come back in creation order.
func (c *memoryCollection[T, P]) List(ctx context.Context) ([]T, error) {
	c.store.rlock(ctx)
	defer c.store.runlock(ctx)
	docs := c.store.docs[c.path]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		v, err := c.decode(id, docs[id])
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// MemoryProducts adds catalog search to the product collection.
type MemoryProducts struct {
	*memoryCollection[domain.Product, *domain.Product]
}

var _ ProductRepository = (*MemoryProducts)(nil)

func (m *MemoryProducts) Find(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	all, err := m.List(ctx)
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

type MemoryCoupons struct {
	*memoryCollection[domain.Coupon, *domain.Coupon]
}

var _ CouponRepository = (*MemoryCoupons)(nil)

func (m *MemoryCoupons) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Code == code {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

type MemoryOrders struct {
	*memoryCollection[domain.Order, *domain.Order]
}

var _ OrderRepository = (*MemoryOrders)(nil)

func (m *MemoryOrders) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	all, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0)
	for _, o := range all {
		if o.CustomerEmail == email {
			out = append(out, o)
		}
	}
	return out, nil
}

// MemoryReviews keeps one sub-collection per product.
type MemoryReviews struct{ store *MemoryStore }

var _ ReviewRepository = (*MemoryReviews)(nil)

func (m *MemoryReviews) col(productID string) *memoryCollection[domain.Review, *domain.Review] {
	return newMemoryCollection[domain.Review](m.store, reviewsPath(productID))
}

func (m *MemoryReviews) Create(ctx context.Context, productID string, r *domain.Review) error {
	r.ProductID = productID
	return m.col(productID).Create(ctx, r)
}

func (m *MemoryReviews) Get(ctx context.Context, productID, id string) (*domain.Review, error) {
	return m.col(productID).Get(ctx, id)
}

func (m *MemoryReviews) Delete(ctx context.Context, productID, id string) error {
	return m.col(productID).Delete(ctx, id)
}

func (m *MemoryReviews) List(ctx context.Context, productID string) ([]domain.Review, error) {
	return m.col(productID).List(ctx)
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

// WithTransaction holds the write lock for the whole of fn and restores the
// previous contents when fn fails. Nested calls join the outer transaction.
func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	before := tx.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		tx.store.docs = before
		return err
	}
	return nil
}

// NewMemoryRepositories wires every collection to one store.
func NewMemoryRepositories(store *MemoryStore) *Repositories {
	return &Repositories{
		Products:        &MemoryProducts{newMemoryCollection[domain.Product](store, CollectionProducts)},
		Categories:      newMemoryCollection[domain.Category](store, CollectionCategories),
		Orders:          &MemoryOrders{newMemoryCollection[domain.Order](store, CollectionOrders)},
		Coupons:         &MemoryCoupons{newMemoryCollection[domain.Coupon](store, CollectionCoupons)},
		Reviews:         &MemoryReviews{store: store},
		Users:           newMemoryCollection[domain.User](store, CollectionUsers),
		Posts:           newMemoryCollection[domain.Post](store, CollectionPosts),
		Promotions:      newMemoryCollection[domain.Promotion](store, CollectionPromotions),
		Announcements:   newMemoryCollection[domain.Announcement](store, CollectionAnnouncements),
		PaymentMethods:  newMemoryCollection[domain.PaymentMethod](store, CollectionPaymentMethods),
		ShippingMethods: newMemoryCollection[domain.ShippingMethod](store, CollectionShippingMethods),
		Settings:        newMemoryCollection[domain.SiteInfo](store, CollectionSettings),
		Tx:              NewMemoryTx(store),
	}
}
