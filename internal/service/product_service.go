package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

// ProductService encapsulates the catalog business logic.
type ProductService struct {
	repo repository.ProductRepository
	tx   repository.TxManager
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewProductService(repo repository.ProductRepository, tx repository.TxManager, log logrus.FieldLogger) *ProductService {
	return &ProductService{repo: repo, tx: tx, log: log.WithField("module", "products"), now: time.Now}
}

var ErrInvalidInput = errors.New("invalid input")

func validateProduct(p *domain.Product) error {
	if err := validateStruct(p); err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.Variants))
	for _, v := range p.Variants {
		if seen[v.Size] {
			return invalid("duplicate size %q", v.Size)
		}
		seen[v.Size] = true
	}
	if p.OriginalPrice != nil && *p.OriginalPrice < p.Price {
		return invalid("originalPrice must not be below price")
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(&p); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	cp := p
	cp.ID = ""
	cp.ReviewCount, cp.AverageRating = 0, 0
	cp.CreatedAt, cp.UpdatedAt = now, now
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	s.log.WithField("product_id", cp.ID).Info("Product created")
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

// Update replaces editable fields. Review aggregates and the creation date are
// owned by the server and kept from the stored document.
func (s *ProductService) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" {
		return nil, ErrInvalidInput
	}
	if err := validateProduct(&p); err != nil {
		return nil, err
	}
	var updated *domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.repo.Get(ctx, p.ID)
		if err != nil {
			return err
		}
		cp := p
		cp.ReviewCount = cur.ReviewCount
		cp.AverageRating = cur.AverageRating
		cp.CreatedAt = cur.CreatedAt
		cp.UpdatedAt = s.now().UTC()
		if err := s.repo.Update(ctx, &cp); err != nil {
			return err
		}
		updated = &cp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// List returns matching products, newest first.
func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	list, err := s.repo.Find(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// StockUpdate sets the stock of one product size.
type StockUpdate struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Stock     int64  `json:"stock" validate:"gte=0"`
}

// UpdateStock applies every update or none of them.
func (s *ProductService) UpdateStock(ctx context.Context, updates []StockUpdate) ([]domain.Product, error) {
	if len(updates) == 0 {
		return nil, invalid("no stock update")
	}
	for i := range updates {
		if err := validateStruct(&updates[i]); err != nil {
			return nil, err
		}
	}
	var out []domain.Product
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		products := make(map[string]*domain.Product)
		order := make([]string, 0)
		for _, u := range updates {
			if _, ok := products[u.ProductID]; ok {
				continue
			}
			p, err := s.repo.Get(ctx, u.ProductID)
			if err != nil {
				return fmt.Errorf("product %s: %w", u.ProductID, err)
			}
			products[u.ProductID] = p
			order = append(order, u.ProductID)
		}
		now := s.now().UTC()
		for _, u := range updates {
			v, ok := products[u.ProductID].Variant(u.Size)
			if !ok {
				return invalid("product %s has no size %q", u.ProductID, u.Size)
			}
			v.Stock = u.Stock
		}
		out = make([]domain.Product, 0, len(order))
		for _, id := range order {
			p := products[id]
			p.UpdatedAt = now
			if err := s.repo.Update(ctx, p); err != nil {
				return err
			}
			out = append(out, *p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("count", len(updates)).Info("Stock updated")
	return out, nil
}
