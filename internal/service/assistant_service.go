package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"qgsape/internal/ai"
	"qgsape/internal/domain"
	"qgsape/internal/notify"
	"qgsape/internal/repository"
)

// Assistant is the generative side of the shop.
type Assistant interface {
	DescribeProduct(ctx context.Context, in ai.DescriptionInput) (string, error)
	AdviseStock(ctx context.Context, products []domain.Product) (ai.StockAdvice, error)
	VisualSearch(ctx context.Context, image []byte, mimeType string, catalog []domain.Product) ([]string, error)
	Recommend(ctx context.Context, p domain.Product, catalog []domain.Product, limit int) ([]string, error)
}

// AssistantService feeds the catalog to the AI flows.
type AssistantService struct {
	ai       Assistant
	products repository.ProductRepository
	log      logrus.FieldLogger
}

func NewAssistantService(a Assistant, products repository.ProductRepository, log logrus.FieldLogger) *AssistantService {
	return &AssistantService{ai: a, products: products, log: log.WithField("module", "assistant")}
}

func (s *AssistantService) DescribeProduct(ctx context.Context, in ai.DescriptionInput) (string, error) {
	if in.Name == "" {
		return "", ErrInvalidInput
	}
	return s.ai.DescribeProduct(ctx, in)
}

func (s *AssistantService) StockAdvice(ctx context.Context) (ai.StockAdvice, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return ai.StockAdvice{}, err
	}
	return s.ai.AdviseStock(ctx, all)
}

func (s *AssistantService) VisualSearch(ctx context.Context, image []byte, mimeType string) ([]domain.Product, error) {
	if len(image) == 0 {
		return nil, ErrInvalidInput
	}
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.ai.VisualSearch(ctx, image, mimeType, all)
	if err != nil {
		return nil, err
	}
	return pick(all, ids), nil
}

// Recommendations asks the model for related products and falls back to
// products sharing a category when the model is unavailable or names nothing
// from the catalog.
func (s *AssistantService) Recommendations(ctx context.Context, productID string, limit int) ([]domain.Product, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.ai.Recommend(ctx, *p, all, limit)
	if err != nil {
		s.log.WithError(err).WithField("product_id", productID).Warn("Recommendation flow failed, using category match")
		return sameCategory(*p, all, limit), nil
	}
	if picked := pick(all, ids); len(picked) > 0 {
		return picked, nil
	}
	return sameCategory(*p, all, limit), nil
}

func pick(all []domain.Product, ids []string) []domain.Product {
	byID := make(map[string]domain.Product, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func sameCategory(p domain.Product, all []domain.Product, limit int) []domain.Product {
	if limit <= 0 {
		limit = 4
	}
	cats := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		cats[c] = true
	}
	out := make([]domain.Product, 0, limit)
	for _, o := range all {
		if o.ID == p.ID {
			continue
		}
		for _, c := range o.Categories {
			if cats[c] {
				out = append(out, o)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out
}

// NewsletterService subscribes visitors to the CRM list.
type NewsletterService struct {
	contacts notify.ContactSaver
}

func NewNewsletterService(contacts notify.ContactSaver) *NewsletterService {
	return &NewsletterService{contacts: contacts}
}

type SubscribeInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

func (s *NewsletterService) Subscribe(ctx context.Context, in SubscribeInput) error {
	if err := validateStruct(&in); err != nil {
		return err
	}
	return s.contacts.SaveContact(ctx, notify.Contact{Email: in.Email, FirstName: in.Name})
}
