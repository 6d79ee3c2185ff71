package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

// ReviewService keeps the product rating aggregates in step with the reviews.
type ReviewService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	tx       repository.TxManager
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewReviewService(products repository.ProductRepository, reviews repository.ReviewRepository, tx repository.TxManager, log logrus.FieldLogger) *ReviewService {
	return &ReviewService{products: products, reviews: reviews, tx: tx, log: log.WithField("module", "reviews"), now: time.Now}
}

// List returns the reviews of a product, newest first.
func (s *ReviewService) List(ctx context.Context, productID string) ([]domain.Review, error) {
	if productID == "" {
		return nil, ErrInvalidInput
	}
	list, err := s.reviews.List(ctx, productID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

type ReviewInput struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"required"`
}

// addRating folds one rating into the average.
func addRating(avg float64, count int64, rating int) (float64, int64) {
	return (avg*float64(count) + float64(rating)) / float64(count+1), count + 1
}

// removeRating takes one rating out of the average; removing the last one
// zeroes both fields.
func removeRating(avg float64, count int64, rating int) (float64, int64) {
	if count <= 1 {
		return 0, 0
	}
	return (avg*float64(count) - float64(rating)) / float64(count-1), count - 1
}

func (s *ReviewService) Create(ctx context.Context, productID string, author *domain.User, in ReviewInput) (*domain.Review, error) {
	if productID == "" || author == nil {
		return nil, ErrInvalidInput
	}
	r := domain.Review{
		ProductID:   productID,
		Author:      author.Name,
		AuthorEmail: author.ID,
		Rating:      in.Rating,
		Comment:     strings.TrimSpace(in.Comment),
		CreatedAt:   s.now().UTC(),
	}
	if r.Author == "" {
		r.Author = strings.SplitN(author.ID, "@", 2)[0]
	}
	if err := validateStruct(&r); err != nil {
		return nil, err
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			return err
		}
		if err := s.reviews.Create(ctx, productID, &r); err != nil {
			return err
		}
		p.AverageRating, p.ReviewCount = addRating(p.AverageRating, p.ReviewCount, r.Rating)
		return s.products.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes a review and recomputes the product average in the same transaction.
func (s *ReviewService) Delete(ctx context.Context, productID, reviewID string) error {
	if productID == "" || reviewID == "" {
		return ErrInvalidInput
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		r, err := s.reviews.Get(ctx, productID, reviewID)
		if err != nil {
			return err
		}
		p, err := s.products.Get(ctx, productID)
		if err != nil {
			return err
		}
		if err := s.reviews.Delete(ctx, productID, reviewID); err != nil {
			return err
		}
		p.AverageRating, p.ReviewCount = removeRating(p.AverageRating, p.ReviewCount, r.Rating)
		return s.products.Update(ctx, p)
	})
	if err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"product_id": productID, "review_id": reviewID}).Info("Review deleted")
	return nil
}
