package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"qgsape/internal/ai"
	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

var ErrContentRejected = errors.New("content rejected")

// Moderator classifies community content.
type Moderator interface {
	Moderate(ctx context.Context, text string) (ai.Moderation, error)
}

type CommunityService struct {
	posts     repository.Collection[domain.Post]
	moderator Moderator
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewCommunityService(posts repository.Collection[domain.Post], moderator Moderator, log logrus.FieldLogger) *CommunityService {
	return &CommunityService{posts: posts, moderator: moderator, log: log.WithField("module", "community"), now: time.Now}
}

type PostInput struct {
	Content  string `json:"content" binding:"required"`
	ImageURL string `json:"imageUrl"`
}

func (s *CommunityService) List(ctx context.Context) ([]domain.Post, error) {
	list, err := s.posts.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// Create asks the moderator once. The post is written only on an explicit
// non-violating verdict: a moderation failure rejects it too.
func (s *CommunityService) Create(ctx context.Context, author *domain.User, in PostInput) (*domain.Post, error) {
	if author == nil {
		return nil, ErrInvalidInput
	}
	p := domain.Post{
		AuthorName:  author.Name,
		AuthorEmail: author.ID,
		Content:     strings.TrimSpace(in.Content),
		ImageURL:    strings.TrimSpace(in.ImageURL),
		CreatedAt:   s.now().UTC(),
	}
	if err := validateStruct(&p); err != nil {
		return nil, err
	}

	log := s.log.WithField("author", author.ID)
	verdict, err := s.moderator.Moderate(ctx, p.Content)
	if err != nil {
		log.WithError(err).Error("Moderation failed, post rejected")
		return nil, fmt.Errorf("%w: la modération est indisponible, réessayez plus tard", ErrContentRejected)
	}
	if verdict.IsViolating {
		log.WithField("reason", verdict.Reason).Info("Post rejected by moderation")
		reason := verdict.Reason
		if reason == "" {
			reason = "contenu non conforme"
		}
		return nil, fmt.Errorf("%w: %s", ErrContentRejected, reason)
	}

	if err := s.posts.Create(ctx, &p); err != nil {
		return nil, err
	}
	log.WithField("post_id", p.ID).Info("Post published")
	return &p, nil
}

func (s *CommunityService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.posts.Delete(ctx, id)
}
