package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qgsape/internal/ai"
	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

type fakeModerator struct {
	verdict ai.Moderation
	err     error
	calls   int
}

func (m *fakeModerator) Moderate(context.Context, string) (ai.Moderation, error) {
	m.calls++
	return m.verdict, m.err
}

func TestCommunity_ModerationGate(t *testing.T) {
	author := &domain.User{ID: "awa@qg.test", Name: "Awa"}
	cases := []struct {
		name      string
		moderator *fakeModerator
		persisted bool
	}{
		{"clean", &fakeModerator{verdict: ai.Moderation{IsViolating: false}}, true},
		{"violating", &fakeModerator{verdict: ai.Moderation{IsViolating: true, Reason: "Insultes"}}, false},
		{"moderator down", &fakeModerator{err: errors.New("timeout")}, false},
		{"no verdict", &fakeModerator{err: ai.ErrNoVerdict}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
			svc := NewCommunityService(repos.Posts, tc.moderator, logrus.New())

			p, err := svc.Create(ctx, author, PostInput{Content: "Mon look du jour"})
			posts, _ := svc.List(ctx)
			assert.Equal(t, 1, tc.moderator.calls)
			if tc.persisted {
				require.NoError(t, err)
				assert.Len(t, posts, 1)
				assert.Equal(t, "Awa", p.AuthorName)
				return
			}
			assert.ErrorIs(t, err, ErrContentRejected)
			assert.Empty(t, posts)
		})
	}
}

func TestCommunity_RejectionCarriesReason(t *testing.T) {
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	svc := NewCommunityService(repos.Posts, &fakeModerator{verdict: ai.Moderation{IsViolating: true, Reason: "Spam"}}, logrus.New())
	_, err := svc.Create(context.Background(), &domain.User{ID: "x@qg.test"}, PostInput{Content: "promo promo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Spam")
}

func TestCommunity_EmptyContentSkipsModeration(t *testing.T) {
	m := &fakeModerator{}
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	svc := NewCommunityService(repos.Posts, m, logrus.New())
	_, err := svc.Create(context.Background(), &domain.User{ID: "x@qg.test"}, PostInput{Content: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, m.calls)
}
