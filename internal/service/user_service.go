package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"qgsape/internal/auth"
	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

var ErrForbidden = errors.New("forbidden")

// UserService manages profiles keyed by email.
type UserService struct {
	repo       repository.Collection[domain.User]
	adminEmail string
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewUserService creates profiles as clients, except adminEmail which starts
// as admin so a fresh deployment has someone to hand out roles.
func NewUserService(repo repository.Collection[domain.User], adminEmail string, log logrus.FieldLogger) *UserService {
	return &UserService{
		repo:       repo,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		log:        log.WithField("module", "users"),
		now:        time.Now,
	}
}

var _ auth.UserResolver = (*UserService)(nil)

// Resolve returns the profile of a verified identity, creating it on first sign-in.
func (s *UserService) Resolve(ctx context.Context, id auth.Identity) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if email == "" {
		return nil, ErrInvalidInput
	}
	u, err := s.repo.Get(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	u = &domain.User{
		ID:        email,
		Role:      domain.RoleClient,
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
		CreatedAt: s.now().UTC(),
	}
	if s.adminEmail != "" && email == s.adminEmail {
		u.Role = domain.RoleAdmin
	}
	if err := s.repo.Create(ctx, u); err != nil {
		// a concurrent first request created it
		if errors.Is(err, repository.ErrConflict) {
			return s.repo.Get(ctx, email)
		}
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"email": email, "role": u.Role}).Info("User created")
	return u, nil
}

func (s *UserService) Get(ctx context.Context, email string) (*domain.User, error) {
	if email == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.Get(ctx, strings.ToLower(email))
}

type ProfileInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"omitempty,min=6,max=20"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,url"`
}

// UpdateProfile changes the self-editable fields; the role is untouched.
func (s *UserService) UpdateProfile(ctx context.Context, email string, in ProfileInput) (*domain.User, error) {
	if err := validateStruct(&in); err != nil {
		return nil, err
	}
	u, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	u.Name = strings.TrimSpace(in.Name)
	u.Phone = strings.TrimSpace(in.Phone)
	u.AvatarURL = in.AvatarURL
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *UserService) SetRole(ctx context.Context, actor *domain.User, email string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, invalid("unknown role %q", role)
	}
	email = strings.ToLower(email)
	if actor != nil && actor.ID == email && role != domain.RoleAdmin {
		return nil, ErrForbidden
	}
	u, err := s.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	u.Role = role
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"email": email, "role": role}).Info("User role changed")
	return u, nil
}
