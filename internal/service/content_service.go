package service

import (
	"context"
	"errors"
	"strings"

	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

// CRUD is the admin surface shared by the simple content collections.
type CRUD[T any, P repository.DocumentPtr[T]] struct {
	repo repository.Collection[T]
}

func NewCRUD[T any, P repository.DocumentPtr[T]](repo repository.Collection[T]) *CRUD[T, P] {
	return &CRUD[T, P]{repo: repo}
}

func (s *CRUD[T, P]) List(ctx context.Context) ([]T, error) {
	return s.repo.List(ctx)
}

func (s *CRUD[T, P]) Get(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.Get(ctx, id)
}

func (s *CRUD[T, P]) Create(ctx context.Context, v T) (*T, error) {
	P(&v).SetID("")
	if err := validateStruct(&v); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *CRUD[T, P]) Update(ctx context.Context, id string, v T) (*T, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	P(&v).SetID(id)
	if err := validateStruct(&v); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *CRUD[T, P]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

// EnabledOnly keeps the items switched on; public routes never show the others.
func EnabledOnly[T any, P interface {
	*T
	IsEnabled() bool
}](list []T) []T {
	out := make([]T, 0, len(list))
	for i := range list {
		if P(&list[i]).IsEnabled() {
			out = append(out, list[i])
		}
	}
	return out
}

// ContentService groups the storefront content managed from the admin area.
type ContentService struct {
	Promotions      *CRUD[domain.Promotion, *domain.Promotion]
	Announcements   *CRUD[domain.Announcement, *domain.Announcement]
	PaymentMethods  *CRUD[domain.PaymentMethod, *domain.PaymentMethod]
	ShippingMethods *CRUD[domain.ShippingMethod, *domain.ShippingMethod]
}

func NewContentService(repos *repository.Repositories) *ContentService {
	return &ContentService{
		Promotions:      NewCRUD[domain.Promotion](repos.Promotions),
		Announcements:   NewCRUD[domain.Announcement](repos.Announcements),
		PaymentMethods:  NewCRUD[domain.PaymentMethod](repos.PaymentMethods),
		ShippingMethods: NewCRUD[domain.ShippingMethod](repos.ShippingMethods),
	}
}

// SettingsService reads and writes the single site info document.
type SettingsService struct {
	repo     repository.Collection[domain.SiteInfo]
	defaults domain.SiteInfo
}

func NewSettingsService(repo repository.Collection[domain.SiteInfo], defaults domain.SiteInfo) *SettingsService {
	return &SettingsService{repo: repo, defaults: defaults}
}

// Get falls back to the defaults for a missing document and for an empty pixel id.
func (s *SettingsService) Get(ctx context.Context) (*domain.SiteInfo, error) {
	info, err := s.repo.Get(ctx, domain.SiteInfoID)
	if errors.Is(err, repository.ErrNotFound) {
		d := s.defaults
		return &d, nil
	}
	if err != nil {
		return nil, err
	}
	if info.Name == "" {
		info.Name = s.defaults.Name
	}
	if info.FacebookPixelID == "" {
		info.FacebookPixelID = s.defaults.FacebookPixelID
	}
	return info, nil
}

func (s *SettingsService) Put(ctx context.Context, info domain.SiteInfo) (*domain.SiteInfo, error) {
	info.ID = domain.SiteInfoID
	info.Email = strings.TrimSpace(info.Email)
	if err := validateStruct(&info); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
