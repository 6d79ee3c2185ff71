package service

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qgsape/internal/auth"
	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

func TestCouponService_Apply(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	svc := NewCouponService(repos.Coupons)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Create(ctx, domain.Coupon{Code: "SAPE10", Discount: 10, ExpiresAt: now.Add(time.Hour)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.Coupon{Code: "FINI", Discount: 20, ExpiresAt: now.Add(-time.Second)})
	require.NoError(t, err)

	res, err := svc.Apply(ctx, "SAPE10", 10000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Discount)

	_, err = svc.Apply(ctx, "FINI", 10000)
	assert.ErrorIs(t, err, ErrCouponExpired)
	_, err = svc.Apply(ctx, "sape10", 10000)
	assert.ErrorIs(t, err, ErrCouponNotFound)
}

func TestCouponService_UniqueCodes(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	svc := NewCouponService(repos.Coupons)
	exp := time.Now().Add(time.Hour)

	a, err := svc.Create(ctx, domain.Coupon{Code: "A", Discount: 5, ExpiresAt: exp})
	require.NoError(t, err)
	b, err := svc.Create(ctx, domain.Coupon{Code: "B", Discount: 5, ExpiresAt: exp})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.Coupon{Code: " A ", Discount: 5, ExpiresAt: exp})
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = svc.Update(ctx, b.ID, domain.Coupon{Code: "A", Discount: 5, ExpiresAt: exp})
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = svc.Update(ctx, a.ID, domain.Coupon{Code: "A", Discount: 15, ExpiresAt: exp})
	assert.NoError(t, err)
	_, err = svc.Create(ctx, domain.Coupon{Code: "C", Discount: 150, ExpiresAt: exp})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestContentService_CRUDAndEnabled(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	svc := NewContentService(repos)

	on, err := svc.Announcements.Create(ctx, domain.Announcement{Message: "Livraison offerte", Enabled: true})
	require.NoError(t, err)
	_, err = svc.Announcements.Create(ctx, domain.Announcement{Message: "Brouillon"})
	require.NoError(t, err)
	_, err = svc.Announcements.Create(ctx, domain.Announcement{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	all, err := svc.Announcements.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	enabled := EnabledOnly(all)
	require.Len(t, enabled, 1)
	assert.Equal(t, on.ID, enabled[0].ID)

	_, err = svc.ShippingMethods.Update(ctx, "missing", domain.ShippingMethod{Name: "Retrait", Enabled: true})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, svc.Promotions.Delete(ctx, "missing"), repository.ErrNotFound)
}

func TestSettingsService(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	svc := NewSettingsService(repos.Settings, domain.SiteInfo{Name: "LE QG DE LA SAPE", FacebookPixelID: "px-env"})

	info, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "px-env", info.FacebookPixelID)

	_, err = svc.Put(ctx, domain.SiteInfo{Name: "QG", Email: "contact@qg.test", Phone: "+221"})
	require.NoError(t, err)
	info, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "QG", info.Name)
	assert.Equal(t, "px-env", info.FacebookPixelID, "empty stored pixel falls back to config")

	_, err = svc.Put(ctx, domain.SiteInfo{Email: "nope"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	svc := NewUserService(repos.Users, "Boss@QG.test", logrus.New())

	boss, err := svc.Resolve(ctx, auth.Identity{Email: "boss@qg.test", Name: "Boss"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, boss.Role)

	u, err := svc.Resolve(ctx, auth.Identity{Email: "Awa@QG.test", Name: "Awa"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, u.Role)
	assert.Equal(t, "awa@qg.test", u.ID)

	again, err := svc.Resolve(ctx, auth.Identity{Email: "awa@qg.test", Name: "Autre"})
	require.NoError(t, err)
	assert.Equal(t, "Awa", again.Name, "existing profile is not overwritten")

	up, err := svc.UpdateProfile(ctx, "awa@qg.test", ProfileInput{Name: "Awa D.", Phone: "+221770000000"})
	require.NoError(t, err)
	assert.Equal(t, "Awa D.", up.Name)
	_, err = svc.UpdateProfile(ctx, "awa@qg.test", ProfileInput{Name: "Awa", AvatarURL: "not a url"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	m, err := svc.SetRole(ctx, boss, "awa@qg.test", domain.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, m.Role)
	_, err = svc.SetRole(ctx, boss, "boss@qg.test", domain.RoleClient)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.SetRole(ctx, boss, "awa@qg.test", "superuser")
	assert.ErrorIs(t, err, ErrInvalidInput)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
