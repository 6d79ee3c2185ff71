package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qgsape/internal/repository"
)

const catalogYAML = `
categories:
  - id: homme
    name: Homme
    isVisible: true
  - id: costumes
    name: Costumes
    parentId: homme
    isVisible: true
products:
  - id: costume-croise
    name: Costume croisé
    price: 45000
    categories: [costumes]
    imageUrls: [https://img.test/croise.jpg]
    isNew: true
    variants:
      - {size: M, stock: 4}
      - {size: L, stock: 2}
shippingMethods:
  - id: express-dakar
    name: Express Dakar
    price: 2000
    enabled: true
paymentMethods:
  - id: livraison
    name: Paiement à la livraison
    enabled: true
coupons:
  - code: BIENVENUE
    discount: 10
    expiresAt: 2030-01-01T00:00:00Z
`

func TestSeedCatalog(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	report, err := seedCatalog(ctx, repos, strings.NewReader(catalogYAML), now)
	require.NoError(t, err)
	assert.Equal(t, seedReport{Categories: 2, Products: 1, ShippingMethods: 1, PaymentMethods: 1, Coupons: 1}, report)

	p, err := repos.Products.Get(ctx, "costume-croise")
	require.NoError(t, err)
	assert.Equal(t, int64(45000), p.Price)
	assert.Equal(t, now, p.CreatedAt)
	require.Len(t, p.Variants, 2)

	c, err := repos.Coupons.FindByCode(ctx, "BIENVENUE")
	require.NoError(t, err)
	assert.Equal(t, 2030, c.ExpiresAt.Year())

	// entries with ids are overwritten on a second run
	_, err = seedCatalog(ctx, repos, strings.NewReader(catalogYAML), now)
	require.NoError(t, err)
	cats, _ := repos.Categories.List(ctx)
	assert.Len(t, cats, 2)
}

func TestSeedCatalog_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":   "produits: []\n",
		"missing variant": "products:\n  - name: Chemise\n    price: 1000\n",
		"bad coupon":      "coupons:\n  - code: X\n    discount: 120\n    expiresAt: 2030-01-01T00:00:00Z\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
			_, err := seedCatalog(context.Background(), repos, strings.NewReader(doc), time.Now())
			require.Error(t, err)
			list, _ := repos.Products.List(context.Background())
			assert.Empty(t, list)
		})
	}
}

func TestSeedCatalog_EmptyFile(t *testing.T) {
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	report, err := seedCatalog(context.Background(), repos, strings.NewReader(""), time.Now())
	require.NoError(t, err)
	assert.Zero(t, report)
}
