package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qgsape/internal/cart"
	"qgsape/internal/repository"
)

func lineKey(productID, size, color string) cart.LineKey {
	return cart.LineKey{ProductID: productID, Size: size, Color: color}
}

func TestCartService_AddMergesAndPrices(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, _ := f.products.Create(ctx, costume(5, 5))
	c := f.carts.Create(ctx)

	_, err := f.carts.AddItem(ctx, c.ID, AddItemInput{LineKey: lineKey(p.ID, "M", "bleu"), Quantity: 1})
	require.NoError(t, err)
	v, err := f.carts.AddItem(ctx, c.ID, AddItemInput{LineKey: lineKey(p.ID, "M", "bleu"), Quantity: 1})
	require.NoError(t, err)

	require.Len(t, v.Lines, 1)
	assert.Equal(t, int64(2), v.Lines[0].Quantity)
	assert.Equal(t, int64(10000), v.Subtotal)
}

func TestCartService_StockAndErrors(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, _ := f.products.Create(ctx, costume(2, 0))
	c := f.carts.Create(ctx)

	_, err := f.carts.AddItem(ctx, c.ID, AddItemInput{LineKey: lineKey(p.ID, "M", "bleu"), Quantity: 2})
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c.ID, AddItemInput{LineKey: lineKey(p.ID, "M", "noir"), Quantity: 1})
	assert.ErrorIs(t, err, ErrNotEnoughStock)
	_, err = f.carts.AddItem(ctx, c.ID, AddItemInput{LineKey: lineKey(p.ID, "XL", ""), Quantity: 1})
	assert.ErrorIs(t, err, cart.ErrUnknownVariant)
	_, err = f.carts.AddItem(ctx, c.ID, AddItemInput{LineKey: lineKey("missing", "M", ""), Quantity: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.carts.AddItem(ctx, "no-cart", AddItemInput{LineKey: lineKey(p.ID, "M", ""), Quantity: 1})
	assert.ErrorIs(t, err, cart.ErrCartNotFound)

	v, err := f.carts.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, v.Lines, 1, "rejected adds leave the cart unchanged")

	_, err = f.carts.UpdateItem(ctx, c.ID, lineKey(p.ID, "M", "bleu"), 3)
	assert.ErrorIs(t, err, ErrNotEnoughStock)
}

func TestCartService_UpdateToZeroRemoves(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	p, _ := f.products.Create(ctx, costume(5, 5))
	c := f.carts.Create(ctx)
	key := lineKey(p.ID, "L", "")

	_, err := f.carts.AddItem(ctx, c.ID, AddItemInput{LineKey: key, Quantity: 2})
	require.NoError(t, err)
	v, err := f.carts.UpdateItem(ctx, c.ID, key, 0)
	require.NoError(t, err)
	assert.Empty(t, v.Lines)
	assert.Equal(t, int64(0), v.Subtotal)

	_, err = f.carts.RemoveItem(ctx, c.ID, key)
	assert.ErrorIs(t, err, cart.ErrLineNotFound)
}
