package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qgsape/internal/domain"
)

func shirt() domain.Product {
	return domain.Product{
		ID:        "p1",
		Name:      "Chemise bazin",
		Price:     5000,
		ImageURLs: []string{"https://img.test/1.jpg"},
		Variants:  []domain.Variant{{Size: "M", Stock: 4}, {Size: "L", Stock: 2}},
	}
}

func TestAdd_MergesSameIdentity(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(shirt(), "M", "blanc", 1))
	require.NoError(t, c.Add(shirt(), "M", "blanc", 2))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(3), c.Lines[0].Quantity)
	assert.Equal(t, "https://img.test/1.jpg", c.Lines[0].ImageURL)
}

func TestAdd_DifferentSizeOrColorIsNewLine(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(shirt(), "M", "blanc", 1))
	require.NoError(t, c.Add(shirt(), "L", "blanc", 1))
	require.NoError(t, c.Add(shirt(), "M", "bleu", 1))
	assert.Len(t, c.Lines, 3)
}

func TestAdd_Rejections(t *testing.T) {
	var c Cart
	assert.ErrorIs(t, c.Add(shirt(), "M", "", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, c.Add(shirt(), "XXL", "", 1), ErrUnknownVariant)
	assert.True(t, c.Empty())
}

func TestUpdateQuantity_ZeroOrLessRemoves(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(shirt(), "M", "", 2))
	key := LineKey{ProductID: "p1", Size: "M"}

	require.NoError(t, c.UpdateQuantity(key, 5))
	assert.Equal(t, int64(5), c.Lines[0].Quantity)

	require.NoError(t, c.UpdateQuantity(key, 0))
	assert.True(t, c.Empty())

	require.NoError(t, c.Add(shirt(), "M", "", 1))
	require.NoError(t, c.UpdateQuantity(key, -3))
	assert.True(t, c.Empty())

	assert.ErrorIs(t, c.UpdateQuantity(key, 1), ErrLineNotFound)
}

func TestItems(t *testing.T) {
	var c Cart
	require.NoError(t, c.Add(shirt(), "L", "noir", 2))
	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, domain.OrderItem{
		ProductID: "p1", Name: "Chemise bazin", Quantity: 2, Price: 5000,
		Variant: domain.Variant{Size: "L"}, Color: "noir", ImageURL: "https://img.test/1.jpg",
	}, items[0])
}

func TestStore_ModifyIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := s.New(ctx)

	_, err := s.Modify(ctx, c.ID, func(c *Cart) error { return c.Add(shirt(), "M", "", 1) })
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Modify(ctx, c.ID, func(c *Cart) error {
		c.Clear()
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 1, "failed modification must not be kept")

	got.Lines[0].Quantity = 99
	again, _ := s.Get(ctx, c.ID)
	assert.Equal(t, int64(1), again.Lines[0].Quantity)

	s.Delete(ctx, c.ID)
	_, err = s.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestStore_StaleCartExpires(t *testing.T) {
	ctx := context.Background()
	s := NewExpiringStore(10, 20*time.Millisecond)
	c := s.New(ctx)

	time.Sleep(60 * time.Millisecond)

	_, err := s.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
	_, err = s.Modify(ctx, c.ID, func(c *Cart) error { return c.Add(shirt(), "M", "", 1) })
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestStore_ModifyKeepsCartAlive(t *testing.T) {
	ctx := context.Background()
	s := NewExpiringStore(10, 80*time.Millisecond)
	c := s.New(ctx)

	for i := 0; i < 3; i++ {
		time.Sleep(40 * time.Millisecond)
		_, err := s.Modify(ctx, c.ID, func(c *Cart) error { return c.Add(shirt(), "M", "", 1) })
		require.NoError(t, err)
	}
	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Lines[0].Quantity)
}

func TestStore_EvictsBeyondCapacity(t *testing.T) {
	ctx := context.Background()
	s := NewExpiringStore(2, time.Hour)
	first := s.New(ctx)
	s.New(ctx)
	s.New(ctx)

	_, err := s.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestStore_Settle(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	c := s.New(ctx)
	c, err := s.Modify(ctx, c.ID, func(c *Cart) error { return c.Add(shirt(), "M", "", 2) })
	require.NoError(t, err)
	ordered := append([]Line(nil), c.Lines...)

	// a line added after the order was read stays in the cart
	_, err = s.Modify(ctx, c.ID, func(c *Cart) error {
		if err := c.Add(shirt(), "M", "", 1); err != nil {
			return err
		}
		return c.Add(shirt(), "L", "noir", 1)
	})
	require.NoError(t, err)

	require.NoError(t, s.Settle(ctx, c.ID, ordered))
	got, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, int64(1), got.Lines[0].Quantity)
	assert.Equal(t, "L", got.Lines[1].Size)

	require.NoError(t, s.Settle(ctx, c.ID, got.Lines))
	_, err = s.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)

	assert.ErrorIs(t, s.Settle(ctx, "missing", nil), ErrCartNotFound)
}
