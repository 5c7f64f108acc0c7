package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-service/models"
)

func TestCreateMenuItem_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.menu.CreateMenuItem(ctx, models.MenuItem{Name: "", Price: 10, Category: models.CategoryMains})
	assert.True(t, IsValidation(err))
	_, err = f.menu.CreateMenuItem(ctx, models.MenuItem{Name: "Tea", Price: 0, Category: models.CategoryBeverages})
	assert.True(t, IsValidation(err))
	_, err = f.menu.CreateMenuItem(ctx, models.MenuItem{Name: "Tea", Price: 20, Category: "soups"})
	assert.True(t, IsValidation(err))

	item, err := f.menu.CreateMenuItem(ctx, models.MenuItem{ID: 42, Name: " Tea ", Price: 20, Category: " Beverages "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, "Tea", item.Name)
	assert.Equal(t, models.CategoryBeverages, item.Category)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestUpdateMenuItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Paneer Tikka", 150)

	price := 165.0
	spicy := true
	updated, err := f.menu.UpdateMenuItem(ctx, item.ID, models.MenuItemPatch{Price: &price, Spicy: &spicy})
	require.NoError(t, err)
	assert.Equal(t, 165.0, updated.Price)
	assert.True(t, updated.Spicy)
	assert.Equal(t, "Paneer Tikka", updated.Name)

	bad := -1.0
	_, err = f.menu.UpdateMenuItem(ctx, item.ID, models.MenuItemPatch{Price: &bad})
	assert.True(t, IsValidation(err))

	_, err = f.menu.UpdateMenuItem(ctx, 999, models.MenuItemPatch{Price: &price})
	assert.True(t, IsNotFound(err))
}

func TestListMenu_HidesDisabledFromGuests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	naan := f.addItem(t, "Butter Naan", 50)
	f.addItem(t, "Jeera Rice", 120)

	_, err := f.menu.SetDisabled(ctx, naan.ID, true)
	require.NoError(t, err)

	guestMenu, err := f.menu.ListMenu(ctx, false)
	require.NoError(t, err)
	require.Len(t, guestMenu, 1)
	assert.Equal(t, "Jeera Rice", guestMenu[0].Name)

	staffMenu, err := f.menu.ListMenu(ctx, true)
	require.NoError(t, err)
	assert.Len(t, staffMenu, 2)

	_, err = f.menu.SetDisabled(ctx, naan.ID, false)
	require.NoError(t, err)
	guestMenu, err = f.menu.ListMenu(ctx, false)
	require.NoError(t, err)
	assert.Len(t, guestMenu, 2)
}

func TestDeleteMenuItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.addItem(t, "Butter Naan", 50)

	require.NoError(t, f.menu.DeleteMenuItem(ctx, item.ID))
	assert.True(t, IsNotFound(f.menu.DeleteMenuItem(ctx, item.ID)))
}

func TestSeedMenu_OnlyWhenEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	defaults := []models.MenuItem{
		{Name: "Masala Chai", Price: 40, Category: models.CategoryBeverages},
		{Name: "Samosa", Price: 60, Category: models.CategoryStarters},
	}

	n, err := f.menu.SeedMenu(ctx, defaults)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.menu.SeedMenu(ctx, defaults)
	require.NoError(t, err)
	assert.Zero(t, n)

	items, err := f.menu.ListMenu(ctx, true)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
