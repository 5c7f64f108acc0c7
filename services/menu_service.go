package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"room-service/models"
	"room-service/store"
)

type MenuService struct {
	Store store.Store
	Now   func() time.Time
}

func NewMenuService(st store.Store) *MenuService {
	return &MenuService{Store: st, Now: func() time.Time { return time.Now().UTC() }}
}

func validateMenuFields(name string, price float64, category string) error {
	if strings.TrimSpace(name) == "" {
		return invalid("name", "name is required")
	}
	if price <= 0 {
		return invalid("price", "price must be positive")
	}
	if !models.IsMenuCategory(category) {
		return invalid("category", fmt.Sprintf("category must be one of %s", strings.Join(models.MenuCategories, ", ")))
	}
	return nil
}

// ListMenu returns the menu. Disabled items are only included for staff.
func (s *MenuService) ListMenu(ctx context.Context, includeDisabled bool) ([]models.MenuItem, error) {
	items, err := s.Store.ListMenuItems(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list menu items", Err: err}
	}
	if includeDisabled {
		return items, nil
	}
	out := make([]models.MenuItem, 0, len(items))
	for _, it := range items {
		if !it.Disabled {
			out = append(out, it)
		}
	}
	return out, nil
}

func normalizeNewItem(item models.MenuItem) (models.MenuItem, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.ToLower(strings.TrimSpace(item.Category))
	return item, validateMenuFields(item.Name, item.Price, item.Category)
}

// CheckNewItem reports whether CreateMenuItem would accept item, without writing.
func (s *MenuService) CheckNewItem(item models.MenuItem) error {
	_, err := normalizeNewItem(item)
	return err
}

func (s *MenuService) CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	item, err := normalizeNewItem(item)
	if err != nil {
		return models.MenuItem{}, err
	}
	now := s.Now()
	item.ID = 0
	item.CreatedAt = now
	item.UpdatedAt = now

	created, err := s.Store.InsertMenuItem(ctx, item)
	if err != nil {
		return models.MenuItem{}, &PersistenceError{Op: "insert menu item", Err: err}
	}
	log.Info().Int64("menu_item_id", created.ID).Str("name", created.Name).Msg("menu item created")
	return created, nil
}

// checkPatch normalizes patch and validates the item it would produce.
func (s *MenuService) checkPatch(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItemPatch, error) {
	current, err := s.Store.GetMenuItem(ctx, id)
	if err != nil {
		return patch, storeErr("get menu item", "menu item", fmt.Sprint(id), err)
	}
	if patch.Category != nil {
		c := strings.ToLower(strings.TrimSpace(*patch.Category))
		patch.Category = &c
	}
	if patch.Name != nil {
		n := strings.TrimSpace(*patch.Name)
		patch.Name = &n
	}
	preview := current
	patch.Apply(&preview)
	return patch, validateMenuFields(preview.Name, preview.Price, preview.Category)
}

// CheckUpdate reports whether UpdateMenuItem would accept patch, without writing.
func (s *MenuService) CheckUpdate(ctx context.Context, id int64, patch models.MenuItemPatch) error {
	_, err := s.checkPatch(ctx, id, patch)
	return err
}

func (s *MenuService) UpdateMenuItem(ctx context.Context, id int64, patch models.MenuItemPatch) (models.MenuItem, error) {
	patch, err := s.checkPatch(ctx, id, patch)
	if err != nil {
		return models.MenuItem{}, err
	}

	patch.UpdatedAt = s.Now()
	updated, err := s.Store.UpdateMenuItem(ctx, id, patch)
	if err != nil {
		return models.MenuItem{}, storeErr("update menu item", "menu item", fmt.Sprint(id), err)
	}
	return updated, nil
}

// SetDisabled hides or shows an item for ordering. It never deletes it.
func (s *MenuService) SetDisabled(ctx context.Context, id int64, disabled bool) (models.MenuItem, error) {
	updated, err := s.Store.UpdateMenuItem(ctx, id, models.MenuItemPatch{Disabled: &disabled, UpdatedAt: s.Now()})
	if err != nil {
		return models.MenuItem{}, storeErr("update menu item", "menu item", fmt.Sprint(id), err)
	}
	return updated, nil
}

// DeleteMenuItem removes the item permanently. Orders keep their own copies of
// the line items, so history is unaffected.
func (s *MenuService) DeleteMenuItem(ctx context.Context, id int64) error {
	if err := s.Store.DeleteMenuItem(ctx, id); err != nil {
		return storeErr("delete menu item", "menu item", fmt.Sprint(id), err)
	}
	log.Info().Int64("menu_item_id", id).Msg("menu item deleted")
	return nil
}

// SeedMenu fills an empty menu with the house defaults.
func (s *MenuService) SeedMenu(ctx context.Context, items []models.MenuItem) (int, error) {
	existing, err := s.Store.ListMenuItems(ctx)
	if err != nil {
		return 0, &PersistenceError{Op: "list menu items", Err: err}
	}
	if len(existing) > 0 {
		return 0, nil
	}
	n := 0
	for _, it := range items {
		if _, err := s.CreateMenuItem(ctx, it); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
