package models

import "time"

// Menu categories accepted by the kitchen.
const (
	CategoryStarters  = "starters"
	CategoryMains     = "mains"
	CategoryBreads    = "breads"
	CategoryRice      = "rice"
	CategoryDesserts  = "desserts"
	CategoryBeverages = "beverages"
)

var MenuCategories = []string{
	CategoryStarters,
	CategoryMains,
	CategoryBreads,
	CategoryRice,
	CategoryDesserts,
	CategoryBeverages,
}

func IsMenuCategory(c string) bool {
	for _, v := range MenuCategories {
		if v == c {
			return true
		}
	}
	return false
}

type MenuItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:150;not null" json:"name"`
	Price       float64   `gorm:"not null" json:"price"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:32;index" json:"category"`
	Veg         bool      `gorm:"column:veg;default:false" json:"veg"`
	Image       string    `gorm:"size:255" json:"image"`
	Popular     bool      `gorm:"default:false" json:"popular,omitempty"`
	Spicy       bool      `gorm:"default:false" json:"spicy,omitempty"`
	Disabled    bool      `gorm:"default:false;index" json:"disabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (MenuItem) TableName() string { return "menu_items" }

// MenuItemPatch carries the fields a staff edit may change. Nil means "leave as is".
type MenuItemPatch struct {
	Name        *string  `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Veg         *bool    `json:"veg,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Popular     *bool    `json:"popular,omitempty"`
	Spicy       *bool    `json:"spicy,omitempty"`
	Disabled    *bool    `json:"disabled,omitempty"`

	UpdatedAt time.Time `json:"-"`
}

// Apply copies the non-nil fields onto item.
func (p MenuItemPatch) Apply(item *MenuItem) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Veg != nil {
		item.Veg = *p.Veg
	}
	if p.Image != nil {
		item.Image = *p.Image
	}
	if p.Popular != nil {
		item.Popular = *p.Popular
	}
	if p.Spicy != nil {
		item.Spicy = *p.Spicy
	}
	if p.Disabled != nil {
		item.Disabled = *p.Disabled
	}
	if !p.UpdatedAt.IsZero() {
		item.UpdatedAt = p.UpdatedAt
	}
}

// Columns converts the patch into a gorm Updates map.
func (p MenuItemPatch) Columns() map[string]interface{} {
	m := map[string]interface{}{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Price != nil {
		m["price"] = *p.Price
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Category != nil {
		m["category"] = *p.Category
	}
	if p.Veg != nil {
		m["veg"] = *p.Veg
	}
	if p.Image != nil {
		m["image"] = *p.Image
	}
	if p.Popular != nil {
		m["popular"] = *p.Popular
	}
	if p.Spicy != nil {
		m["spicy"] = *p.Spicy
	}
	if p.Disabled != nil {
		m["disabled"] = *p.Disabled
	}
	if !p.UpdatedAt.IsZero() {
		m["updated_at"] = p.UpdatedAt
	}
	return m
}
