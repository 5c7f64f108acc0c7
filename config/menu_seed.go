package config

import "room-service/models"

// DefaultMenu is loaded into an empty store on first start.
func DefaultMenu() []models.MenuItem {
	return []models.MenuItem{
		{Name: "Paneer Tikka", Price: 280, Category: models.CategoryStarters, Veg: true, Popular: true, Description: "Char-grilled cottage cheese with peppers"},
		{Name: "Chicken 65", Price: 320, Category: models.CategoryStarters, Spicy: true, Description: "Crisp fried chicken, curry leaves"},
		{Name: "Dal Makhani", Price: 260, Category: models.CategoryMains, Veg: true, Popular: true, Description: "Black lentils slow cooked overnight"},
		{Name: "Butter Chicken", Price: 380, Category: models.CategoryMains, Popular: true, Description: "Tandoori chicken in tomato butter gravy"},
		{Name: "Butter Naan", Price: 60, Category: models.CategoryBreads, Veg: true},
		{Name: "Tandoori Roti", Price: 40, Category: models.CategoryBreads, Veg: true},
		{Name: "Veg Biryani", Price: 300, Category: models.CategoryRice, Veg: true, Description: "Basmati rice, vegetables, raita"},
		{Name: "Gulab Jamun", Price: 120, Category: models.CategoryDesserts, Veg: true},
		{Name: "Masala Chai", Price: 50, Category: models.CategoryBeverages, Veg: true},
		{Name: "Fresh Lime Soda", Price: 90, Category: models.CategoryBeverages, Veg: true},
	}
}
