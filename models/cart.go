package models

// CartItem is one line of a guest's cart before checkout.
type CartItem struct {
	MenuItem MenuItem `json:"menuItem"`
	Quantity int      `json:"quantity"`
}

// Cart keeps lines in the order they were first added.
type Cart struct {
	lines []CartItem
}

// Set puts qty of item in the cart. A quantity of zero or less removes the line.
func (c *Cart) Set(item MenuItem, qty int) {
	for i := range c.lines {
		if c.lines[i].MenuItem.ID != item.ID {
			continue
		}
		if qty <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
		c.lines[i].Quantity = qty
		c.lines[i].MenuItem = item
		return
	}
	if qty > 0 {
		c.lines = append(c.lines, CartItem{MenuItem: item, Quantity: qty})
	}
}

// Add increments the quantity of item by one.
func (c *Cart) Add(item MenuItem) {
	c.Set(item, c.Quantity(item.ID)+1)
}

func (c *Cart) Quantity(menuItemID int64) int {
	for _, l := range c.lines {
		if l.MenuItem.ID == menuItemID {
			return l.Quantity
		}
	}
	return 0
}

func (c *Cart) Lines() []CartItem {
	out := make([]CartItem, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.MenuItem.Price * float64(l.Quantity)
	}
	return total
}

func (c *Cart) Clear() { c.lines = nil }
