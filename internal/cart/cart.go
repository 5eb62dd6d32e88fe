// Package cart holds the shopping cart: one line per distinct product, quantities always at least one.
//
// A Cart is not safe for concurrent mutation; callers serialize writes.
package cart

import (
	"agromarket/internal/models"

	"github.com/shopspring/decimal"
)

// Cart is an insertion-ordered set of lines keyed by product id.
type Cart struct {
	lines map[string]*models.CartLine
	order []string
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{lines: make(map[string]*models.CartLine)}
}

// FromLines rebuilds a cart from previously exported lines, merging duplicates and dropping non-positive quantities.
func FromLines(lines []models.CartLine) *Cart {
	c := New()
	for _, l := range lines {
		c.AddOrIncrement(l.Product, l.Quantity)
	}
	return c
}

// AddOrIncrement adds quantity units of p, creating the line on first add.
// Non-positive quantities are ignored.
func (c *Cart) AddOrIncrement(p models.Product, quantity int) {
	if quantity <= 0 {
		return
	}
	if line, ok := c.lines[p.ID]; ok {
		line.Quantity += quantity
		return
	}
	c.lines[p.ID] = &models.CartLine{Product: p, Quantity: quantity}
	c.order = append(c.order, p.ID)
}

// SetQuantity replaces the quantity of a line, removing it when quantity <= 0.
// It reports whether the product was in the cart; an absent product is left alone.
func (c *Cart) SetQuantity(productID string, quantity int) bool {
	line, ok := c.lines[productID]
	if !ok {
		return false
	}
	if quantity <= 0 {
		c.Remove(productID)
		return true
	}
	line.Quantity = quantity
	return true
}

// Decrement lowers a line's quantity by one, removing the line when it reaches zero.
func (c *Cart) Decrement(productID string) bool {
	line, ok := c.lines[productID]
	if !ok {
		return false
	}
	return c.SetQuantity(productID, line.Quantity-1)
}

// Remove deletes the line for productID. It reports whether a line was removed.
func (c *Cart) Remove(productID string) bool {
	if _, ok := c.lines[productID]; !ok {
		return false
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Line returns a copy of the line for productID.
func (c *Cart) Line(productID string) (models.CartLine, bool) {
	line, ok := c.lines[productID]
	if !ok {
		return models.CartLine{}, false
	}
	return *line, true
}

// Lines returns copies of all lines in insertion order.
func (c *Cart) Lines() []models.CartLine {
	out := make([]models.CartLine, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Len is the number of distinct products in the cart.
func (c *Cart) Len() int {
	return len(c.order)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

// TotalItemCount is the sum of all line quantities.
func (c *Cart) TotalItemCount() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice is the sum of quantity × unit price over all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.lines[id].TotalPrice())
	}
	return total
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.lines = make(map[string]*models.CartLine)
	c.order = nil
}
