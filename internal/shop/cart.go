package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is a snapshot of a product taken when it was added to the cart.
// Later catalog changes, including deletion, do not affect it.
type CartLine struct {
	Product Product   `json:"product"`
	AddedAt time.Time `json:"added_at"`
}

// Cart holds the lines of one session's pending order. It is owned by a
// single event loop and is not safe for concurrent mutation.
type Cart struct {
	Notifier

	lines   []CartLine
	nowFunc func() time.Time // For testing
}

// NewCart creates an empty cart.
func NewCart() *Cart {
	return &Cart{nowFunc: time.Now}
}

// ============================================
// Cart Operations
// ============================================

// Add appends a copy of p. Adding the same product twice yields two lines.
func (c *Cart) Add(p Product) {
	c.lines = append(c.lines, CartLine{Product: p, AddedAt: c.nowFunc()})
	c.publish(Change{Kind: ChangeCart, ProductID: p.ID})
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.lines = nil
	c.publish(Change{Kind: ChangeCart})
}

// ============================================
// Query Methods
// ============================================

// Total returns the sum of the line prices.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Product.Price)
	}
	return total
}

// Lines returns a copy of the cart lines in the order they were added.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines, which is the cart badge count.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty returns true if the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
