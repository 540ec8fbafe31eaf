package shop

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipient is the person collecting the parcel at the warehouse.
type Recipient struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Order is the confirmation record of a checked-out cart.
type Order struct {
	ID        string          `json:"id"`
	Lines     []CartLine      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	Area      AddressNode     `json:"area"`
	City      AddressNode     `json:"city"`
	Warehouse AddressNode     `json:"warehouse"`
	Recipient Recipient       `json:"recipient"`
	PlacedAt  time.Time       `json:"placed_at"`
}

// PlaceOrder checks out the cart to the warehouse chosen in sel. The cart
// must not be empty, the selector must be in StateWarehouseChosen and the
// recipient needs a name and a phone. On success the cart is cleared.
func (c *Cart) PlaceOrder(sel *Selector, r Recipient) (Order, error) {
	if c.IsEmpty() {
		return Order{}, ErrCartEmpty
	}
	if sel.State() != StateWarehouseChosen {
		return Order{}, ErrAddressIncomplete
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Name == "" || r.Phone == "" {
		return Order{}, ErrRecipientMissing
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Order{}, fmt.Errorf("generating order id: %w", err)
	}

	area, _ := sel.Area()
	city, _ := sel.City()
	warehouse, _ := sel.Warehouse()

	order := Order{
		ID:        id.String(),
		Lines:     c.Lines(),
		Total:     c.Total(),
		Area:      area,
		City:      city,
		Warehouse: warehouse,
		Recipient: r,
		PlacedAt:  c.nowFunc(),
	}
	c.Clear()
	return order, nil
}
