// Package shop holds the storefront state containers: the shared catalog, the
// per-session cart, the cascading shipping address selector and the screen
// router. All mutation goes through named operations and is announced to
// subscribers as a Change.
package shop

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry.
type Product struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Price        decimal.Decimal     `json:"price"`
	OldPrice     decimal.NullDecimal `json:"old_price"`
	ImageURL     string              `json:"image_url"`
	FreeShipping bool                `json:"free_shipping"`
	Smart        bool                `json:"smart"`
	Favorite     bool                `json:"favorite"`
	CreatedAt    time.Time           `json:"created_at"`
}

// HasDiscount reports whether the old price is set and above the current one.
func (p Product) HasDiscount() bool {
	return p.OldPrice.Valid && p.OldPrice.Decimal.GreaterThan(p.Price)
}

// DiscountPercent returns the rounded discount, or 0 when there is none.
func (p Product) DiscountPercent() int {
	if !p.HasDiscount() {
		return 0
	}
	off := p.OldPrice.Decimal.Sub(p.Price).Div(p.OldPrice.Decimal).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

// ProductDraft holds the raw values of the product-entry form.
type ProductDraft struct {
	Name         string
	Price        string
	OldPrice     string
	ImageURL     string
	FreeShipping bool
	Smart        bool
}

// Reset clears every field of the draft.
func (d *ProductDraft) Reset() {
	*d = ProductDraft{}
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithPlaceholderImage sets the image used for products added without one.
func WithPlaceholderImage(url string) CatalogOption {
	return func(c *Catalog) {
		if url != "" {
			c.placeholder = url
		}
	}
}

// WithClock overrides the creation time source.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) {
		c.nowFunc = now
	}
}

// Catalog is the ordered product list shared by every session. Insertion
// order is display order.
type Catalog struct {
	Notifier

	mu          sync.RWMutex
	products    []Product
	placeholder string
	nowFunc     func() time.Time
}

// NewCatalog creates an empty catalog.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{
		placeholder: DefaultPlaceholderImage,
		nowFunc:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddProduct validates the draft and appends a new product with a fresh id.
// It returns ErrMissingFields without touching the catalog when the name or
// the price is empty. On success the draft is reset.
func (c *Catalog) AddProduct(d *ProductDraft) (Product, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Product{}, fmt.Errorf("generating product id: %w", err)
	}

	p, err := c.build(*d)
	if err != nil {
		return Product{}, err
	}
	p.ID = id.String()

	c.mu.Lock()
	c.products = append(c.products, p)
	c.mu.Unlock()

	d.Reset()
	c.publish(Change{Kind: ChangeProductAdded, ProductID: p.ID})
	return p, nil
}

// Seed appends a product with a known id, as read back from an export.
// An empty id gets a fresh one; an id already in the catalog is rejected.
func (c *Catalog) Seed(id string, d ProductDraft, favorite bool) (Product, error) {
	if id == "" {
		fresh, err := uuid.NewV7()
		if err != nil {
			return Product{}, fmt.Errorf("generating product id: %w", err)
		}
		id = fresh.String()
	}

	p, err := c.build(d)
	if err != nil {
		return Product{}, err
	}
	p.ID = id
	p.Favorite = favorite

	c.mu.Lock()
	if c.indexOf(id) >= 0 {
		c.mu.Unlock()
		return Product{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	c.products = append(c.products, p)
	c.mu.Unlock()

	c.publish(Change{Kind: ChangeProductAdded, ProductID: p.ID})
	return p, nil
}

// DeleteProduct removes the product with the given id. It reports whether a
// product was removed; deleting an absent id is a no-op.
func (c *Catalog) DeleteProduct(id string) bool {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return false
	}
	c.products = append(c.products[:i:i], c.products[i+1:]...)
	c.mu.Unlock()

	c.publish(Change{Kind: ChangeProductDeleted, ProductID: id})
	return true
}

// ToggleFavorite flips the favorite flag and returns the updated product.
// The boolean is false when no product has that id.
func (c *Catalog) ToggleFavorite(id string) (Product, bool) {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return Product{}, false
	}
	c.products[i].Favorite = !c.products[i].Favorite
	p := c.products[i]
	c.mu.Unlock()

	c.publish(Change{Kind: ChangeFavorite, ProductID: id})
	return p, true
}

// Products returns a copy of the catalog in display order.
func (c *Catalog) Products() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// Product looks up a product by id.
func (c *Catalog) Product(id string) (Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.products[i], true
	}
	return Product{}, false
}

// Favorites returns the favorite products in display order.
func (c *Catalog) Favorites() []Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Product
	for _, p := range c.products {
		if p.Favorite {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

func (c *Catalog) build(d ProductDraft) (Product, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" || strings.TrimSpace(d.Price) == "" {
		return Product{}, ErrMissingFields
	}

	price, err := ParsePrice(d.Price)
	if err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}

	var oldPrice decimal.NullDecimal
	if strings.TrimSpace(d.OldPrice) != "" {
		op, err := ParsePrice(d.OldPrice)
		if err != nil {
			return Product{}, fmt.Errorf("%w: %v", ErrInvalidOldPrice, err)
		}
		oldPrice = decimal.NewNullDecimal(op)
	}

	image, err := ResolveImageURL(d.ImageURL, c.placeholder)
	if err != nil {
		return Product{}, err
	}

	return Product{
		Name:         name,
		Price:        price,
		OldPrice:     oldPrice,
		ImageURL:     image,
		FreeShipping: d.FreeShipping,
		Smart:        d.Smart,
		CreatedAt:    c.nowFunc(),
	}, nil
}

// indexOf must be called with mu held.
func (c *Catalog) indexOf(id string) int {
	for i := range c.products {
		if c.products[i].ID == id {
			return i
		}
	}
	return -1
}
