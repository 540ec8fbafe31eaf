package shop

// Screen is the view currently shown to a session.
type Screen int

const (
	ScreenCatalog Screen = iota
	ScreenProductDetail
	ScreenCart
	ScreenCheckout
	ScreenProfile
)

func (s Screen) String() string {
	switch s {
	case ScreenCatalog:
		return "catalog"
	case ScreenProductDetail:
		return "detail"
	case ScreenCart:
		return "cart"
	case ScreenCheckout:
		return "checkout"
	case ScreenProfile:
		return "profile"
	default:
		return "unknown"
	}
}

// Router picks the active screen from independent navigation flags.
// Open actions clear the other flags; close actions clear only their own.
type Router struct {
	selectedProduct string
	cartOpen        bool
	checkoutOpen    bool
	profileOpen     bool
}

// Screen resolves the flags with priority
// Checkout > Cart > Profile > ProductDetail > Catalog.
func (r *Router) Screen() Screen {
	switch {
	case r.checkoutOpen:
		return ScreenCheckout
	case r.cartOpen:
		return ScreenCart
	case r.profileOpen:
		return ScreenProfile
	case r.selectedProduct != "":
		return ScreenProductDetail
	default:
		return ScreenCatalog
	}
}

// SelectedProduct returns the id shown by the detail screen.
func (r *Router) SelectedProduct() string {
	return r.selectedProduct
}

// OpenProduct shows the detail screen of the product.
func (r *Router) OpenProduct(id string) {
	*r = Router{selectedProduct: id}
}

// OpenCart shows the cart.
func (r *Router) OpenCart() {
	*r = Router{cartOpen: true}
}

// OpenCheckout shows the checkout.
func (r *Router) OpenCheckout() {
	*r = Router{checkoutOpen: true}
}

// OpenProfile shows the favorites profile.
func (r *Router) OpenProfile() {
	*r = Router{profileOpen: true}
}

// CloseProduct leaves the detail screen.
// Close actions clear only their own flag.
func (r *Router) CloseProduct() { r.selectedProduct = "" }

// CloseCart leaves the cart.
func (r *Router) CloseCart() { r.cartOpen = false }

// CloseCheckout leaves the checkout.
func (r *Router) CloseCheckout() { r.checkoutOpen = false }

// CloseProfile leaves the profile.
func (r *Router) CloseProfile() { r.profileOpen = false }

// Back closes whichever screen is active.
func (r *Router) Back() {
	switch r.Screen() {
	case ScreenCheckout:
		r.CloseCheckout()
	case ScreenCart:
		r.CloseCart()
	case ScreenProfile:
		r.CloseProfile()
	case ScreenProductDetail:
		r.CloseProduct()
	}
}
