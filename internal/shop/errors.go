package shop

import "errors"

// Catalog and cart errors.
var (
	// ErrMissingFields is returned by AddProduct when the name or the price is
	// empty. The product form treats it as a silent no-op.
	ErrMissingFields   = errors.New("name and price are required")
	ErrInvalidPrice    = errors.New("price must be a positive number")
	ErrInvalidOldPrice = errors.New("old price must be a positive number")
	ErrInvalidImageURL = errors.New("image URL must be an http(s) URL")
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateID     = errors.New("duplicate product id")

	ErrCartEmpty         = errors.New("cart is empty")
	ErrAddressIncomplete = errors.New("choose an area, a city and a warehouse first")
	ErrRecipientMissing  = errors.New("recipient name and phone are required")
)

// Shipping selector errors.
var (
	ErrUnknownRef    = errors.New("unknown address reference")
	ErrNotLoaded     = errors.New("options have not been loaded")
	ErrNothingFailed = errors.New("no failed request to retry")
)
