package shop

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/idna"
)

// CurrencySymbol is appended to every rendered price.
const CurrencySymbol = "₴"

// DefaultPlaceholderImage is used when a product is added without an image.
const DefaultPlaceholderImage = "https://via.placeholder.com/300x300.png?text=No+Image"

var priceSuffixes = []string{CurrencySymbol, "грн.", "грн", "UAH", "uah"}

// maxPrice is the exclusive upper bound of a price.
var maxPrice = decimal.New(1, 12)

// ParsePrice converts user input such as "1 299,50 ₴" into a decimal.
// It accepts a comma as the decimal separator and spaces as thousands
// separators. Empty input, non-numeric input, exponent notation, values <= 0,
// values of 10^12 and above and fractions finer than a kopiyka are rejected.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	for _, suffix := range priceSuffixes {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty price")
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%q: exponent notation is not allowed", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %q: %w", raw, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%q is not positive", raw)
	}
	if !d.LessThan(maxPrice) {
		return decimal.Zero, fmt.Errorf("%q is too large", raw)
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, fmt.Errorf("%q is finer than a kopiyka", raw)
	}
	return d, nil
}

// FormatPrice renders a price the way the storefront shows it: no decimals for
// whole amounts, two otherwise.
func FormatPrice(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return d.Truncate(0).String() + " " + CurrencySymbol
	}
	return d.StringFixed(2) + " " + CurrencySymbol
}

// ResolveImageURL returns placeholder for empty input. Otherwise raw must be an
// absolute http(s) URL; internationalized host names are converted to their
// ASCII form.
func ResolveImageURL(raw, placeholder string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if placeholder == "" {
			placeholder = DefaultPlaceholderImage
		}
		return placeholder, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", ErrInvalidImageURL
	}
	host := u.Hostname()
	if host == "" {
		return "", ErrInvalidImageURL
	}

	asciiHost, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}
	if port := u.Port(); port != "" {
		u.Host = asciiHost + ":" + port
	} else {
		u.Host = asciiHost
	}
	return u.String(), nil
}
