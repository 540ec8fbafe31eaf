package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/thomas/kram-terminal-go/internal/shop"
)

// visibleNodes is how many address options the checkout shows at once.
const visibleNodes = 8

// View renders the current view.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var content string

	if m.productForm != nil {
		content = m.viewProductForm()
	} else {
		switch m.router.Screen() {
		case shop.ScreenCatalog:
			content = m.viewCatalog()
		case shop.ScreenProductDetail:
			content = m.viewProductDetail()
		case shop.ScreenCart:
			content = m.viewCart()
		case shop.ScreenCheckout:
			content = m.viewCheckout()
		case shop.ScreenProfile:
			content = m.viewProfile()
		}
	}

	return m.styles.App.Render(content)
}

func (m Model) viewHeader(title string) string {
	header := m.styles.HeaderTitle.Render(title)
	header += "  " + m.styles.CartBadge.Render(fmt.Sprintf("🛒 %d", m.cart.Len()))
	return m.styles.Header.Render(header)
}

func (m Model) viewCatalog() string {
	var sb strings.Builder

	sb.WriteString(m.viewHeader("Kram"))
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n")
	}

	if m.catalog.Len() == 0 {
		sb.WriteString(m.styles.Subtle.Render("No products yet. Press n to add one."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.productList.View())
	}

	help := "enter details • n new • x delete • f favorite • b add to cart • c cart • p profile • q quit"
	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render(help))

	return sb.String()
}

func (m Model) viewProductForm() string {
	var sb strings.Builder

	sb.WriteString(m.styles.ProductName.Render("New product"))
	sb.WriteString("\n")
	sb.WriteString(m.productForm.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render("esc cancel"))

	return m.styles.Box.Render(sb.String())
}

func (m Model) viewProductDetail() string {
	p, ok := m.catalog.Product(m.router.SelectedProduct())
	if !ok {
		return "Product not found"
	}

	var sb strings.Builder

	sb.WriteString(m.viewHeader("Product"))
	sb.WriteString("\n")

	name := p.Name
	if p.Favorite {
		name += " " + m.styles.Heart.Render("♥")
	}
	sb.WriteString(m.styles.ProductName.Render(name))
	sb.WriteString("\n")
	sb.WriteString(renderPriceLine(p, m.styles))
	sb.WriteString("\n\n")

	sb.WriteString(m.styles.Subtle.Render("Image: "))
	sb.WriteString(p.ImageURL)
	sb.WriteString("\n")
	sb.WriteString(m.styles.Subtle.Render("Added: "))
	sb.WriteString(p.CreatedAt.Format(time.DateTime))
	sb.WriteString("\n")

	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render("b add to cart • f favorite • esc back"))

	return m.styles.Box.Render(sb.String())
}

func (m Model) viewCart() string {
	var sb strings.Builder

	sb.WriteString(m.viewHeader("Cart"))
	sb.WriteString("\n")

	if m.cart.IsEmpty() {
		sb.WriteString(m.styles.Subtle.Render("Your cart is empty"))
		sb.WriteString("\n\n")
		sb.WriteString(m.styles.HelpBar.Render("esc back to catalog"))
		return m.styles.Box.Render(sb.String())
	}

	sb.WriteString(m.renderLines(m.cart.Lines()))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Price.Render("Total: " + shop.FormatPrice(m.cart.Total())))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.HelpBar.Render("o checkout • esc back"))

	return m.styles.Box.Render(sb.String())
}

func (m Model) viewCheckout() string {
	if m.order != nil {
		return m.viewOrderConfirmation()
	}

	var sb strings.Builder

	sb.WriteString(m.viewHeader("Checkout"))
	sb.WriteString("\n")

	for _, l := range levels {
		sb.WriteString(m.renderLevel(l))
		sb.WriteString("\n")
	}

	sb.WriteString(m.styles.Price.Render("Total: " + shop.FormatPrice(m.cart.Total())))
	sb.WriteString("\n")

	if m.recipientForm != nil {
		sb.WriteString("\n")
		sb.WriteString(m.recipientForm.View())
		sb.WriteString("\n")
	}

	if m.err != nil {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err)))
		sb.WriteString("\n")
	}

	help := "l load areas • ↑/↓ move • enter choose • tab/shift+tab level • r retry • esc back"
	if m.recipientForm != nil {
		help = "enter place order • esc edit address"
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render(help))

	return m.styles.Box.Render(sb.String())
}

func (m Model) renderLevel(l shop.Level) string {
	var sb strings.Builder

	focused := l == m.focus && m.recipientForm == nil
	title := strings.ToUpper(l.String()[:1]) + l.String()[1:]
	if focused {
		sb.WriteString(m.styles.LevelFocused.Render("▸ " + title))
	} else {
		sb.WriteString(m.styles.LevelTitle.Render("  " + title))
	}
	if node, ok := m.selector.Chosen(l); ok {
		sb.WriteString(": ")
		sb.WriteString(m.styles.Chosen.Render(node.Label))
	}
	sb.WriteString("\n")

	switch {
	case m.selector.Loading(l):
		sb.WriteString("    ")
		sb.WriteString(m.spinner.View())
		sb.WriteString(" Loading ")
		sb.WriteString(l.String())
		sb.WriteString("...\n")

	case m.selector.Err(l) != nil:
		sb.WriteString("    ")
		sb.WriteString(m.styles.Error.Render(m.selector.Err(l).Error()))
		sb.WriteString(m.styles.Subtle.Render(" (r to retry)"))
		sb.WriteString("\n")

	case focused:
		nodes := m.selector.Nodes(l)
		if len(nodes) == 0 {
			if l == shop.LevelArea {
				sb.WriteString(m.styles.Subtle.Render("    press l to load areas"))
				sb.WriteString("\n")
			}
			break
		}
		start, end := window(len(nodes), m.cursors[l], visibleNodes)
		for i := start; i < end; i++ {
			if i == m.cursors[l] {
				sb.WriteString(m.styles.Highlight.Render("    ▸ " + nodes[i].Label))
			} else {
				sb.WriteString("      " + nodes[i].Label)
			}
			sb.WriteString("\n")
		}
		if len(nodes) > visibleNodes {
			sb.WriteString(m.styles.Subtle.Render(fmt.Sprintf("      %d/%d", m.cursors[l]+1, len(nodes))))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (m Model) viewOrderConfirmation() string {
	o := m.order
	var sb strings.Builder

	sb.WriteString(m.styles.Success.Render("✓ Order placed"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Order %s\n", o.ID))
	sb.WriteString(fmt.Sprintf("Placed: %s\n\n", o.PlacedAt.Format(time.DateTime)))
	sb.WriteString(m.renderLines(o.Lines))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Price.Render("Total: " + shop.FormatPrice(o.Total)))
	sb.WriteString("\n\n")

	sb.WriteString(m.styles.Subtle.Render("Ship to:"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  %s, %s\n", o.Recipient.Name, o.Recipient.Phone))
	sb.WriteString(fmt.Sprintf("  %s, %s\n", o.Area.Label, o.City.Label))
	sb.WriteString(fmt.Sprintf("  %s\n", o.Warehouse.Label))

	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render("Press Enter to continue shopping"))

	return m.styles.Receipt.Render(sb.String())
}

func (m Model) viewProfile() string {
	var sb strings.Builder

	sb.WriteString(m.viewHeader("Profile"))
	sb.WriteString("\n")
	sb.WriteString(m.styles.ListTitle.Render("Favorites"))
	sb.WriteString("\n")

	favorites := m.catalog.Favorites()
	if len(favorites) == 0 {
		sb.WriteString(m.styles.Subtle.Render("No favorites yet"))
		sb.WriteString("\n")
	}
	for i, p := range favorites {
		line := fmt.Sprintf("%s %s  %s", m.styles.Heart.Render("♥"), p.Name, shop.FormatPrice(p.Price))
		if i == m.favoriteIdx {
			sb.WriteString(m.styles.Highlight.Render("▸ ") + line)
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.HelpBar.Render("↑/↓ move • f remove from favorites • esc back"))

	return m.styles.Box.Render(sb.String())
}

func (m Model) renderLines(lines []shop.CartLine) string {
	var sb strings.Builder
	for i, line := range lines {
		sb.WriteString(fmt.Sprintf("%2d. %s  %s\n", i+1, line.Product.Name, shop.FormatPrice(line.Product.Price)))
	}
	return sb.String()
}

// renderPriceLine renders the price with the discount and the badges.
func renderPriceLine(p shop.Product, s Styles) string {
	parts := []string{s.Price.Render(shop.FormatPrice(p.Price))}
	if p.HasDiscount() {
		parts = append(parts,
			s.OldPrice.Render(shop.FormatPrice(p.OldPrice.Decimal)),
			s.Discount.Render(fmt.Sprintf("-%d%%", p.DiscountPercent())))
	}
	if p.FreeShipping {
		parts = append(parts, s.FreeShipping.Render("free shipping"))
	}
	if p.Smart {
		parts = append(parts, s.Smart.Render("SMART"))
	}
	return strings.Join(parts, " ")
}

// window returns the bounds of a size-long slice of n items around cursor.
func window(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}
