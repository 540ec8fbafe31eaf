package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/thomas/kram-terminal-go/internal/shop"
)

// changeBuffer is the catalog subscription buffer per session.
const changeBuffer = 16

// Model is the Bubble Tea model of one storefront session. The catalog is
// shared between sessions; the cart, the shipping selector and the router
// belong to this session only.
type Model struct {
	// Dependencies
	catalog  *shop.Catalog
	cart     *shop.Cart
	selector *shop.Selector
	router   *shop.Router
	changes  *shop.Subscription
	logger   *log.Logger

	// View state
	width  int
	height int
	styles Styles

	// Catalog view
	productList list.Model
	spinner     spinner.Model

	// Product entry form
	productForm *huh.Form
	draft       *shop.ProductDraft

	// Profile view
	favoriteIdx int

	// Checkout view
	focus         shop.Level
	cursors       [3]int
	recipientForm *huh.Form
	recipient     *shop.Recipient
	order         *shop.Order

	// Error handling
	err error
}

// productItem implements list.Item for catalog products.
type productItem struct {
	product shop.Product
	styles  Styles
}

func (i productItem) Title() string {
	if i.product.Favorite {
		return i.product.Name + " " + i.styles.Heart.Render("♥")
	}
	return i.product.Name
}

func (i productItem) Description() string {
	return renderPriceLine(i.product, i.styles)
}

func (i productItem) FilterValue() string {
	return i.product.Name
}

// Messages
type (
	catalogChangedMsg struct {
		change shop.Change
	}
	fetchedMsg struct {
		result shop.Result
	}
)

// NewModel creates the model of a new session. ctx bounds the session:
// cancelling it aborts in-flight address lookups.
func NewModel(ctx context.Context, catalog *shop.Catalog, dir shop.Directory, logger *log.Logger) Model {
	if logger == nil {
		logger = log.Default()
	}
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorWheat)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(colorHighlight).
		BorderLeftForeground(colorHighlight)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(colorSlate).
		BorderLeftForeground(colorHighlight)

	productList := list.New([]list.Item{}, delegate, 0, 0)
	productList.Title = "Catalog"
	productList.SetShowHelp(false)
	productList.SetFilteringEnabled(false)
	productList.SetStatusBarItemName("product", "products")
	productList.KeyMap.Quit.SetEnabled(false)
	productList.KeyMap.ForceQuit.SetEnabled(false)
	productList.Styles.Title = styles.ListTitle

	m := Model{
		catalog:     catalog,
		cart:        shop.NewCart(),
		selector:    shop.NewSelector(ctx, dir),
		router:      &shop.Router{},
		changes:     catalog.Subscribe(changeBuffer),
		logger:      logger,
		styles:      styles,
		productList: productList,
		spinner:     sp,
		draft:       &shop.ProductDraft{},
		recipient:   &shop.Recipient{},
	}
	m.refreshProducts()
	return m
}

// Close releases the catalog subscription. Call it when the session ends.
func (m Model) Close() {
	m.changes.Close()
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForChange(),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.productList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case catalogChangedMsg:
		m.refreshProducts()
		if id := m.router.SelectedProduct(); id != "" {
			if _, ok := m.catalog.Product(id); !ok {
				m.router.CloseProduct()
			}
		}
		m.clampFavoriteIdx()
		return m, m.waitForChange()

	case fetchedMsg:
		m.applyFetch(msg.result)
		return m, nil
	}

	// Forms also need their internal messages (cursor blink, focus).
	switch {
	case m.productForm != nil:
		return m.updateProductForm(msg)
	case m.recipientForm != nil:
		return m.updateRecipientForm(msg)
	}
	return m, nil
}

// ============================================
// Key Handling
// ============================================

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.productForm != nil {
		if msg.String() == "esc" {
			m.productForm = nil
			return m, nil
		}
		return m.updateProductForm(msg)
	}
	if m.recipientForm != nil {
		if msg.String() == "esc" {
			m.recipientForm = nil
			return m, nil
		}
		return m.updateRecipientForm(msg)
	}

	switch m.router.Screen() {
	case shop.ScreenCatalog:
		return m.handleCatalogKeys(msg)
	case shop.ScreenProductDetail:
		return m.handleProductDetailKeys(msg)
	case shop.ScreenCart:
		return m.handleCartKeys(msg)
	case shop.ScreenCheckout:
		return m.handleCheckoutKeys(msg)
	case shop.ScreenProfile:
		return m.handleProfileKeys(msg)
	}

	return m, nil
}

func (m Model) handleCatalogKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "enter":
		if p, ok := m.highlighted(); ok {
			m.router.OpenProduct(p.ID)
		}
		return m, nil

	case "n":
		m.err = nil
		return m, m.openProductForm()

	case "x":
		if p, ok := m.highlighted(); ok {
			m.catalog.DeleteProduct(p.ID)
			m.refreshProducts()
		}
		return m, nil

	case "f":
		if p, ok := m.highlighted(); ok {
			m.catalog.ToggleFavorite(p.ID)
			m.refreshProducts()
		}
		return m, nil

	case "b":
		if p, ok := m.highlighted(); ok {
			m.cart.Add(p)
		}
		return m, nil

	case "c":
		m.router.OpenCart()
		return m, nil

	case "p":
		m.router.OpenProfile()
		m.favoriteIdx = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.productList, cmd = m.productList.Update(msg)
	return m, cmd
}

func (m Model) handleProductDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := m.router.SelectedProduct()

	switch msg.String() {
	case "esc", "backspace":
		m.router.CloseProduct()

	case "b":
		if p, ok := m.catalog.Product(id); ok {
			m.cart.Add(p)
		}

	case "f":
		if _, ok := m.catalog.ToggleFavorite(id); ok {
			m.refreshProducts()
		}
	}

	return m, nil
}

func (m Model) handleCartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.router.CloseCart()

	case "o":
		if !m.cart.IsEmpty() {
			m.router.OpenCheckout()
			m.order = nil
			m.err = nil
		}
	}

	return m, nil
}

func (m Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	favorites := m.catalog.Favorites()

	switch msg.String() {
	case "esc", "backspace":
		m.router.CloseProfile()

	case "up", "k":
		if m.favoriteIdx > 0 {
			m.favoriteIdx--
		}

	case "down", "j":
		if m.favoriteIdx < len(favorites)-1 {
			m.favoriteIdx++
		}

	case "f":
		if m.favoriteIdx < len(favorites) {
			m.catalog.ToggleFavorite(favorites[m.favoriteIdx].ID)
			m.refreshProducts()
			m.clampFavoriteIdx()
		}
	}

	return m, nil
}

// ============================================
// Product Form
// ============================================

func (m *Model) openProductForm() tea.Cmd {
	m.productForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.draft.Name),
			huh.NewInput().
				Title("Price").
				Placeholder("1 299,50").
				Value(&m.draft.Price).
				Validate(optionalPrice),
			huh.NewInput().
				Title("Old price").
				Placeholder("optional").
				Value(&m.draft.OldPrice).
				Validate(optionalPrice),
			huh.NewInput().
				Title("Image URL").
				Placeholder("https://").
				Value(&m.draft.ImageURL).
				Validate(optionalImageURL),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Free shipping?").
				Value(&m.draft.FreeShipping),
			huh.NewConfirm().
				Title("SMART badge?").
				Value(&m.draft.Smart),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return m.productForm.Init()
}

func (m Model) updateProductForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.productForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.productForm = f
	}

	switch m.productForm.State {
	case huh.StateCompleted:
		m.productForm = nil
		m.submitProduct()
	case huh.StateAborted:
		m.productForm = nil
	}
	return m, cmd
}

// submitProduct adds the draft to the catalog. Missing fields are ignored
// silently and leave the draft as typed.
func (m *Model) submitProduct() {
	p, err := m.catalog.AddProduct(m.draft)
	switch {
	case errors.Is(err, shop.ErrMissingFields):
		return
	case err != nil:
		m.err = fmt.Errorf("adding product: %w", err)
		return
	}

	m.err = nil
	m.logger.Info("product added", "id", p.ID, "name", p.Name, "price", p.Price.String())
	m.refreshProducts()
}

func optionalPrice(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, err := shop.ParsePrice(s)
	return err
}

func optionalImageURL(s string) error {
	_, err := shop.ResolveImageURL(s, shop.DefaultPlaceholderImage)
	return err
}

// ============================================
// Catalog Helpers
// ============================================

func (m *Model) refreshProducts() {
	products := m.catalog.Products()
	items := make([]list.Item, len(products))
	for i, p := range products {
		items[i] = productItem{product: p, styles: m.styles}
	}
	m.productList.SetItems(items)
	if n := len(items); n > 0 && m.productList.Index() >= n {
		m.productList.Select(n - 1)
	}
}

// highlighted returns the product under the list cursor.
func (m Model) highlighted() (shop.Product, bool) {
	item, ok := m.productList.SelectedItem().(productItem)
	if !ok {
		return shop.Product{}, false
	}
	return item.product, true
}

func (m *Model) clampFavoriteIdx() {
	n := len(m.catalog.Favorites())
	if m.favoriteIdx >= n {
		m.favoriteIdx = n - 1
	}
	if m.favoriteIdx < 0 {
		m.favoriteIdx = 0
	}
}

// waitForChange blocks on the catalog subscription and delivers the next
// change as a message. It yields nil once the subscription is closed.
func (m Model) waitForChange() tea.Cmd {
	sub := m.changes
	return func() tea.Msg {
		change, ok := <-sub.C()
		if !ok {
			return nil
		}
		return catalogChangedMsg{change: change}
	}
}

// ============================================
// Accessors (for testing)
// ============================================

// GetScreen returns the active screen.
func (m Model) GetScreen() shop.Screen {
	return m.router.Screen()
}

// GetCart returns the session cart.
func (m Model) GetCart() *shop.Cart {
	return m.cart
}

// GetSelector returns the session shipping selector.
func (m Model) GetSelector() *shop.Selector {
	return m.selector
}

// GetOrder returns the last placed order, if the confirmation is showing.
func (m Model) GetOrder() *shop.Order {
	return m.order
}

// GetErr returns the error shown in the status line.
func (m Model) GetErr() error {
	return m.err
}
