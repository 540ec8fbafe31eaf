package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/thomas/kram-terminal-go/internal/shop"
)

var levels = []shop.Level{shop.LevelArea, shop.LevelCity, shop.LevelWarehouse}

func (m Model) handleCheckoutKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.order != nil {
		switch key {
		case "enter", "esc":
			m.order = nil
			m.router.CloseCheckout()
		}
		return m, nil
	}

	switch key {
	case "esc":
		m.router.CloseCheckout()
		return m, nil

	case "l":
		m.err = nil
		m.focus = shop.LevelArea
		m.cursors = [3]int{}
		return m, m.fetch(m.selector.LoadAreas())

	case "r":
		req, err := m.selector.Retry()
		if err != nil {
			return m, nil
		}
		m.focus = req.Level
		return m, m.fetch(req)

	case "up", "k":
		if m.cursors[m.focus] > 0 {
			m.cursors[m.focus]--
		}
		return m, nil

	case "down", "j":
		if m.cursors[m.focus] < len(m.selector.Nodes(m.focus))-1 {
			m.cursors[m.focus]++
		}
		return m, nil

	case "tab":
		if next := m.focus + 1; next <= shop.LevelWarehouse && len(m.selector.Nodes(next)) > 0 {
			m.focus = next
		}
		return m, nil

	case "shift+tab":
		if m.focus > shop.LevelArea {
			m.focus--
		}
		return m, nil

	case "enter":
		return m.chooseFocused()
	}

	return m, nil
}

// chooseFocused picks the node under the cursor of the focused level. Picking
// a warehouse opens the recipient form; submitting it places the order.
func (m Model) chooseFocused() (tea.Model, tea.Cmd) {
	nodes := m.selector.Nodes(m.focus)
	idx := m.cursors[m.focus]
	if idx >= len(nodes) {
		return m, nil
	}
	ref := nodes[idx].Ref

	switch m.focus {
	case shop.LevelArea:
		req, err := m.selector.ChooseArea(ref)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.focus = shop.LevelCity
		m.cursors[shop.LevelCity], m.cursors[shop.LevelWarehouse] = 0, 0
		return m, m.fetch(req)

	case shop.LevelCity:
		req, err := m.selector.ChooseCity(ref)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.focus = shop.LevelWarehouse
		m.cursors[shop.LevelWarehouse] = 0
		return m, m.fetch(req)

	case shop.LevelWarehouse:
		if err := m.selector.ChooseWarehouse(ref); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.openRecipientForm()
	}

	return m, nil
}

// fetch runs the request off the event loop and hands the result back as a
// message.
func (m Model) fetch(req shop.Request) tea.Cmd {
	sel := m.selector
	return func() tea.Msg {
		return fetchedMsg{result: sel.Fetch(req)}
	}
}

func (m *Model) applyFetch(res shop.Result) {
	l := res.Request.Level
	if !m.selector.Apply(res) {
		m.logger.Debug("dropping stale lookup", "level", l, "seq", res.Request.Seq)
		return
	}
	m.cursors[l] = 0
	if err := m.selector.Err(l); err != nil {
		m.logger.Warn("address lookup failed", "level", l, "parent", res.Request.Parent, "err", err)
	}
}

// ============================================
// Recipient Form
// ============================================

func (m *Model) openRecipientForm() tea.Cmd {
	m.recipientForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Recipient name").
				Value(&m.recipient.Name).
				Validate(required("name")),
			huh.NewInput().
				Title("Phone").
				Placeholder("+380").
				Value(&m.recipient.Phone).
				Validate(required("phone")),
		),
	).WithShowHelp(true).WithShowErrors(true)

	return m.recipientForm.Init()
}

func (m Model) updateRecipientForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := m.recipientForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.recipientForm = f
	}

	switch m.recipientForm.State {
	case huh.StateCompleted:
		m.recipientForm = nil
		m.placeOrder()
	case huh.StateAborted:
		m.recipientForm = nil
	}
	return m, cmd
}

func (m *Model) placeOrder() {
	order, err := m.cart.PlaceOrder(m.selector, *m.recipient)
	if err != nil {
		m.err = fmt.Errorf("placing order: %w", err)
		return
	}

	m.err = nil
	m.order = &order
	m.logger.Info("order placed",
		"id", order.ID,
		"lines", len(order.Lines),
		"total", order.Total.String(),
		"warehouse", order.Warehouse.Ref)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}
