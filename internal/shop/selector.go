package shop

import (
	"context"
	"fmt"
)

// AddressNode is one option of the shipping address cascade.
type AddressNode struct {
	Ref   string `json:"ref"`
	Label string `json:"label"`
}

// Directory supplies the options for each level of the cascade.
type Directory interface {
	Areas(ctx context.Context) ([]AddressNode, error)
	Cities(ctx context.Context, areaRef string) ([]AddressNode, error)
	Warehouses(ctx context.Context, cityRef string) ([]AddressNode, error)
}

// Level is a depth in the address cascade.
type Level int

const (
	LevelArea Level = iota
	LevelCity
	LevelWarehouse
)

func (l Level) String() string {
	switch l {
	case LevelArea:
		return "areas"
	case LevelCity:
		return "cities"
	case LevelWarehouse:
		return "warehouses"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// State is the selector's position in the cascade.
type State int

const (
	StateNoArea State = iota
	StateAreaChosen
	StateCityChosen
	StateWarehouseChosen
)

func (s State) String() string {
	switch s {
	case StateNoArea:
		return "NoArea"
	case StateAreaChosen:
		return "AreaChosen"
	case StateCityChosen:
		return "CityChosen"
	case StateWarehouseChosen:
		return "WarehouseChosen"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Request is a fetch issued by the selector. Seq increases with every request
// at the same level; only the latest one is ever applied.
type Request struct {
	Level  Level
	Parent string
	Seq    uint64

	ctx context.Context
}

// Context is cancelled when a newer request supersedes this one.
func (r Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Result is the outcome of Fetch, handed back to Apply.
type Result struct {
	Request Request
	Nodes   []AddressNode
	Err     error
}

type level struct {
	nodes   []AddressNode
	chosen  AddressNode
	seq     uint64
	loading bool
	err     error
	parent  string
	cancel  context.CancelFunc
}

// Selector is the cascading area -> city -> warehouse picker of one session.
//
// Issuing operations (LoadAreas, ChooseArea, ChooseCity, Retry) and Apply must
// be called from the owning event loop. Fetch only reads the directory and
// may run on any goroutine.
type Selector struct {
	Notifier

	dir    Directory
	base   context.Context
	levels [3]level
}

// NewSelector creates a selector in StateNoArea. Requests are derived from
// ctx, so cancelling it aborts every in-flight fetch.
func NewSelector(ctx context.Context, dir Directory) *Selector {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Selector{dir: dir, base: ctx}
}

// ============================================
// Transitions
// ============================================

// LoadAreas starts (or restarts) the cascade by requesting the area list.
// Any previous selection is discarded.
func (s *Selector) LoadAreas() Request {
	return s.issue(LevelArea, "")
}

// ChooseArea selects an area from the loaded list and requests its cities.
func (s *Selector) ChooseArea(ref string) (Request, error) {
	node, err := s.lookup(LevelArea, ref)
	if err != nil {
		return Request{}, err
	}
	s.levels[LevelArea].chosen = node
	return s.issue(LevelCity, node.Ref), nil
}

// ChooseCity selects a city of the chosen area and requests its warehouses.
func (s *Selector) ChooseCity(ref string) (Request, error) {
	node, err := s.lookup(LevelCity, ref)
	if err != nil {
		return Request{}, err
	}
	s.levels[LevelCity].chosen = node
	return s.issue(LevelWarehouse, node.Ref), nil
}

// ChooseWarehouse selects a warehouse of the chosen city. No fetch follows.
func (s *Selector) ChooseWarehouse(ref string) error {
	node, err := s.lookup(LevelWarehouse, ref)
	if err != nil {
		return err
	}
	s.levels[LevelWarehouse].chosen = node
	s.publish(Change{Kind: ChangeShipping})
	return nil
}

// Retry re-issues the failed request closest to the top of the cascade.
func (s *Selector) Retry() (Request, error) {
	for l := LevelArea; l <= LevelWarehouse; l++ {
		if lv := &s.levels[l]; lv.err != nil {
			return s.issue(l, lv.parent), nil
		}
	}
	return Request{}, ErrNothingFailed
}

// Fetch runs the request against the directory. It does not touch selector
// state; pass the result to Apply on the event loop.
func (s *Selector) Fetch(req Request) Result {
	ctx := req.Context()
	var (
		nodes []AddressNode
		err   error
	)
	switch req.Level {
	case LevelArea:
		nodes, err = s.dir.Areas(ctx)
	case LevelCity:
		nodes, err = s.dir.Cities(ctx, req.Parent)
	case LevelWarehouse:
		nodes, err = s.dir.Warehouses(ctx, req.Parent)
	default:
		err = fmt.Errorf("unknown level %d", int(req.Level))
	}
	return Result{Request: req, Nodes: nodes, Err: err}
}

// Apply stores a fetch result if it answers the latest request at its level
// and reports whether it did. Superseded results are dropped whatever order
// they complete in.
func (s *Selector) Apply(res Result) bool {
	l := res.Request.Level
	if l < LevelArea || l > LevelWarehouse {
		return false
	}
	lv := &s.levels[l]
	if res.Request.Seq != lv.seq || !lv.loading {
		return false
	}

	lv.loading = false
	if lv.cancel != nil {
		lv.cancel()
		lv.cancel = nil
	}
	if res.Err != nil {
		lv.nodes = nil
		lv.err = fmt.Errorf("loading %s: %w", l, res.Err)
	} else {
		lv.nodes = append([]AddressNode(nil), res.Nodes...)
		lv.err = nil
	}
	s.publish(Change{Kind: ChangeShipping})
	return true
}

// ============================================
// Query Methods
// ============================================

// State derives the cascade position from the current selections.
func (s *Selector) State() State {
	switch {
	case s.levels[LevelWarehouse].chosen.Ref != "":
		return StateWarehouseChosen
	case s.levels[LevelCity].chosen.Ref != "":
		return StateCityChosen
	case s.levels[LevelArea].chosen.Ref != "":
		return StateAreaChosen
	default:
		return StateNoArea
	}
}

// Nodes returns a copy of the options loaded at a level.
func (s *Selector) Nodes(l Level) []AddressNode {
	if l < LevelArea || l > LevelWarehouse {
		return nil
	}
	return append([]AddressNode(nil), s.levels[l].nodes...)
}

func (s *Selector) Areas() []AddressNode      { return s.Nodes(LevelArea) }
func (s *Selector) Cities() []AddressNode     { return s.Nodes(LevelCity) }
func (s *Selector) Warehouses() []AddressNode { return s.Nodes(LevelWarehouse) }

// Chosen returns the selection at a level.
func (s *Selector) Chosen(l Level) (AddressNode, bool) {
	if l < LevelArea || l > LevelWarehouse {
		return AddressNode{}, false
	}
	n := s.levels[l].chosen
	return n, n.Ref != ""
}

func (s *Selector) Area() (AddressNode, bool)      { return s.Chosen(LevelArea) }
func (s *Selector) City() (AddressNode, bool)      { return s.Chosen(LevelCity) }
func (s *Selector) Warehouse() (AddressNode, bool) { return s.Chosen(LevelWarehouse) }

// Loading reports whether a request at the level is in flight.
func (s *Selector) Loading(l Level) bool {
	if l < LevelArea || l > LevelWarehouse {
		return false
	}
	return s.levels[l].loading
}

// Err returns the error of the last failed fetch at the level, if any.
func (s *Selector) Err(l Level) error {
	if l < LevelArea || l > LevelWarehouse {
		return nil
	}
	return s.levels[l].err
}

// ============================================
// Internals
// ============================================

// issue resets the level and everything below it, cancels their in-flight
// requests and returns a new request for the level.
func (s *Selector) issue(l Level, parent string) Request {
	for d := l; d <= LevelWarehouse; d++ {
		s.reset(d)
	}

	lv := &s.levels[l]
	ctx, cancel := context.WithCancel(s.base)
	lv.loading = true
	lv.parent = parent
	lv.cancel = cancel

	s.publish(Change{Kind: ChangeShipping})
	return Request{Level: l, Parent: parent, Seq: lv.seq, ctx: ctx}
}

// reset bumps the level's sequence so that any outstanding result is stale.
func (s *Selector) reset(l Level) {
	lv := &s.levels[l]
	if lv.cancel != nil {
		lv.cancel()
	}
	*lv = level{seq: lv.seq + 1}
}

func (s *Selector) lookup(l Level, ref string) (AddressNode, error) {
	lv := &s.levels[l]
	if len(lv.nodes) == 0 {
		return AddressNode{}, fmt.Errorf("choosing from %s: %w", l, ErrNotLoaded)
	}
	for _, n := range lv.nodes {
		if n.Ref == ref {
			return n, nil
		}
	}
	return AddressNode{}, fmt.Errorf("%w: %q in %s", ErrUnknownRef, ref, l)
}
