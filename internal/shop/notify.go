package shop

import "sync"

// ChangeKind identifies which store changed.
type ChangeKind string

const (
	ChangeProductAdded   ChangeKind = "product_added"
	ChangeProductDeleted ChangeKind = "product_deleted"
	ChangeFavorite       ChangeKind = "favorite_toggled"
	ChangeCatalogLoaded  ChangeKind = "catalog_loaded"
	ChangeCart           ChangeKind = "cart_changed"
	ChangeShipping       ChangeKind = "shipping_changed"
)

// Change is published after every store mutation. It only says what moved;
// subscribers re-query the store for current state.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	ProductID string     `json:"product_id,omitempty"`
}

// Notifier fans changes out to subscribers. The zero value is ready to use.
// Sends never block: a subscriber that has not drained its buffer misses
// intermediate changes but still sees the latest one.
type Notifier struct {
	mu     sync.Mutex
	subs   map[int]*Subscription
	nextID int
}

// Subscription receives changes until Close is called.
type Subscription struct {
	id     int
	ch     chan Change
	parent *Notifier
	once   sync.Once
}

// Subscribe registers a new subscriber with the given buffer size (minimum 1).
func (n *Notifier) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]*Subscription)
	}
	n.nextID++
	sub := &Subscription{
		id:     n.nextID,
		ch:     make(chan Change, buffer),
		parent: n,
	}
	n.subs[sub.id] = sub
	return sub
}

// C returns the channel changes are delivered on. It is closed by Close.
func (s *Subscription) C() <-chan Change {
	return s.ch
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.parent.mu.Lock()
		delete(s.parent.subs, s.id)
		s.parent.mu.Unlock()
		close(s.ch)
	})
}

// Subscribers returns the number of open subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func (n *Notifier) publish(c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, sub := range n.subs {
		select {
		case sub.ch <- c:
		default:
			// Drop the oldest pending change so the newest always lands.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- c:
			default:
			}
		}
	}
}
