package cart

import (
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a detached copy of the cart state.
type Snapshot struct {
	Items         []LineItem      `json:"items"`
	TotalCount    int             `json:"total_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
	LastMutatedAt time.Time       `json:"last_mutated_at"`
}

// Store holds one session's cart. Operations are serialized, never fail and
// never block on I/O. Bad input is normalized or ignored.
type Store struct {
	mu            sync.Mutex
	items         []LineItem
	lastMutatedAt time.Time
	lastUsedAt    time.Time
	notifier      *Notifier
	now           func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty cart.
func NewStore(opts ...Option) *Store {
	s := &Store{
		items:    []LineItem{},
		notifier: newNotifier(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastUsedAt = s.now()
	return s
}

// AddItem merges qty of p under variant, appending a new row when the
// (product, variant) pair is not present yet. A blank product ID is ignored.
// Every accepted add stamps LastMutatedAt and notifies subscribers.
func (s *Store) AddItem(p Product, qty any, variant string) {
	if strings.TrimSpace(p.ID) == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	add := ParseQuantity(qty)
	key := itemKey{productID: p.ID, variant: variant}
	if idx := s.indexOf(key); idx >= 0 {
		s.items[idx].Quantity += add
	} else {
		item := NewLineItem(p, add, variant)
		s.items = append(s.items, item)
	}

	s.lastMutatedAt = s.nextStamp()
	s.notifier.publish(s.lastMutatedAt)
}

// SetQuantity replaces the quantity of an existing row. Zero or less removes
// the row. Missing rows are never created and nothing is stamped.
func (s *Store) SetQuantity(productID string, qty any, variant string) {
	target, ok := parseTargetQuantity(qty)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	idx := s.indexOf(itemKey{productID: productID, variant: variant})
	if idx < 0 {
		return
	}
	if target <= 0 {
		s.removeAt(idx)
		return
	}
	s.items[idx].Quantity = target
}

// RemoveItem drops the matching row if present.
func (s *Store) RemoveItem(productID, variant string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	if idx := s.indexOf(itemKey{productID: productID, variant: variant}); idx >= 0 {
		s.removeAt(idx)
	}
}

// Clear empties the cart. LastMutatedAt is left as is.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.items = []LineItem{}
}

// Snapshot returns a deep copy of the current state with derived totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]LineItem, len(s.items))
	copy(items, s.items)
	return Snapshot{
		Items:         items,
		TotalCount:    totalCount(items),
		TotalValue:    totalValue(items),
		LastMutatedAt: s.lastMutatedAt,
	}
}

// Items returns a copy of the rows in insertion order.
func (s *Store) Items() []LineItem {
	return s.Snapshot().Items
}

// TotalCount is the sum of row quantities.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalCount(s.items)
}

// TotalValue is the exact sum of unit price times quantity.
func (s *Store) TotalValue() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalValue(s.items)
}

// LastMutatedAt is the stamp of the latest accepted add, zero before any.
func (s *Store) LastMutatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastMutatedAt
}

// Notifier exposes the add signal.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

func (s *Store) touch() {
	s.lastUsedAt = s.now()
}

// nextStamp keeps stamps strictly increasing even when the clock does not
// advance between two adds.
func (s *Store) nextStamp() time.Time {
	now := s.now()
	if !now.After(s.lastMutatedAt) {
		now = s.lastMutatedAt.Add(time.Nanosecond)
	}
	return now
}

func (s *Store) indexOf(key itemKey) int {
	for i, item := range s.items {
		if item.key() == key {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(idx int) {
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
}

func totalCount(items []LineItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

func totalValue(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
