package cart

import (
	"sync"
	"time"
)

// Notifier broadcasts the "an item was just added" stamp. Subscribers get a
// channel with room for one value; a slow subscriber only ever sees the
// newest stamp and publishers never block.
type Notifier struct {
	mu     sync.Mutex
	last   time.Time
	nextID int
	subs   map[int]chan time.Time
}

// Subscription is a registered listener.
type Subscription struct {
	id       int
	notifier *Notifier
	C        <-chan time.Time
}

func newNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan time.Time)}
}

// LastMutatedAt returns the latest published stamp.
func (n *Notifier) LastMutatedAt() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// Subscribe registers a listener. Call Unsubscribe when done.
func (n *Notifier) Subscribe() *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan time.Time, 1)
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	return &Subscription{id: id, notifier: n, C: ch}
}

// Unsubscribe removes the listener and closes its channel. Safe to call twice.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	n := s.notifier
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, ok := n.subs[s.id]; ok {
		delete(n.subs, s.id)
		close(ch)
	}
}

// Subscribers reports the live listener count.
func (n *Notifier) Subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func (n *Notifier) publish(stamp time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.last = stamp
	for _, ch := range n.subs {
		// drop a pending older stamp so the newest one always fits
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- stamp:
		default:
		}
	}
}

func (n *Notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
