// Package notify fans state changes out to subscribers in the order the
// changes were made.
package notify

import "sync"

// Ticket fixes the delivery position of one change.
type Ticket uint64

// Notifier delivers values of T to subscribers. The zero value is ready to use.
//
// A writer calls Reserve while it still holds the lock that orders its
// writes, releases that lock, then calls Deliver. Listeners therefore run
// without the writer's lock held and may read back the writer's state, and
// deliveries still follow write order. Every reserved ticket must be
// delivered. Listeners must not publish on the same Notifier.
type Notifier[T any] struct {
	mu        sync.Mutex
	cond      *sync.Cond
	issued    uint64
	delivered uint64
	next      int
	fns       map[int]func(T)
}

// Subscribe registers fn and returns a func that removes it.
func (n *Notifier[T]) Subscribe(fn func(T)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fns == nil {
		n.fns = make(map[int]func(T))
	}
	id := n.next
	n.next++
	n.fns[id] = fn
	return func() {
		n.mu.Lock()
		delete(n.fns, id)
		n.mu.Unlock()
	}
}

// Reserve takes the next delivery position.
func (n *Notifier[T]) Reserve() Ticket {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.issued++
	return Ticket(n.issued)
}

// Deliver runs every listener with v once all earlier tickets have been
// delivered.
func (n *Notifier[T]) Deliver(t Ticket, v T) {
	n.mu.Lock()
	if n.cond == nil {
		n.cond = sync.NewCond(&n.mu)
	}
	for n.delivered+1 != uint64(t) {
		n.cond.Wait()
	}
	fns := make([]func(T), 0, len(n.fns))
	for id := 0; id < n.next; id++ {
		if fn, ok := n.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}

	n.mu.Lock()
	n.delivered = uint64(t)
	n.cond.Broadcast()
	n.mu.Unlock()
}

// Publish reserves and delivers in one step, for writers with no lock of
// their own to order against.
func (n *Notifier[T]) Publish(v T) {
	n.Deliver(n.Reserve(), v)
}
