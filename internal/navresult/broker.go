// Package navresult hands a one-shot result from one screen back to the
// screen that opened it (for example, a location picked on the map).
package navresult

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownTicket    = errors.New("navigation ticket is unknown or already closed")
	ErrAlreadyDelivered = errors.New("navigation result already delivered")
	ErrCanceled         = errors.New("navigation canceled")
)

type slot[T any] struct {
	ch        chan T
	delivered bool
}

// Broker keeps one pending slot per open navigation transaction.
type Broker[T any] struct {
	mu    sync.Mutex
	slots map[string]*slot[T]
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{slots: make(map[string]*slot[T])}
}

// Open starts a transaction and returns its ticket.
func (b *Broker[T]) Open() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := uuid.NewString()
	b.slots[key] = &slot[T]{ch: make(chan T, 1)}
	return key
}

// Deliver hands v to whoever awaits ticket. Only the first delivery counts.
func (b *Broker[T]) Deliver(ticket string, v T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[ticket]
	if !ok {
		return ErrUnknownTicket
	}
	if s.delivered {
		return ErrAlreadyDelivered
	}
	s.delivered = true
	s.ch <- v
	return nil
}

// Await blocks until a result is delivered, the ticket is canceled, or ctx
// ends. The ticket is closed afterwards.
func (b *Broker[T]) Await(ctx context.Context, ticket string) (T, error) {
	var zero T
	b.mu.Lock()
	s, ok := b.slots[ticket]
	b.mu.Unlock()
	if !ok {
		return zero, ErrUnknownTicket
	}
	defer b.close(ticket)

	select {
	case v, open := <-s.ch:
		if !open {
			return zero, ErrCanceled
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cancel closes the ticket, releasing any waiter with ErrCanceled.
func (b *Broker[T]) Cancel(ticket string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.slots[ticket]
	if !ok {
		return
	}
	if !s.delivered {
		s.delivered = true
		close(s.ch)
	}
	delete(b.slots, ticket)
}

func (b *Broker[T]) close(ticket string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.slots, ticket)
}

// Len reports the number of open transactions.
func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.slots)
}
