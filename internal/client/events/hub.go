// Package events provides a small typed publish/subscribe hub used to push
// session and identity changes to the components that react to them.
package events

import (
	"slices"
	"sync"
)

// Subscription is a handle to a registered handler.
type Subscription interface {
	// Unsubscribe removes the handler. Once it returns the handler is not
	// started again, though a call already running may still finish.
	// Calls after the first are no-ops.
	Unsubscribe()
}

// Hub fans values out to handlers in registration order. Publish runs the
// handlers synchronously on the caller's goroutine and never holds the hub
// lock while a handler runs, so handlers may subscribe or unsubscribe.
type Hub[T any] struct {
	mu       sync.Mutex
	next     uint64
	handlers map[uint64]func(T)
	order    []uint64
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{handlers: make(map[uint64]func(T))}
}

// Subscribe registers fn and returns its handle.
func (h *Hub[T]) Subscribe(fn func(T)) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.handlers == nil {
		h.handlers = make(map[uint64]func(T))
	}
	id := h.next
	h.next++
	h.handlers[id] = fn
	h.order = append(h.order, id)

	return &subscription{unsubscribe: func() { h.remove(id) }}
}

// Publish delivers v to every handler registered at the time of the call
// that is still registered when its turn comes.
func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	ids := slices.Clone(h.order)
	h.mu.Unlock()

	for _, id := range ids {
		h.mu.Lock()
		fn, ok := h.handlers[id]
		h.mu.Unlock()
		if ok {
			fn(v)
		}
	}
}

// Len returns the number of live handlers.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handlers)
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.handlers[id]; !ok {
		return
	}
	delete(h.handlers, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

type subscription struct {
	once        sync.Once
	unsubscribe func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}

// SubscriptionFunc adapts a plain function to Subscription. The function is
// called at most once.
func SubscriptionFunc(fn func()) Subscription {
	return &subscription{unsubscribe: fn}
}
