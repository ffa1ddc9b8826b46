// Package hub delivers host events (pointer motion, surface resize) to subscribers.
//
// Dispatch is synchronous and single-threaded: the application publishes through the
// scheduler's Post so every handler runs on the frame goroutine, interleaved with frames as
// handler-then-next-tick.
package hub

import "slices"

// Kind identifies an event family
type Kind uint8

const (
	// KindPointer carries PointerMove, pointer position in surface units
	KindPointer Kind = iota
	// KindResize carries Resize, new surface size in units
	KindResize
	// KindClick carries Click, pointer press in surface units
	KindClick
)

// Event is implemented by every payload
type Event interface {
	Kind() Kind
}

// PointerMove reports the last known pointer position
type PointerMove struct {
	X, Y float64
}

func (PointerMove) Kind() Kind { return KindPointer }

// Click reports a primary button press
type Click struct {
	X, Y float64
}

func (Click) Kind() Kind { return KindClick }

// Resize reports the new surface size
type Resize struct {
	Width, Height float64
}

func (Resize) Kind() Kind { return KindResize }

// Handler receives events of the kind it subscribed to
type Handler func(Event)

type subscriber struct {
	id      uint64
	handler Handler
}

// Hub routes events to handlers in subscription order
type Hub struct {
	next     uint64
	handlers map[Kind][]subscriber
}

// New creates an empty hub
func New() *Hub {
	return &Hub{handlers: make(map[Kind][]subscriber)}
}

// Subscription cancels one registration
type Subscription struct {
	hub  *Hub
	kind Kind
	id   uint64
}

// Unsubscribe removes the handler, safe to call more than once and on the zero value
func (s *Subscription) Unsubscribe() {
	if s == nil || s.hub == nil {
		return
	}
	s.hub.remove(s.kind, s.id)
	s.hub = nil
}

// Subscribe registers h for events of kind k
func (h *Hub) Subscribe(k Kind, handler Handler) *Subscription {
	h.next++
	h.handlers[k] = append(h.handlers[k], subscriber{id: h.next, handler: handler})
	return &Subscription{hub: h, kind: k, id: h.next}
}

// Publish dispatches ev to every handler of its kind
// Handlers may unsubscribe during dispatch, the current round still completes
func (h *Hub) Publish(ev Event) {
	subs := slices.Clone(h.handlers[ev.Kind()])
	for _, s := range subs {
		s.handler(ev)
	}
}

// Count returns the number of handlers for k
func (h *Hub) Count(k Kind) int {
	return len(h.handlers[k])
}

func (h *Hub) remove(k Kind, id uint64) {
	subs := h.handlers[k]
	i := slices.IndexFunc(subs, func(s subscriber) bool { return s.id == id })
	if i < 0 {
		return
	}
	h.handlers[k] = slices.Delete(subs, i, i+1)
}
