package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHub_DispatchByKind(t *testing.T) {
	h := New()
	var moves []PointerMove
	var resizes []Resize

	h.Subscribe(KindPointer, func(ev Event) { moves = append(moves, ev.(PointerMove)) })
	h.Subscribe(KindResize, func(ev Event) { resizes = append(resizes, ev.(Resize)) })

	h.Publish(PointerMove{X: 1, Y: 2})
	h.Publish(Resize{Width: 80, Height: 40})
	h.Publish(Click{X: 5, Y: 5})

	assert.Equal(t, []PointerMove{{X: 1, Y: 2}}, moves)
	assert.Equal(t, []Resize{{Width: 80, Height: 40}}, resizes)
}

func TestHub_SubscriptionOrder(t *testing.T) {
	h := New()
	var order []int
	h.Subscribe(KindPointer, func(Event) { order = append(order, 1) })
	h.Subscribe(KindPointer, func(Event) { order = append(order, 2) })

	h.Publish(PointerMove{})

	assert.Equal(t, []int{1, 2}, order)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := New()
	calls := 0
	sub := h.Subscribe(KindResize, func(Event) { calls++ })
	assert.Equal(t, 1, h.Count(KindResize))

	sub.Unsubscribe()
	sub.Unsubscribe()
	h.Publish(Resize{})

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, h.Count(KindResize))

	var zero *Subscription
	assert.NotPanics(t, func() { zero.Unsubscribe() })
}

func TestHub_UnsubscribeDuringDispatch(t *testing.T) {
	h := New()
	calls := 0
	var first *Subscription
	first = h.Subscribe(KindPointer, func(Event) {
		calls++
		first.Unsubscribe()
	})
	h.Subscribe(KindPointer, func(Event) { calls++ })

	h.Publish(PointerMove{})
	h.Publish(PointerMove{})

	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, h.Count(KindPointer))
}
