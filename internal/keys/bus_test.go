package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus()
	var got []Key
	unsubscribe := bus.Subscribe(func(k Key) { got = append(got, k) })

	bus.Publish(Escape)
	assert.Equal(t, []Key{Escape}, got)
	assert.Equal(t, 1, bus.Len())

	unsubscribe()
	bus.Publish(Escape)
	assert.Equal(t, []Key{Escape}, got)
	assert.Equal(t, 0, bus.Len())
}

func TestBus_UnsubscribeTwice(t *testing.T) {
	bus := NewBus()
	first := bus.Subscribe(func(Key) {})
	second := bus.Subscribe(func(Key) {})

	first()
	first()

	assert.Equal(t, 1, bus.Len())
	second()
	assert.Equal(t, 0, bus.Len())
}

func TestBus_SubscriberMayUnsubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	calls := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe(func(Key) {
		calls++
		unsubscribe()
	})

	bus.Publish(Escape)
	bus.Publish(Escape)

	assert.Equal(t, 1, calls)
}
