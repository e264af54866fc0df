// Package keys delivers global key presses to whichever components are
// currently subscribed.
package keys

import "sync"

// Key identifies a global key press.
type Key string

// Escape cancels the in-flight request.
const Escape Key = "esc"

// Bus fans key presses out to subscribers. Subscribers must release their
// subscription when they are torn down.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Key)
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Key))}
}

// Subscribe registers fn and returns the function that removes it. Calling
// the returned function more than once is harmless.
func (b *Bus) Subscribe(fn func(Key)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers k to every current subscriber.
func (b *Bus) Publish(k Key) {
	b.mu.Lock()
	fns := make([]func(Key), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(k)
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
