package event

import "sync"

// Listener receives events synchronously, in emission order.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent calls f(e).
func (f ListenerFunc) OnEvent(e Event) { f(e) }

// Emitter is the producer side of a Bus.
type Emitter interface {
	Emit(Event)
}

// Bus fans events out to listeners and channel subscribers.
//
// Listeners run on the emitting goroutine before Emit returns. Channel
// subscribers never block the emitter: if a channel is full, the event is
// dropped for that subscriber.
type Bus struct {
	mu          sync.Mutex
	listeners   []Listener
	subscribers map[chan<- Event]struct{}
}

// NewBus returns an empty Bus.
//
// Postcondition: Returns a non-nil Bus ready for use.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[chan<- Event]struct{})}
}

// Listen registers l to receive every subsequent event.
//
// Precondition: l must not be nil.
func (b *Bus) Listen(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Subscribe registers ch to receive every subsequent event.
//
// Precondition: ch must not be nil.
func (b *Bus) Subscribe(ch chan<- Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber set.
func (b *Bus) Unsubscribe(ch chan<- Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, ch)
}

// Emit delivers e to all listeners, then offers it to all subscribers.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	subs := make([]chan<- Event, 0, len(b.subscribers))
	for ch := range b.subscribers {
		subs = append(subs, ch)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l.OnEvent(e)
	}
	for _, ch := range subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(Event) {}
