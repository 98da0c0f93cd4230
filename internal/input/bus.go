package input

import "sync"

// Kind names an input event.
type Kind int

const (
	PointerMove Kind = iota
	PointerLeave
	Scroll
	Resize
	ThemeChange
	Gesture
	Click
	kindCount
)

var kindNames = [kindCount]string{
	PointerMove:  "pointer-move",
	PointerLeave: "pointer-leave",
	Scroll:       "scroll",
	Resize:       "resize",
	ThemeChange:  "theme-change",
	Gesture:      "gesture",
	Click:        "click",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Event is a single input notification. Only the fields of its Kind are set.
type Event struct {
	Kind   Kind
	X, Y   float64 // PointerMove, Click
	Offset float64 // Scroll
	Width  float64 // Resize
	Height float64 // Resize
	Dark   bool    // ThemeChange: the new preference
}

// Handler receives published events.
type Handler func(Event)

// Bus dispatches events to handlers registered per Kind. Handlers run on the
// publishing goroutine in registration order.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers [kindCount][]subscription
}

type subscription struct {
	id int
	fn Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for kind and returns a function that removes it.
func (b *Bus) Subscribe(kind Kind, fn Handler) (cancel func()) {
	if kind < 0 || kind >= kindCount {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[kind]
		for i, s := range subs {
			if s.id == id {
				b.handlers[kind] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers ev to every handler of its kind. A click is also
// delivered as a gesture.
func (b *Bus) Publish(ev Event) {
	b.dispatch(ev.Kind, ev)
	if ev.Kind == Click {
		b.dispatch(Gesture, ev)
	}
}

func (b *Bus) dispatch(kind Kind, ev Event) {
	if kind < 0 || kind >= kindCount {
		return
	}
	b.mu.RLock()
	subs := append([]subscription(nil), b.handlers[kind]...)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}

// Bind subscribes the inputs to the pointer, scroll and resize events.
func (in *Inputs) Bind(b *Bus) (cancel func()) {
	cancels := []func(){
		b.Subscribe(PointerMove, func(ev Event) { in.PointerMove(ev.X, ev.Y) }),
		b.Subscribe(PointerLeave, func(Event) { in.PointerLeave() }),
		b.Subscribe(Scroll, func(ev Event) { in.Scroll(ev.Offset) }),
		b.Subscribe(Resize, func(ev Event) { in.Resize(ev.Width, ev.Height) }),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
