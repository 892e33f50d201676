package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event represents a domain event that can be dispatched to observers.
type Event struct {
	// Type is the event type (e.g., "repo:decks_updated", "identity:ready")
	Type string

	// Payload contains the event payload as a typed struct. May be nil for
	// events that carry no data.
	Payload any
}

// Observer defines the interface for objects that want to be notified of
// events. Implementations can handle events in different ways (e.g., update
// a UI, print to a terminal, log).
type Observer interface {
	// OnEvent is called when an event is dispatched.
	// Returns an error if the observer fails to handle the event.
	OnEvent(event Event) error

	// Name returns a human-readable name for this observer (for logging).
	Name() string

	// ShouldHandle returns true if this observer should handle the given
	// event type. This allows observers to filter which events they care
	// about.
	ShouldHandle(eventType string) bool
}

// Dispatcher implements the Observer pattern for event distribution.
// It maintains a list of observers and notifies them when events occur.
// Thread-safe for concurrent use.
type Dispatcher struct {
	log       zerolog.Logger
	mu        sync.RWMutex
	observers []Observer
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		log:       logger,
		observers: make([]Observer, 0),
	}
}

// Register adds an observer to the dispatcher.
// The observer will be notified of all future events (filtered by
// ShouldHandle).
func (d *Dispatcher) Register(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.observers = append(d.observers, observer)
	d.log.Debug().Str("observer", observer.Name()).Msg("registered observer")
}

// Unregister removes an observer from the dispatcher.
// The observer will no longer receive event notifications.
func (d *Dispatcher) Unregister(observer Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, obs := range d.observers {
		if obs == observer {
			// Remove observer by replacing it with the last element and truncating
			d.observers[i] = d.observers[len(d.observers)-1]
			d.observers = d.observers[:len(d.observers)-1]
			d.log.Debug().Str("observer", observer.Name()).Msg("unregistered observer")
			return
		}
	}
}

// Dispatch sends an event to all registered observers.
// Observers are notified sequentially in the order they were registered.
// If an observer returns an error, it's logged but dispatch continues to
// other observers.
func (d *Dispatcher) Dispatch(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}

		if err := observer.OnEvent(event); err != nil {
			d.log.Warn().Err(err).
				Str("observer", observer.Name()).
				Str("event", event.Type).
				Msg("observer failed to handle event")
		}
	}
}

// DispatchAsync sends an event to all observers asynchronously.
// Each observer is notified in a separate goroutine.
// Useful for long-running event handlers that shouldn't block the caller.
func (d *Dispatcher) DispatchAsync(event Event) {
	d.mu.RLock()
	observers := make([]Observer, len(d.observers))
	copy(observers, d.observers)
	d.mu.RUnlock()

	for _, observer := range observers {
		if !observer.ShouldHandle(event.Type) {
			continue
		}

		go func(obs Observer) {
			if err := obs.OnEvent(event); err != nil {
				d.log.Warn().Err(err).
					Str("observer", obs.Name()).
					Str("event", event.Type).
					Msg("observer failed to handle event")
			}
		}(observer)
	}
}
