package events

import (
	"github.com/rs/zerolog"
)

// LoggingObserver logs all events for debugging purposes.
// Useful for development and troubleshooting.
type LoggingObserver struct {
	name    string
	log     zerolog.Logger
	verbose bool
}

// NewLoggingObserver creates a new observer that logs events.
func NewLoggingObserver(logger zerolog.Logger, verbose bool) *LoggingObserver {
	return &LoggingObserver{
		name:    "LoggingObserver",
		log:     logger,
		verbose: verbose,
	}
}

// OnEvent logs the event details.
func (o *LoggingObserver) OnEvent(event Event) error {
	if o.verbose {
		o.log.Info().Str("event", event.Type).Interface("payload", event.Payload).Msg("event")
	} else {
		o.log.Info().Str("event", event.Type).Msg("event")
	}
	return nil
}

// Name returns the observer's name.
func (o *LoggingObserver) Name() string {
	return o.name
}

// ShouldHandle returns true for all events (logs everything).
func (o *LoggingObserver) ShouldHandle(eventType string) bool {
	return true
}

// FuncObserver adapts a plain function into an Observer. A nil filter
// handles every event type.
type FuncObserver struct {
	name   string
	filter func(eventType string) bool
	fn     func(event Event) error
}

// NewFuncObserver creates an observer backed by fn.
func NewFuncObserver(name string, filter func(eventType string) bool, fn func(event Event) error) *FuncObserver {
	return &FuncObserver{name: name, filter: filter, fn: fn}
}

// OnEvent invokes the wrapped function.
func (o *FuncObserver) OnEvent(event Event) error {
	return o.fn(event)
}

// Name returns the observer's name.
func (o *FuncObserver) Name() string {
	return o.name
}

// ShouldHandle applies the filter, or accepts everything when none is set.
func (o *FuncObserver) ShouldHandle(eventType string) bool {
	if o.filter == nil {
		return true
	}
	return o.filter(eventType)
}
