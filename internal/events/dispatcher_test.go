package events

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func TestDispatchNotifiesRegisteredObservers(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())

	var got []Event
	obs := NewFuncObserver("recorder", nil, func(e Event) error {
		got = append(got, e)
		return nil
	})
	d.Register(obs)

	d.Dispatch(Event{Type: TypeDecksUpdated, Payload: DecksUpdatedEvent{Count: 3}})

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != TypeDecksUpdated {
		t.Errorf("expected type %q, got %q", TypeDecksUpdated, got[0].Type)
	}
	payload, ok := got[0].Payload.(DecksUpdatedEvent)
	if !ok {
		t.Fatalf("expected DecksUpdatedEvent payload, got %T", got[0].Payload)
	}
	if payload.Count != 3 {
		t.Errorf("expected count 3, got %d", payload.Count)
	}
}

func TestDispatchRespectsShouldHandle(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())

	var got []string
	filter := func(eventType string) bool {
		return strings.HasPrefix(eventType, "identity:")
	}
	d.Register(NewFuncObserver("identity-only", filter, func(e Event) error {
		got = append(got, e.Type)
		return nil
	}))

	d.Dispatch(Event{Type: TypeDecksUpdated})
	d.Dispatch(Event{Type: TypeIdentityReady})

	if len(got) != 1 || got[0] != TypeIdentityReady {
		t.Errorf("expected only identity event, got %v", got)
	}
}

func TestDispatchContinuesAfterObserverError(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())

	d.Register(NewFuncObserver("failing", nil, func(Event) error {
		return errors.New("observer failure")
	}))

	called := false
	d.Register(NewFuncObserver("working", nil, func(Event) error {
		called = true
		return nil
	}))

	d.Dispatch(Event{Type: TypeDeckSaveFailed})

	if !called {
		t.Error("second observer should still be notified after first fails")
	}
}

func TestUnregisterStopsNotifications(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())

	count := 0
	obs := NewFuncObserver("counter", nil, func(Event) error {
		count++
		return nil
	})
	d.Register(obs)
	d.Dispatch(Event{Type: TypeDecksUpdated})
	d.Unregister(obs)
	d.Dispatch(Event{Type: TypeDecksUpdated})

	if count != 1 {
		t.Errorf("expected 1 notification, got %d", count)
	}
}

func TestDispatchAsyncNotifiesAll(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(2)
	for _, name := range []string{"a", "b"} {
		d.Register(NewFuncObserver(name, nil, func(Event) error {
			wg.Done()
			return nil
		}))
	}

	d.DispatchAsync(Event{Type: TypeMigrationComplete, Payload: MigrationCompleteEvent{Migrated: 2}})
	wg.Wait()
}

func TestConcurrentRegisterAndDispatch(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.Register(NewFuncObserver("concurrent", func(string) bool { return false }, func(Event) error { return nil }))
		}()
		go func() {
			defer wg.Done()
			d.Dispatch(Event{Type: TypeDecksUpdated})
		}()
	}
	wg.Wait()
}
