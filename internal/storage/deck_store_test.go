package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loapalette/companion/internal/deck"
	"github.com/loapalette/companion/internal/lorcana/cards"
)

func newTestDeckStore(t *testing.T) *DeckStore {
	t.Helper()
	return NewDeckStore(NewTestDB(t), zerolog.Nop())
}

func TestSaveAndLoadDecks(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	first := deck.New("", []deck.Ink{deck.InkAmber})
	second := deck.New("Control", []deck.Ink{deck.InkSapphire, deck.InkSteel})
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	if err := store.SaveDeck(ctx, "user-1", first); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}
	if err := store.SaveDeck(ctx, "user-1", second); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}

	decks, err := store.LoadDecks(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadDecks() error = %v", err)
	}
	if len(decks) != 2 {
		t.Fatalf("expected 2 decks, got %d", len(decks))
	}
	if decks[0].ID != first.ID || decks[1].ID != second.ID {
		t.Errorf("decks not ordered by creation time: %s, %s", decks[0].ID, decks[1].ID)
	}
}

func TestSaveDeckReplacesDocument(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	d := deck.New("Amber", []deck.Ink{deck.InkAmber})
	if err := store.SaveDeck(ctx, "user-1", d); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}

	updated := d.AddCard(cards.Card{ID: "TFC-1", Name: "Ariel"}, 2)
	if err := store.SaveDeck(ctx, "user-1", updated); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}

	got, err := store.LoadDeck(ctx, "user-1", d.ID)
	if err != nil {
		t.Fatalf("LoadDeck() error = %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Count != 2 {
		t.Errorf("stored document was not replaced: %+v", got.Entries)
	}
}

func TestDecksAreScopedByUser(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	d := deck.New("Amber", []deck.Ink{deck.InkAmber})
	if err := store.SaveDeck(ctx, "user-1", d); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}

	decks, err := store.LoadDecks(ctx, "user-2")
	if err != nil {
		t.Fatalf("LoadDecks() error = %v", err)
	}
	if len(decks) != 0 {
		t.Errorf("user-2 should see no decks, got %d", len(decks))
	}

	if _, err := store.LoadDeck(ctx, "user-2", d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDeck(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	d := deck.New("Amber", []deck.Ink{deck.InkAmber})
	if err := store.SaveDeck(ctx, "user-1", d); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}
	if err := store.DeleteDeck(ctx, "user-1", d.ID); err != nil {
		t.Fatalf("DeleteDeck() error = %v", err)
	}

	if _, err := store.LoadDeck(ctx, "user-1", d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op, not an error.
	if err := store.DeleteDeck(ctx, "user-1", d.ID); err != nil {
		t.Errorf("DeleteDeck() second call error = %v", err)
	}
}

func TestLoadDecksSkipsUndecodableRows(t *testing.T) {
	db := NewTestDB(t)
	store := NewDeckStore(db, zerolog.Nop())
	ctx := context.Background()

	good := deck.New("Amber", []deck.Ink{deck.InkAmber})
	if err := store.SaveDeck(ctx, "user-1", good); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}

	_, err := db.Conn().ExecContext(ctx,
		`INSERT INTO decks (user_id, deck_id, document, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"user-1", "broken", `{"not valid`, "2020-01-01T00:00:00.000Z", "2020-01-01T00:00:00.000Z")
	if err != nil {
		t.Fatalf("insert broken row: %v", err)
	}

	decks, err := store.LoadDecks(ctx, "user-1")
	if err != nil {
		t.Fatalf("LoadDecks() error = %v", err)
	}
	if len(decks) != 1 || decks[0].ID != good.ID {
		t.Errorf("expected only the decodable deck, got %+v", decks)
	}
}

// subscription recorder
type snapshotRecorder struct {
	mu    sync.Mutex
	calls [][]deck.Deck
	errs  []error
}

func (r *snapshotRecorder) record(decks []deck.Deck, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, decks)
	r.errs = append(r.errs, err)
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *snapshotRecorder) last() []deck.Deck {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

func waitForCalls(t *testing.T, r *snapshotRecorder, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d snapshot deliveries, have %d", n, r.count())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	d := deck.New("Amber", []deck.Ink{deck.InkAmber})
	if err := store.SaveDeck(ctx, "user-1", d); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe("user-1", rec.record)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()

	waitForCalls(t, rec, 1)
	if got := rec.last(); len(got) != 1 || got[0].ID != d.ID {
		t.Errorf("initial snapshot = %+v", got)
	}
}

func TestSubscribeNotifiesOnWrites(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe("user-1", rec.record)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()
	waitForCalls(t, rec, 1)

	d := deck.New("Amber", []deck.Ink{deck.InkAmber})
	if err := store.SaveDeck(ctx, "user-1", d); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}
	waitForCalls(t, rec, 2)
	if got := rec.last(); len(got) != 1 {
		t.Fatalf("snapshot after save = %+v", got)
	}

	if err := store.DeleteDeck(ctx, "user-1", d.ID); err != nil {
		t.Fatalf("DeleteDeck() error = %v", err)
	}
	waitForCalls(t, rec, 3)
	if got := rec.last(); len(got) != 0 {
		t.Errorf("snapshot after delete = %+v", got)
	}
}

func TestSubscribeIsScopedByUser(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe("user-1", rec.record)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer cancel()
	waitForCalls(t, rec, 1)

	if err := store.SaveDeck(ctx, "user-2", deck.New("Amber", []deck.Ink{deck.InkAmber})); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if rec.count() != 1 {
		t.Errorf("user-1 subscriber notified of user-2 write: %d calls", rec.count())
	}
}

func TestSubscribeCancelStopsNotifications(t *testing.T) {
	store := newTestDeckStore(t)
	ctx := context.Background()

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe("user-1", rec.record)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	waitForCalls(t, rec, 1)

	cancel()
	cancel() // safe to call twice

	if err := store.SaveDeck(ctx, "user-1", deck.New("Amber", []deck.Ink{deck.InkAmber})); err != nil {
		t.Fatalf("SaveDeck() error = %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if rec.count() != 1 {
		t.Errorf("cancelled subscriber still notified: %d calls", rec.count())
	}
}

func TestSubscribeRejectsNilCallback(t *testing.T) {
	store := newTestDeckStore(t)
	if _, err := store.Subscribe("user-1", nil); err == nil {
		t.Error("expected error for nil callback")
	}
}
