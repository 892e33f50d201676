// Package repository keeps a user's decks and match records synchronized
// with the backing document store. It owns the in-memory snapshot the rest
// of the application reads, applies local mutations optimistically, and
// reconciles against store notifications, last writer wins.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/loapalette/companion/internal/deck"
	"github.com/loapalette/companion/internal/events"
	"github.com/loapalette/companion/internal/identity"
	"github.com/loapalette/companion/internal/lorcana/cards"
)

// ErrDeckNotFound is returned when an operation names a deck the repository
// does not hold.
var ErrDeckNotFound = errors.New("deck not found")

// migratedKey marks the one-time legacy migration as done. It is set after
// the first save pass whether or not every deck copied, so a single broken
// save cannot wedge startup forever. An unreadable legacy file leaves the
// marker unset and the next launch tries again.
const migratedKey = "decks_migrated"

// subscribeRetryDelay is how long to wait before the single subscription
// retry.
const subscribeRetryDelay = time.Second

// Store is the document store the repository synchronizes against.
type Store interface {
	LoadDecks(ctx context.Context, userID string) ([]deck.Deck, error)
	SaveDeck(ctx context.Context, userID string, d deck.Deck) error
	DeleteDeck(ctx context.Context, userID, deckID string) error

	// Subscribe delivers the user's full deck list after every change,
	// starting with the current snapshot. The returned cancel function
	// removes the subscription.
	Subscribe(userID string, fn func(decks []deck.Deck, err error)) (func(), error)
}

// Settings is the per-user key/value store used for one-time markers.
type Settings interface {
	GetBool(ctx context.Context, userID, key string) (bool, error)
	SetBool(ctx context.Context, userID, key string, value bool) error
}

// LegacySource loads decks from the pre-remote local decks file. It reports
// fs.ErrNotExist when there is no file, which the repository treats as
// "nothing to migrate" rather than a failure.
type LegacySource func() ([]deck.Deck, error)

// Repository synchronizes decks with the store. All exported methods are
// safe for concurrent use.
//
// Mutations issued before the anonymous identity resolves are not rejected:
// they apply to the local snapshot immediately and are queued, then flushed
// to the store once the identity is available, before the live subscription
// attaches.
type Repository struct {
	store    Store
	settings Settings
	ident    identity.Provider
	legacy   LegacySource
	events   *events.Dispatcher
	log      zerolog.Logger

	mu        sync.Mutex
	userID    string
	decks     []deck.Deck
	loading   bool
	saving    int
	started   bool
	closed    bool
	cancelSub func()
	retried   bool

	// queued work awaiting identity, keyed by deck id
	pendingSaves   map[string]bool
	pendingDeletes map[string]bool
}

// New creates a repository. Call Start to begin synchronizing. A nil legacy
// source disables the one-time migration.
func New(store Store, settings Settings, ident identity.Provider, legacy LegacySource, dispatcher *events.Dispatcher, logger zerolog.Logger) *Repository {
	return &Repository{
		store:          store,
		settings:       settings,
		ident:          ident,
		legacy:         legacy,
		events:         dispatcher,
		log:            logger,
		pendingSaves:   make(map[string]bool),
		pendingDeletes: make(map[string]bool),
	}
}

// Start begins synchronization: it waits for the anonymous identity, runs
// the one-time legacy migration, then subscribes to the user's decks.
// Calling Start more than once is a no-op.
func (r *Repository) Start() {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.loading = true
	r.mu.Unlock()

	r.ident.WhenReady(func(userID string, err error) {
		if err != nil {
			r.log.Error().Err(err).Msg("identity unavailable, decks will not sync")
			r.mu.Lock()
			r.loading = false
			r.mu.Unlock()
			r.events.Dispatch(events.Event{Type: events.TypeIdentityFailed, Payload: events.IdentityFailedEvent{Error: err.Error()}})
			return
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		r.userID = userID
		r.mu.Unlock()

		r.events.Dispatch(events.Event{Type: events.TypeIdentityReady, Payload: events.IdentityReadyEvent{UserID: userID}})
		r.migrateLegacyDecks(userID)
		r.flushPending(userID)
		r.subscribe(userID)
	})
}

// Close stops synchronization. In-flight saves finish in the background but
// no further notifications are applied.
func (r *Repository) Close() {
	r.mu.Lock()
	r.closed = true
	cancel := r.cancelSub
	r.cancelSub = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Decks returns a copy of the current deck list.
func (r *Repository) Decks() []deck.Deck {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]deck.Deck(nil), r.decks...)
}

// Deck returns the deck with the given id.
func (r *Repository) Deck(deckID string) (deck.Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.decks {
		if d.ID == deckID {
			return d, nil
		}
	}
	return deck.Deck{}, fmt.Errorf("deck %s: %w", deckID, ErrDeckNotFound)
}

// IsLoading reports whether the initial load is still pending.
func (r *Repository) IsLoading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// IsSaving reports whether any background save is in flight.
func (r *Repository) IsSaving() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saving > 0
}

// UserID returns the resolved user id, or false before identity resolution.
func (r *Repository) UserID() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID, r.userID != ""
}

// AddDeck creates a deck and persists it in the background.
func (r *Repository) AddDeck(name string, inkColors []deck.Ink) (deck.Deck, error) {
	d := deck.New(name, inkColors)

	r.mu.Lock()
	if r.userID == "" {
		r.applyLocked(d)
		r.pendingSaves[d.ID] = true
		r.mu.Unlock()
		return d, nil
	}
	userID := r.userID
	r.applyLocked(d)
	r.mu.Unlock()

	r.persist(userID, d)
	return d, nil
}

// UpdateDeck replaces a deck wholesale and persists it in the background.
func (r *Repository) UpdateDeck(d deck.Deck) error {
	return r.mutate(d.ID, func(deck.Deck) deck.Deck { return d })
}

// DeleteDeck removes a deck locally and from the store.
func (r *Repository) DeleteDeck(deckID string) error {
	r.mu.Lock()
	found := false
	kept := r.decks[:0:0]
	for _, d := range r.decks {
		if d.ID == deckID {
			found = true
			continue
		}
		kept = append(kept, d)
	}
	if !found {
		r.mu.Unlock()
		return fmt.Errorf("deck %s: %w", deckID, ErrDeckNotFound)
	}
	r.decks = kept
	if r.userID == "" {
		delete(r.pendingSaves, deckID)
		r.pendingDeletes[deckID] = true
		r.mu.Unlock()
		return nil
	}
	userID := r.userID
	r.saving++
	r.mu.Unlock()

	go func() {
		defer r.doneSaving()
		if err := r.store.DeleteDeck(context.Background(), userID, deckID); err != nil {
			r.log.Error().Err(err).Str("deck_id", deckID).Msg("deck delete failed")
			r.events.Dispatch(events.Event{Type: events.TypeDeckDeleteFailed, Payload: events.DeckDeleteFailedEvent{DeckID: deckID, Error: err.Error()}})
		}
	}()
	return nil
}

// AddCard adds copies of a card to a deck, capped per card.
func (r *Repository) AddCard(deckID string, card cards.Card, count int) error {
	return r.mutate(deckID, func(d deck.Deck) deck.Deck { return d.AddCard(card, count) })
}

// RemoveCard removes a card entry from a deck.
func (r *Repository) RemoveCard(deckID, cardID string) error {
	return r.mutate(deckID, func(d deck.Deck) deck.Deck { return d.RemoveCard(cardID) })
}

// UpdateCardCount sets the copy count of a card in a deck; zero or less
// removes the entry.
func (r *Repository) UpdateCardCount(deckID, cardID string, count int) error {
	return r.mutate(deckID, func(d deck.Deck) deck.Deck { return d.UpdateCardCount(cardID, count) })
}

// AddMatchRecord appends a match record to a deck.
func (r *Repository) AddMatchRecord(deckID string, record deck.MatchRecord) error {
	return r.mutate(deckID, func(d deck.Deck) deck.Deck { return d.AddMatchRecord(record) })
}

// RemoveMatchRecord removes a match record from a deck.
func (r *Repository) RemoveMatchRecord(deckID, recordID string) error {
	return r.mutate(deckID, func(d deck.Deck) deck.Deck { return d.RemoveMatchRecord(recordID) })
}

// UpdateMemo replaces a deck's memo.
func (r *Repository) UpdateMemo(deckID, memo string) error {
	return r.mutate(deckID, func(d deck.Deck) deck.Deck { return d.WithMemo(memo) })
}

// mutate applies fn to the named deck, updates the local snapshot, and
// persists the result in the background.
func (r *Repository) mutate(deckID string, fn func(deck.Deck) deck.Deck) error {
	r.mu.Lock()
	var updated deck.Deck
	found := false
	for _, d := range r.decks {
		if d.ID == deckID {
			updated = fn(d)
			found = true
			break
		}
	}
	if !found {
		r.mu.Unlock()
		return fmt.Errorf("deck %s: %w", deckID, ErrDeckNotFound)
	}
	r.applyLocked(updated)
	if r.userID == "" {
		r.pendingSaves[deckID] = true
		r.mu.Unlock()
		return nil
	}
	userID := r.userID
	r.mu.Unlock()

	r.persist(userID, updated)
	return nil
}

// applyLocked installs d into the local snapshot, replacing any deck with
// the same id. Callers hold r.mu.
func (r *Repository) applyLocked(d deck.Deck) {
	for i := range r.decks {
		if r.decks[i].ID == d.ID {
			r.decks[i] = d
			return
		}
	}
	r.decks = append(r.decks, d)
}

// persist saves d in the background. Failures are reported through the
// event dispatcher rather than returned: the local snapshot already moved
// on, and the next successful write or notification reconciles it.
func (r *Repository) persist(userID string, d deck.Deck) {
	r.mu.Lock()
	r.saving++
	r.mu.Unlock()

	go func() {
		defer r.doneSaving()
		if err := r.store.SaveDeck(context.Background(), userID, d); err != nil {
			r.log.Error().Err(err).Str("deck_id", d.ID).Msg("deck save failed")
			r.events.Dispatch(events.Event{Type: events.TypeDeckSaveFailed, Payload: events.DeckSaveFailedEvent{DeckID: d.ID, Error: err.Error()}})
		}
	}()
}

func (r *Repository) doneSaving() {
	r.mu.Lock()
	r.saving--
	r.mu.Unlock()
}

// subscribe attaches the store listener. A failure is retried once after a
// short delay before giving up and reporting the error.
func (r *Repository) subscribe(userID string) {
	cancel, err := r.store.Subscribe(userID, r.onSnapshot)
	if err != nil {
		r.mu.Lock()
		retried := r.retried
		r.retried = true
		closed := r.closed
		r.mu.Unlock()

		if closed {
			return
		}
		if !retried {
			r.log.Warn().Err(err).Msg("deck subscription failed, retrying once")
			time.AfterFunc(subscribeRetryDelay, func() { r.subscribe(userID) })
			return
		}
		r.log.Error().Err(err).Msg("deck subscription failed")
		r.mu.Lock()
		r.loading = false
		r.mu.Unlock()
		r.events.Dispatch(events.Event{Type: events.TypeDecksLoadFailed, Payload: events.DecksLoadFailedEvent{Error: err.Error()}})
		return
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		cancel()
		return
	}
	r.cancelSub = cancel
	r.mu.Unlock()
}

// onSnapshot applies a store notification. The store's view replaces the
// local one wholesale.
func (r *Repository) onSnapshot(decks []deck.Deck, err error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.loading = false
		r.mu.Unlock()
		r.log.Error().Err(err).Msg("deck snapshot failed")
		r.events.Dispatch(events.Event{Type: events.TypeDecksLoadFailed, Payload: events.DecksLoadFailedEvent{Error: err.Error()}})
		return
	}
	r.decks = decks
	r.loading = false
	count := len(decks)
	r.mu.Unlock()

	r.events.Dispatch(events.Event{Type: events.TypeDecksUpdated, Payload: events.DecksUpdatedEvent{Count: count}})
}

// migrateLegacyDecks copies decks from the pre-remote local file into the
// user's store collection, once. The marker is set when the file is absent
// and after the save pass regardless of per-deck outcomes; an unreadable
// file sets nothing so the next launch retries.
func (r *Repository) migrateLegacyDecks(userID string) {
	ctx := context.Background()

	done, err := r.settings.GetBool(ctx, userID, migratedKey)
	if err != nil {
		r.log.Error().Err(err).Msg("could not read migration marker, skipping legacy migration")
		return
	}
	if done || r.legacy == nil {
		return
	}

	legacy, err := r.legacy()
	if errors.Is(err, fs.ErrNotExist) {
		if err := r.settings.SetBool(ctx, userID, migratedKey, true); err != nil {
			r.log.Error().Err(err).Msg("could not persist migration marker")
		}
		return
	}
	if err != nil {
		r.log.Error().Err(err).Msg("could not read legacy decks, skipping legacy migration")
		return
	}

	migrated, failed := 0, 0
	for _, d := range legacy {
		if err := r.store.SaveDeck(ctx, userID, d); err != nil {
			r.log.Error().Err(err).Str("deck_id", d.ID).Msg("legacy deck migration failed")
			failed++
			continue
		}
		migrated++
	}

	if err := r.settings.SetBool(ctx, userID, migratedKey, true); err != nil {
		r.log.Error().Err(err).Msg("could not persist migration marker")
	}

	if len(legacy) > 0 {
		r.log.Info().Int("migrated", migrated).Int("failed", failed).Msg("legacy deck migration complete")
	}
	r.events.Dispatch(events.Event{Type: events.TypeMigrationComplete, Payload: events.MigrationCompleteEvent{Migrated: migrated, Failed: failed}})
}

// flushPending replays mutations queued before identity resolution. It runs
// synchronously so the queued writes land before the subscription's initial
// snapshot, otherwise the snapshot would roll them back.
func (r *Repository) flushPending(userID string) {
	r.mu.Lock()
	if len(r.pendingSaves) == 0 && len(r.pendingDeletes) == 0 {
		r.mu.Unlock()
		return
	}
	saves := make([]deck.Deck, 0, len(r.pendingSaves))
	for _, d := range r.decks {
		if r.pendingSaves[d.ID] {
			saves = append(saves, d)
		}
	}
	deletes := make([]string, 0, len(r.pendingDeletes))
	for id := range r.pendingDeletes {
		deletes = append(deletes, id)
	}
	r.pendingSaves = make(map[string]bool)
	r.pendingDeletes = make(map[string]bool)
	r.mu.Unlock()

	ctx := context.Background()
	for _, d := range saves {
		if err := r.store.SaveDeck(ctx, userID, d); err != nil {
			r.log.Error().Err(err).Str("deck_id", d.ID).Msg("queued deck save failed")
			r.events.Dispatch(events.Event{Type: events.TypeDeckSaveFailed, Payload: events.DeckSaveFailedEvent{DeckID: d.ID, Error: err.Error()}})
		}
	}
	for _, id := range deletes {
		if err := r.store.DeleteDeck(ctx, userID, id); err != nil {
			r.log.Error().Err(err).Str("deck_id", id).Msg("queued deck delete failed")
			r.events.Dispatch(events.Event{Type: events.TypeDeckDeleteFailed, Payload: events.DeckDeleteFailedEvent{DeckID: id, Error: err.Error()}})
		}
	}
}
