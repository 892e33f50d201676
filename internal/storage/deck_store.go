package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/loapalette/companion/internal/deck"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// DeckStore persists decks as whole documents, one per (user, deck), and
// notifies subscribers with the user's full collection after every write.
// Writes are last-writer-wins: a save replaces the stored document entirely.
type DeckStore struct {
	db  *DB
	log zerolog.Logger

	mu        sync.Mutex
	nextSubID int
	subs      map[string]map[int]func(decks []deck.Deck, err error)
}

// NewDeckStore creates a deck store over an open database.
func NewDeckStore(db *DB, logger zerolog.Logger) *DeckStore {
	return &DeckStore{
		db:   db,
		log:  logger,
		subs: make(map[string]map[int]func([]deck.Deck, error)),
	}
}

// LoadDecks returns all decks for userID ordered by creation time. Rows that
// no longer decode are skipped with a warning rather than failing the whole
// load.
func (s *DeckStore) LoadDecks(ctx context.Context, userID string) ([]deck.Deck, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT deck_id, document FROM decks WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("load decks for %s: %w", userID, err)
	}
	defer rows.Close()

	var decks []deck.Deck
	for rows.Next() {
		var deckID string
		var document []byte
		if err := rows.Scan(&deckID, &document); err != nil {
			return nil, fmt.Errorf("scan deck row: %w", err)
		}
		d, err := decodeDeck(document)
		if err != nil {
			s.log.Warn().Err(err).Str("deck_id", deckID).Msg("skipping undecodable deck document")
			continue
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deck rows: %w", err)
	}
	return decks, nil
}

// LoadDeck returns a single deck, or an error wrapping ErrNotFound if
// absent.
func (s *DeckStore) LoadDeck(ctx context.Context, userID, deckID string) (deck.Deck, error) {
	var document []byte
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT document FROM decks WHERE user_id = ? AND deck_id = ?`, userID, deckID).
		Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return deck.Deck{}, fmt.Errorf("deck %s: %w", deckID, ErrNotFound)
	}
	if err != nil {
		return deck.Deck{}, fmt.Errorf("load deck %s: %w", deckID, err)
	}
	return decodeDeck(document)
}

// SaveDeck upserts the deck's document and notifies subscribers.
func (s *DeckStore) SaveDeck(ctx context.Context, userID string, d deck.Deck) error {
	if d.ID == "" {
		return fmt.Errorf("deck has no id")
	}

	document, err := encodeDeck(d)
	if err != nil {
		return err
	}

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO decks (user_id, deck_id, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, deck_id) DO UPDATE SET
		     document = excluded.document,
		     updated_at = excluded.updated_at`,
		userID, d.ID, document, formatTimestamp(d.CreatedAt), formatTimestamp(d.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save deck %s: %w", d.ID, err)
	}

	s.notify(ctx, userID)
	return nil
}

// DeleteDeck removes the deck's document and notifies subscribers. Deleting
// an absent deck is not an error.
func (s *DeckStore) DeleteDeck(ctx context.Context, userID, deckID string) error {
	_, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM decks WHERE user_id = ? AND deck_id = ?`, userID, deckID)
	if err != nil {
		return fmt.Errorf("delete deck %s: %w", deckID, err)
	}

	s.notify(ctx, userID)
	return nil
}

// Subscribe registers fn to receive the user's full deck list after every
// change. The current snapshot is delivered asynchronously right away, in
// the manner of a document store's snapshot listener. The returned cancel
// function removes the subscription; it is safe to call more than once.
func (s *DeckStore) Subscribe(userID string, fn func(decks []deck.Deck, err error)) (func(), error) {
	if fn == nil {
		return nil, fmt.Errorf("subscription callback cannot be nil")
	}

	s.mu.Lock()
	s.nextSubID++
	id := s.nextSubID
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]func([]deck.Deck, error))
	}
	s.subs[userID][id] = fn
	s.mu.Unlock()

	// Initial snapshot.
	go func() {
		decks, err := s.LoadDecks(context.Background(), userID)
		fn(decks, err)
	}()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if m, ok := s.subs[userID]; ok {
			delete(m, id)
			if len(m) == 0 {
				delete(s.subs, userID)
			}
		}
	}
	return cancel, nil
}

// notify delivers a fresh snapshot to every subscriber of userID.
func (s *DeckStore) notify(ctx context.Context, userID string) {
	s.mu.Lock()
	fns := make([]func([]deck.Deck, error), 0, len(s.subs[userID]))
	for _, fn := range s.subs[userID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if len(fns) == 0 {
		return
	}

	decks, err := s.LoadDecks(ctx, userID)
	for _, fn := range fns {
		fn(decks, err)
	}
}
