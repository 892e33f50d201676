package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/loapalette/companion/internal/deck"
)

// ReadLegacyDecks reads the pre-remote decks file: a JSON array of deck
// documents with ISO-8601 timestamps, as written by releases that stored
// decks locally instead of in the document store. A missing file surfaces
// as fs.ErrNotExist through the wrapped error; any undecodable entry fails
// the whole read, matching the all-or-nothing decode the migration relies
// on to retry later.
func ReadLegacyDecks(path string) ([]deck.Deck, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy decks: %w", err)
	}

	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("parse legacy decks: %w", err)
	}

	decks := make([]deck.Deck, 0, len(docs))
	for i, doc := range docs {
		d, err := decodeDeck(doc)
		if err != nil {
			return nil, fmt.Errorf("legacy deck %d: %w", i, err)
		}
		decks = append(decks, d)
	}
	return decks, nil
}
