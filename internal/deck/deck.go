package deck

import (
	"time"

	"github.com/google/uuid"

	"github.com/loapalette/companion/internal/lorcana/cards"
)

// MaxCopies is the per-card copy limit AddCard enforces.
const MaxCopies = 4

// Deck is the user-owned aggregate the repository persists as one document.
// Entry order is not significant.
type Deck struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Entries      []Entry       `json:"entries"`
	InkColors    []Ink         `json:"inkColors"`
	Memo         string        `json:"memo"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	MatchRecords []MatchRecord `json:"matchRecords"`
}

// Entry pairs a card with its copy count. Its identity is the referenced
// card's id, so a deck holds at most one entry per distinct card.
type Entry struct {
	ID    string     `json:"id"`
	Card  cards.Card `json:"card"`
	Count int        `json:"count"`
}

// MatchRecord is one win/loss entry owned by its parent deck.
type MatchRecord struct {
	ID                string    `json:"id"`
	OpponentInkColors []Ink     `json:"opponentInkColors"`
	OpponentDeckName  string    `json:"opponentDeckName"`
	IsWin             bool      `json:"isWin"`
	PlayedAt          time.Time `json:"playedAt"`
}

// New creates a deck with a generated id. A blank name is derived from the
// ink colors when any are given.
func New(name string, inkColors []Ink) Deck {
	if name == "" && len(inkColors) > 0 {
		name = DeckName(inkColors)
	}
	now := time.Now().UTC()
	return Deck{
		ID:        uuid.NewString(),
		Name:      name,
		InkColors: append([]Ink(nil), inkColors...),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewMatchRecord creates a match record with a generated id. A blank opponent
// deck name is derived from the opponent's ink colors when any are given.
func NewMatchRecord(opponentColors []Ink, opponentDeckName string, isWin bool, playedAt time.Time) MatchRecord {
	if opponentDeckName == "" && len(opponentColors) > 0 {
		opponentDeckName = DeckName(opponentColors)
	}
	if playedAt.IsZero() {
		playedAt = time.Now().UTC()
	}
	return MatchRecord{
		ID:                uuid.NewString(),
		OpponentInkColors: append([]Ink(nil), opponentColors...),
		OpponentDeckName:  opponentDeckName,
		IsWin:             isWin,
		PlayedAt:          playedAt,
	}
}

// AddCard returns the deck with count copies of card added. An existing entry
// for the same card id is topped up instead of duplicated, and the result is
// capped at MaxCopies either way. UpdatedAt is always bumped.
func (d Deck) AddCard(card cards.Card, count int) Deck {
	entries := append([]Entry(nil), d.Entries...)

	found := false
	for i, e := range entries {
		if e.ID == card.ID {
			entries[i].Count = min(e.Count+count, MaxCopies)
			found = true
			break
		}
	}
	if !found {
		entries = append(entries, Entry{
			ID:    card.ID,
			Card:  card,
			Count: min(count, MaxCopies),
		})
	}

	d.Entries = entries
	d.UpdatedAt = time.Now().UTC()
	return d
}

// RemoveCard returns the deck without the entry for cardID. UpdatedAt is
// bumped even when nothing matched; the extra write is harmless and keeps the
// operation idempotent.
func (d Deck) RemoveCard(cardID string) Deck {
	entries := make([]Entry, 0, len(d.Entries))
	for _, e := range d.Entries {
		if e.ID != cardID {
			entries = append(entries, e)
		}
	}
	d.Entries = entries
	d.UpdatedAt = time.Now().UTC()
	return d
}

// UpdateCardCount returns the deck with the entry for cardID set to count.
// A count of zero or less removes the entry. Unlike AddCard this does not
// re-apply the MaxCopies cap; only AddCard enforces it. Decks without a
// matching entry are returned unchanged.
func (d Deck) UpdateCardCount(cardID string, count int) Deck {
	idx := -1
	for i, e := range d.Entries {
		if e.ID == cardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return d
	}

	entries := append([]Entry(nil), d.Entries...)
	if count <= 0 {
		entries = append(entries[:idx], entries[idx+1:]...)
	} else {
		entries[idx].Count = count
	}

	d.Entries = entries
	d.UpdatedAt = time.Now().UTC()
	return d
}

// AddMatchRecord returns the deck with the record appended.
func (d Deck) AddMatchRecord(record MatchRecord) Deck {
	d.MatchRecords = append(append([]MatchRecord(nil), d.MatchRecords...), record)
	d.UpdatedAt = time.Now().UTC()
	return d
}

// RemoveMatchRecord returns the deck without the record with recordID.
func (d Deck) RemoveMatchRecord(recordID string) Deck {
	records := make([]MatchRecord, 0, len(d.MatchRecords))
	for _, r := range d.MatchRecords {
		if r.ID != recordID {
			records = append(records, r)
		}
	}
	d.MatchRecords = records
	d.UpdatedAt = time.Now().UTC()
	return d
}

// WithMemo returns the deck with its memo replaced.
func (d Deck) WithMemo(memo string) Deck {
	d.Memo = memo
	d.UpdatedAt = time.Now().UTC()
	return d
}

// TotalCardCount is the sum of all entry counts.
func (d Deck) TotalCardCount() int {
	total := 0
	for _, e := range d.Entries {
		total += e.Count
	}
	return total
}

// Wins counts the deck's winning match records.
func (d Deck) Wins() int {
	wins := 0
	for _, r := range d.MatchRecords {
		if r.IsWin {
			wins++
		}
	}
	return wins
}

// Losses counts the deck's losing match records.
func (d Deck) Losses() int {
	return len(d.MatchRecords) - d.Wins()
}

// WinRate is the win percentage over all match records. A deck with no
// records has a win rate of exactly 0.0, never NaN.
func (d Deck) WinRate() float64 {
	total := len(d.MatchRecords)
	if total == 0 {
		return 0.0
	}
	return float64(d.Wins()) / float64(total) * 100.0
}
