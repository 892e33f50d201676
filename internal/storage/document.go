package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/loapalette/companion/internal/deck"
	"github.com/loapalette/companion/internal/lorcana/cards"
)

// wireTimestamp is the timestamp layout used inside deck documents:
// ISO-8601 with millisecond precision, always UTC.
const wireTimestamp = "2006-01-02T15:04:05.000Z"

// deckDocument is the JSON document stored per deck. Timestamps travel as
// strings so documents stay portable across store implementations.
type deckDocument struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Entries      []entryDocument       `json:"entries"`
	InkColors    []string              `json:"inkColors"`
	Memo         string                `json:"memo"`
	CreatedAt    string                `json:"createdAt"`
	UpdatedAt    string                `json:"updatedAt"`
	MatchRecords []matchRecordDocument `json:"matchRecords"`
}

type entryDocument struct {
	ID    string     `json:"id"`
	Card  cards.Card `json:"card"`
	Count int        `json:"count"`
}

type matchRecordDocument struct {
	ID                string   `json:"id"`
	OpponentInkColors []string `json:"opponentInkColors"`
	OpponentDeckName  string   `json:"opponentDeckName"`
	IsWin             bool     `json:"isWin"`
	PlayedAt          string   `json:"playedAt"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(wireTimestamp)
}

// parseTimestamp accepts the canonical layout plus plain RFC 3339 variants
// written by older clients.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{wireTimestamp, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func encodeDeck(d deck.Deck) ([]byte, error) {
	doc := deckDocument{
		ID:           d.ID,
		Name:         d.Name,
		Entries:      make([]entryDocument, 0, len(d.Entries)),
		InkColors:    make([]string, 0, len(d.InkColors)),
		Memo:         d.Memo,
		CreatedAt:    formatTimestamp(d.CreatedAt),
		UpdatedAt:    formatTimestamp(d.UpdatedAt),
		MatchRecords: make([]matchRecordDocument, 0, len(d.MatchRecords)),
	}

	for _, e := range d.Entries {
		doc.Entries = append(doc.Entries, entryDocument{ID: e.ID, Card: e.Card, Count: e.Count})
	}
	for _, ink := range d.InkColors {
		doc.InkColors = append(doc.InkColors, string(ink))
	}
	for _, r := range d.MatchRecords {
		rec := matchRecordDocument{
			ID:                r.ID,
			OpponentInkColors: make([]string, 0, len(r.OpponentInkColors)),
			OpponentDeckName:  r.OpponentDeckName,
			IsWin:             r.IsWin,
			PlayedAt:          formatTimestamp(r.PlayedAt),
		}
		for _, ink := range r.OpponentInkColors {
			rec.OpponentInkColors = append(rec.OpponentInkColors, string(ink))
		}
		doc.MatchRecords = append(doc.MatchRecords, rec)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode deck %s: %w", d.ID, err)
	}
	return data, nil
}

func decodeDeck(data []byte) (deck.Deck, error) {
	var doc deckDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return deck.Deck{}, fmt.Errorf("decode deck document: %w", err)
	}
	if doc.ID == "" {
		return deck.Deck{}, fmt.Errorf("deck document has no id")
	}

	createdAt, err := parseTimestamp(doc.CreatedAt)
	if err != nil {
		return deck.Deck{}, fmt.Errorf("deck %s: %w", doc.ID, err)
	}
	updatedAt, err := parseTimestamp(doc.UpdatedAt)
	if err != nil {
		return deck.Deck{}, fmt.Errorf("deck %s: %w", doc.ID, err)
	}

	d := deck.Deck{
		ID:        doc.ID,
		Name:      doc.Name,
		Memo:      doc.Memo,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}

	for _, e := range doc.Entries {
		d.Entries = append(d.Entries, deck.Entry{ID: e.ID, Card: e.Card, Count: e.Count})
	}
	for _, name := range doc.InkColors {
		ink, ok := deck.ParseInk(name)
		if !ok {
			return deck.Deck{}, fmt.Errorf("deck %s: unknown ink color %q", doc.ID, name)
		}
		d.InkColors = append(d.InkColors, ink)
	}
	for _, rec := range doc.MatchRecords {
		playedAt, err := parseTimestamp(rec.PlayedAt)
		if err != nil {
			return deck.Deck{}, fmt.Errorf("deck %s match %s: %w", doc.ID, rec.ID, err)
		}
		r := deck.MatchRecord{
			ID:               rec.ID,
			OpponentDeckName: rec.OpponentDeckName,
			IsWin:            rec.IsWin,
			PlayedAt:         playedAt,
		}
		for _, name := range rec.OpponentInkColors {
			ink, ok := deck.ParseInk(name)
			if !ok {
				return deck.Deck{}, fmt.Errorf("deck %s match %s: unknown ink color %q", doc.ID, rec.ID, name)
			}
			r.OpponentInkColors = append(r.OpponentInkColors, ink)
		}
		d.MatchRecords = append(d.MatchRecords, r)
	}

	return d, nil
}
