package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/loapalette/companion/internal/deck"
)

func writeLegacyFile(t *testing.T, decks ...deck.Deck) string {
	t.Helper()

	body := []byte("[")
	for i, d := range decks {
		data, err := encodeDeck(d)
		if err != nil {
			t.Fatalf("encodeDeck() error = %v", err)
		}
		if i > 0 {
			body = append(body, ',')
		}
		body = append(body, data...)
	}
	body = append(body, ']')

	path := filepath.Join(t.TempDir(), "decks.json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}
	return path
}

func TestReadLegacyDecks(t *testing.T) {
	first := sampleDeck(t)
	second := deck.New("Ruby", []deck.Ink{deck.InkRuby})
	path := writeLegacyFile(t, first, second)

	got, err := ReadLegacyDecks(path)
	if err != nil {
		t.Fatalf("ReadLegacyDecks() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(decks) = %d, want 2", len(got))
	}
	if got[0].ID != first.ID || got[0].Name != "Amber/Steel" {
		t.Errorf("first deck = %+v", got[0])
	}
	if len(got[0].Entries) != 1 || got[0].Entries[0].Count != 4 {
		t.Errorf("first deck entries = %+v", got[0].Entries)
	}
	if got[1].ID != second.ID {
		t.Errorf("second deck = %+v", got[1])
	}
}

func TestReadLegacyDecksMissingFile(t *testing.T) {
	_, err := ReadLegacyDecks(filepath.Join(t.TempDir(), "decks.json"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want fs.ErrNotExist", err)
	}
}

func TestReadLegacyDecksRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decks.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}
	if _, err := ReadLegacyDecks(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestReadLegacyDecksRejectsBrokenEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decks.json")
	body := `[{"name":"no id","createdAt":"2025-03-14T09:26:53.000Z","updatedAt":"2025-03-14T09:26:53.000Z"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}
	if _, err := ReadLegacyDecks(path); err == nil {
		t.Error("expected error for entry without id")
	}
}
