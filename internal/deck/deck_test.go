package deck

import (
	"testing"
	"time"

	"github.com/loapalette/companion/internal/lorcana/cards"
)

func testCard(id, name string) cards.Card {
	return cards.Card{ID: id, Name: name}
}

func TestNewDerivesNameFromInkColors(t *testing.T) {
	d := New("", []Ink{InkRuby, InkSteel})
	if d.Name != "Ruby/Steel" {
		t.Errorf("Name = %q, want Ruby/Steel", d.Name)
	}
	if d.ID == "" {
		t.Error("ID must be generated")
	}
	if d.TotalCardCount() != 0 {
		t.Errorf("TotalCardCount = %d, want 0", d.TotalCardCount())
	}
}

func TestNewKeepsExplicitName(t *testing.T) {
	d := New("Aggro", []Ink{InkRuby})
	if d.Name != "Aggro" {
		t.Errorf("Name = %q, want Aggro", d.Name)
	}
}

func TestAddCardCapsAtFourCopies(t *testing.T) {
	d := New("Test", nil)
	card := testCard("TFC-1", "Mickey Mouse")

	d = d.AddCard(card, 2)
	d = d.AddCard(card, 3)

	if len(d.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(d.Entries))
	}
	if d.Entries[0].Count != 4 {
		t.Errorf("count = %d, want 4 (capped)", d.Entries[0].Count)
	}

	// Repeated adds never push past the cap.
	d = d.AddCard(card, 1)
	if d.Entries[0].Count != 4 {
		t.Errorf("count = %d after another add, want 4", d.Entries[0].Count)
	}
}

func TestAddCardNewEntryCapped(t *testing.T) {
	d := New("Test", nil).AddCard(testCard("TFC-2", "Stitch"), 9)
	if d.Entries[0].Count != 4 {
		t.Errorf("count = %d, want 4", d.Entries[0].Count)
	}
}

func TestAddCardDistinctIDs(t *testing.T) {
	d := New("Test", nil)
	d = d.AddCard(testCard("TFC-1", "Mickey Mouse"), 1)
	d = d.AddCard(testCard("TFC-2", "Stitch"), 2)
	if len(d.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(d.Entries))
	}
	if d.TotalCardCount() != 3 {
		t.Errorf("TotalCardCount = %d, want 3", d.TotalCardCount())
	}
}

func TestAddCardDoesNotMutateReceiver(t *testing.T) {
	base := New("Test", nil).AddCard(testCard("TFC-1", "Mickey Mouse"), 1)
	_ = base.AddCard(testCard("TFC-1", "Mickey Mouse"), 3)
	if base.Entries[0].Count != 1 {
		t.Errorf("receiver mutated: count = %d, want 1", base.Entries[0].Count)
	}
}

func TestRemoveCard(t *testing.T) {
	d := New("Test", nil).AddCard(testCard("TFC-1", "Mickey Mouse"), 1)
	before := d.UpdatedAt

	d = d.RemoveCard("TFC-1")
	if len(d.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(d.Entries))
	}

	// Removing a card that is not there still bumps UpdatedAt.
	d = d.RemoveCard("nope")
	if !d.UpdatedAt.After(before) && !d.UpdatedAt.Equal(before) {
		t.Error("UpdatedAt went backwards")
	}
}

func TestUpdateCardCount(t *testing.T) {
	card := testCard("TFC-1", "Mickey Mouse")

	tests := []struct {
		name      string
		count     int
		wantGone  bool
		wantCount int
	}{
		{"set to three", 3, false, 3},
		{"zero removes", 0, true, 0},
		{"negative removes", -5, true, 0},
		{"no cap applied", 9, false, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New("Test", nil).AddCard(card, 2)
			d = d.UpdateCardCount("TFC-1", tt.count)
			if tt.wantGone {
				if len(d.Entries) != 0 {
					t.Fatalf("entries = %d, want 0", len(d.Entries))
				}
				return
			}
			if len(d.Entries) != 1 {
				t.Fatalf("entries = %d, want 1", len(d.Entries))
			}
			if d.Entries[0].Count != tt.wantCount {
				t.Errorf("count = %d, want %d", d.Entries[0].Count, tt.wantCount)
			}
		})
	}
}

func TestUpdateCardCountMissingEntryIsNoop(t *testing.T) {
	d := New("Test", nil)
	before := d.UpdatedAt
	d = d.UpdateCardCount("nope", 3)
	if len(d.Entries) != 0 {
		t.Errorf("entries = %d, want 0", len(d.Entries))
	}
	if !d.UpdatedAt.Equal(before) {
		t.Error("UpdatedAt must not change when nothing matched")
	}
}

func TestMatchRecords(t *testing.T) {
	d := New("Test", nil)
	win := NewMatchRecord([]Ink{InkAmber}, "", true, time.Now())
	loss := NewMatchRecord([]Ink{InkSteel}, "Steel Aggro", false, time.Now())

	d = d.AddMatchRecord(win)
	d = d.AddMatchRecord(loss)

	if d.Wins() != 1 || d.Losses() != 1 {
		t.Errorf("wins/losses = %d/%d, want 1/1", d.Wins(), d.Losses())
	}
	if d.WinRate() != 50.0 {
		t.Errorf("WinRate = %v, want 50.0", d.WinRate())
	}

	d = d.RemoveMatchRecord(loss.ID)
	if len(d.MatchRecords) != 1 {
		t.Fatalf("records = %d, want 1", len(d.MatchRecords))
	}
	if d.WinRate() != 100.0 {
		t.Errorf("WinRate = %v, want 100.0", d.WinRate())
	}
}

func TestWinRateZeroRecords(t *testing.T) {
	d := New("Test", nil)
	rate := d.WinRate()
	if rate != 0.0 {
		t.Errorf("WinRate = %v, want exactly 0.0", rate)
	}
}

func TestNewMatchRecordDerivesOpponentName(t *testing.T) {
	r := NewMatchRecord([]Ink{InkAmber, InkAmethyst}, "", true, time.Time{})
	if r.OpponentDeckName != "Amber/Amethyst" {
		t.Errorf("OpponentDeckName = %q", r.OpponentDeckName)
	}
	if r.PlayedAt.IsZero() {
		t.Error("PlayedAt must default to now")
	}

	named := NewMatchRecord([]Ink{InkAmber}, "Mill", false, time.Time{})
	if named.OpponentDeckName != "Mill" {
		t.Errorf("OpponentDeckName = %q, want Mill", named.OpponentDeckName)
	}
}

func TestParseInk(t *testing.T) {
	if ink, ok := ParseInk("ruby"); !ok || ink != InkRuby {
		t.Errorf("ParseInk(ruby) = %v, %v", ink, ok)
	}
	if _, ok := ParseInk("chartreuse"); ok {
		t.Error("ParseInk must reject unknown colors")
	}
}
