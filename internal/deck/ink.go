// Package deck holds the deck aggregate, its match records and the pure
// mutation functions that operate on them.
package deck

import "strings"

// Ink is one of the six card affinity colors. A deck declares up to two.
type Ink string

const (
	InkAmber    Ink = "Amber"
	InkAmethyst Ink = "Amethyst"
	InkRuby     Ink = "Ruby"
	InkSapphire Ink = "Sapphire"
	InkSteel    Ink = "Steel"
	InkEmerald  Ink = "Emerald"
)

// Inks returns all ink colors in their canonical order.
func Inks() []Ink {
	return []Ink{InkAmber, InkAmethyst, InkRuby, InkSapphire, InkSteel, InkEmerald}
}

// ParseInk resolves a color name to its Ink value, ignoring case.
func ParseInk(s string) (Ink, bool) {
	for _, ink := range Inks() {
		if strings.EqualFold(string(ink), s) {
			return ink, true
		}
	}
	return "", false
}

// DisplayName returns the ink's display name.
func (i Ink) DisplayName() string {
	return string(i)
}

// DeckName derives a deck name from a color combination, e.g. "Ruby/Steel".
// An empty combination yields an empty name.
func DeckName(colors []Ink) string {
	if len(colors) == 0 {
		return ""
	}
	names := make([]string, len(colors))
	for i, c := range colors {
		names[i] = c.DisplayName()
	}
	return strings.Join(names, "/")
}
