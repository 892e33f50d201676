// Package cards defines the canonical Lorcana card model and normalizes the
// upstream catalog API's heterogeneous card representations into it.
package cards

// Card represents a single catalog card in its canonical form.
// Instances are produced by the normalizer and never mutated afterwards.
//
// Optional numeric and boolean attributes use pointers so that "absent" is
// distinguishable from a legitimate zero (a cost-0 action is not a card with
// no cost). Optional strings use the empty string for absence.
type Card struct {
	// ID is synthesized from the upstream representation: "{setID}-{setNum}"
	// for the flat shape, the first variant's numeric id for the variant
	// shape. It stays empty when the upstream data carries neither; an id is
	// never fabricated.
	ID string `json:"id,omitempty"`

	Name    string `json:"name,omitempty"`
	Cost    *int   `json:"cost,omitempty"`
	Color   string `json:"color,omitempty"`
	Inkwell *bool  `json:"inkwell,omitempty"`
	Type    string `json:"type,omitempty"`
	Rarity  string `json:"rarity,omitempty"`

	Set       string `json:"set,omitempty"`
	SetName   string `json:"setName,omitempty"`
	SetNumber *int   `json:"setNumber,omitempty"`

	FlavorText  string   `json:"flavorText,omitempty"`
	Illustrator string   `json:"illustrator,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Abilities   []string `json:"abilities,omitempty"`

	Classifications []string `json:"classifications,omitempty"`

	Strength  *int `json:"strength,omitempty"`
	Willpower *int `json:"willpower,omitempty"`
	Lore      *int `json:"lore,omitempty"`
}

// HasID reports whether the card carries a usable identifier.
func (c Card) HasID() bool {
	return c.ID != ""
}
