package cards

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FlatCard is the legacy upstream card shape: a flat object with PascalCase
// field names and a comma-joined color list.
type FlatCard struct {
	Name            string `json:"Name"`
	Cost            *int   `json:"Cost"`
	Type            string `json:"Type"`
	Color           string `json:"Color"`
	Inkable         *bool  `json:"Inkable"`
	BodyText        string `json:"Body_Text"`
	FlavorText      string `json:"Flavor_Text"`
	Artist          string `json:"Artist"`
	Rarity          string `json:"Rarity"`
	Image           string `json:"Image"`
	SetName         string `json:"Set_Name"`
	SetID           string `json:"Set_ID"`
	SetNum          *int   `json:"Set_Num"`
	Strength        *int   `json:"Strength"`
	Willpower       *int   `json:"Willpower"`
	Lore            *int   `json:"Lore"`
	Classifications string `json:"Classifications"`
}

// ToCard converts the flat shape into the canonical Card. The conversion is
// total: missing fields stay absent and no error paths exist.
func (f FlatCard) ToCard() Card {
	card := Card{
		Name:        f.Name,
		Cost:        f.Cost,
		Color:       f.Color,
		Inkwell:     f.Inkable,
		Type:        f.Type,
		Rarity:      DisplayRarity(f.Rarity),
		Set:         f.SetID,
		SetName:     f.SetName,
		SetNumber:   f.SetNum,
		FlavorText:  f.FlavorText,
		Illustrator: f.Artist,
		ImageURL:    f.Image,
		Strength:    f.Strength,
		Willpower:   f.Willpower,
		Lore:        f.Lore,
	}

	// The id is only synthesized when both halves exist. A random fallback
	// would break entry de-duplication in decks, so absence stays absence.
	if f.SetID != "" && f.SetNum != nil {
		card.ID = f.SetID + "-" + strconv.Itoa(*f.SetNum)
	}

	if text := strings.TrimSpace(f.BodyText); text != "" {
		card.Abilities = []string{f.BodyText}
	}

	card.Classifications = splitTrimmed(f.Classifications)

	if card.ImageURL == "" {
		name, title := splitDisplayName(f.Name)
		card.ImageURL = FallbackImageURL(name, title)
	}

	return card
}

// VariantCard is the newer upstream card shape: nested variants, per-language
// names and structured abilities.
type VariantCard struct {
	Set         string     `json:"set"`
	Cost        *int       `json:"cost"`
	Inkwell     *bool      `json:"inkwell"`
	Color       string     `json:"color"`
	Type        string     `json:"type"`
	Rarity      string     `json:"rarity"`
	Illustrator string     `json:"illustrator"`
	Strength    *int       `json:"strength"`
	Willpower   *int       `json:"willpower"`
	Lore        *int       `json:"lore"`
	Variants    []Variant  `json:"variants"`
	Languages   Languages  `json:"languages"`
	Abilities   []Ability  `json:"abilities"`
	ImageURIs   *ImageURIs `json:"image_uris"`
}

// Variant is one printing of a card in the variant shape.
type Variant struct {
	Set         string `json:"set"`
	ID          *int   `json:"id"`
	Dreamborn   string `json:"dreamborn"`
	Rarity      string `json:"rarity"`
	Illustrator string `json:"illustrator"`
}

// Languages holds the per-language card text. English is the default
// language; the others are localizations.
type Languages struct {
	EN *Language `json:"en"`
	FR *Language `json:"fr"`
	DE *Language `json:"de"`
	ZH *Language `json:"zh"`
	JA *Language `json:"ja"`
}

// Language is one language's name, title and flavor text.
type Language struct {
	Name    string `json:"name"`
	Title   string `json:"title"`
	Flavour string `json:"flavour"`
}

// Ability is a structured ability entry in the variant shape.
type Ability struct {
	Type    string       `json:"type"`
	Title   *AbilityText `json:"title"`
	Text    *AbilityText `json:"text"`
	Ability string       `json:"ability"`
}

// AbilityText carries the English rendering of an ability fragment.
type AbilityText struct {
	EN string `json:"en"`
}

// ImageURIs groups the digital image renditions of a card.
type ImageURIs struct {
	Digital *DigitalImages `json:"digital"`
}

// DigitalImages lists image URLs by size.
type DigitalImages struct {
	Small  string `json:"small"`
	Normal string `json:"normal"`
	Large  string `json:"large"`
}

// ToCard converts the variant shape into the canonical Card. Localized text
// is preferred over the English default when present.
func (v VariantCard) ToCard() Card {
	card := Card{
		Cost:        v.Cost,
		Color:       v.Color,
		Inkwell:     v.Inkwell,
		Type:        v.Type,
		Rarity:      DisplayRarity(v.Rarity),
		Set:         v.Set,
		Illustrator: v.Illustrator,
		Strength:    v.Strength,
		Willpower:   v.Willpower,
		Lore:        v.Lore,
	}

	if len(v.Variants) > 0 && v.Variants[0].ID != nil {
		card.ID = strconv.Itoa(*v.Variants[0].ID)
	}

	lang := v.Languages.preferred()
	if lang != nil {
		card.Name = displayName(lang.Name, lang.Title)
		card.FlavorText = lang.Flavour
	}

	for _, a := range v.Abilities {
		switch {
		case strings.TrimSpace(a.Ability) != "":
			card.Abilities = append(card.Abilities, a.Ability)
		case a.Text != nil && strings.TrimSpace(a.Text.EN) != "":
			card.Abilities = append(card.Abilities, a.Text.EN)
		}
	}

	if v.ImageURIs != nil && v.ImageURIs.Digital != nil {
		d := v.ImageURIs.Digital
		switch {
		case d.Large != "":
			card.ImageURL = d.Large
		case d.Normal != "":
			card.ImageURL = d.Normal
		case d.Small != "":
			card.ImageURL = d.Small
		}
	}
	if card.ImageURL == "" && v.Languages.EN != nil {
		// The fallback URL is always derived from the English name, which is
		// what the image host keys its paths on.
		card.ImageURL = FallbackImageURL(v.Languages.EN.Name, v.Languages.EN.Title)
	}

	return card
}

// preferred returns the localized language data when present, falling back to
// the English default.
func (l Languages) preferred() *Language {
	if l.JA != nil {
		return l.JA
	}
	return l.EN
}

// Decode normalizes one raw JSON card object of either upstream shape into
// the canonical Card. It returns an error only when the object cannot be
// decoded as JSON at all; missing fields are not an error.
func Decode(raw []byte) (Card, error) {
	var probe struct {
		Languages json.RawMessage `json:"languages"`
		Variants  json.RawMessage `json:"variants"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Card{}, err
	}

	if len(probe.Languages) > 0 || len(probe.Variants) > 0 {
		var v VariantCard
		if err := json.Unmarshal(raw, &v); err != nil {
			return Card{}, err
		}
		return v.ToCard(), nil
	}

	var f FlatCard
	if err := json.Unmarshal(raw, &f); err != nil {
		return Card{}, err
	}
	return f.ToCard(), nil
}

// rarityNames maps the variant shape's snake_case rarity tokens to their
// display form. Tokens already in display form pass through unchanged.
var rarityNames = map[string]string{
	"common":     "Common",
	"uncommon":   "Uncommon",
	"rare":       "Rare",
	"super_rare": "Super Rare",
	"legendary":  "Legendary",
	"enchanted":  "Enchanted",
}

// DisplayRarity maps an upstream rarity token to its display-case form.
// Unrecognized tokens have their first letter capitalized and are otherwise
// passed through.
func DisplayRarity(rarity string) string {
	if rarity == "" {
		return ""
	}
	if name, ok := rarityNames[strings.ToLower(rarity)]; ok {
		return name
	}
	return capitalize(rarity)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// splitDisplayName splits a combined "Name - Title" display name into its
// halves. Cards without a title return the whole string and "".
func splitDisplayName(display string) (name, title string) {
	if pos := strings.Index(display, " - "); pos >= 0 {
		return display[:pos], display[pos+3:]
	}
	return display, ""
}

// displayName joins a name and title back into the combined display form.
func displayName(name, title string) string {
	title = strings.TrimSpace(title)
	if name == "" || title == "" {
		return name
	}
	return name + " - " + title
}

func splitTrimmed(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
