// Package query builds filter expressions in the catalog API's search
// grammar: `field~substr` for partial match, `field=value` for exact match,
// `field>=n`/`field<=n` for ranges, `;` for AND and `;|` for OR with
// parenthesised groups.
package query

import (
	"fmt"
	"strings"
)

// Criteria is a structured card filter. Zero values and nil pointers mean
// "not filtered"; Expression renders only the set fields.
type Criteria struct {
	// Name filters by partial card name match.
	Name string

	CostMin *int
	CostMax *int

	StrengthMin *int
	StrengthMax *int

	WillpowerMin *int
	WillpowerMax *int

	LoreMin *int
	LoreMax *int

	// SetName and Artist filter by partial match.
	SetName string
	Artist  string

	// Inkable filters on the inkwell flag when non-nil.
	Inkable *bool

	// Colors, Types and Rarities are OR-combined within each list and
	// AND-combined with everything else.
	Colors   []string
	Types    []string
	Rarities []string
}

// Expression renders the criteria as an upstream filter string. An empty
// criteria renders as "".
func (c Criteria) Expression() string {
	var clauses []string

	if name := strings.TrimSpace(c.Name); name != "" {
		clauses = append(clauses, "name~"+name)
	}

	clauses = appendRange(clauses, "cost", c.CostMin, c.CostMax)
	clauses = appendRange(clauses, "strength", c.StrengthMin, c.StrengthMax)
	clauses = appendRange(clauses, "willpower", c.WillpowerMin, c.WillpowerMax)
	clauses = appendRange(clauses, "lore", c.LoreMin, c.LoreMax)

	if set := strings.TrimSpace(c.SetName); set != "" {
		clauses = append(clauses, "set_name~"+set)
	}
	if artist := strings.TrimSpace(c.Artist); artist != "" {
		clauses = append(clauses, "artist~"+artist)
	}
	if c.Inkable != nil {
		clauses = append(clauses, fmt.Sprintf("inkable=%t", *c.Inkable))
	}

	// Colors use partial match because the API renders multi-ink cards as a
	// comma-joined list ("Amber, Steel").
	colorClause := orGroup(mapClauses(c.Colors, func(v string) string {
		return "color~" + strings.ToLower(v)
	}), len(clauses) > 0)

	typeClause := orGroup(mapClauses(c.Types, func(v string) string {
		return "type=" + v
	}), len(clauses) > 0 || colorClause != "")

	// Exact rarity match is unreliable upstream, so rarities use ~ too.
	rarityClause := orGroup(mapClauses(c.Rarities, func(v string) string {
		return "rarity~" + v
	}), len(clauses) > 0 || colorClause != "" || typeClause != "")

	var orClauses []string
	for _, clause := range []string{colorClause, typeClause, rarityClause} {
		if clause != "" {
			orClauses = append(orClauses, clause)
		}
	}

	result := append([]string(nil), clauses...)
	switch len(orClauses) {
	case 0:
	case 1:
		result = append(result, orClauses[0])
	default:
		result = append(result, "("+strings.Join(orClauses, ";|")+";)")
	}

	return strings.Join(result, ";")
}

func appendRange(clauses []string, field string, min, max *int) []string {
	if min != nil {
		clauses = append(clauses, fmt.Sprintf("%s>=%d", field, *min))
	}
	if max != nil {
		clauses = append(clauses, fmt.Sprintf("%s<=%d", field, *max))
	}
	return clauses
}

func mapClauses(values []string, render func(string) string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, render(trimmed))
		}
	}
	return out
}

// orGroup joins OR alternatives. A single alternative stands alone; several
// are ;|-joined and, when combined with other clauses, wrapped in a
// parenthesised group so the AND around them binds correctly.
func orGroup(alternatives []string, hasSiblings bool) string {
	switch len(alternatives) {
	case 0:
		return ""
	case 1:
		return alternatives[0]
	default:
		inner := strings.Join(alternatives, ";|")
		if hasSiblings {
			return "(" + inner + ";)"
		}
		return inner
	}
}
