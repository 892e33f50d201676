package cards

import "strings"

// imageBaseURL is the card image host used when the upstream response has no
// explicit image URL.
const imageBaseURL = "https://lorcana-api.com/images"

// apostrophe is the single code point every apostrophe-like character is
// normalized to before building a URL path segment.
const apostrophe = "'"

// apostropheVariants are the code points the image host treats as a plain
// apostrophe.
var apostropheVariants = []string{
	"’", // right single quotation mark
	"‘", // left single quotation mark
	"`", // grave accent
	"ʼ", // modifier letter apostrophe
	"ʻ", // modifier letter turned comma
	"ˈ", // modifier letter vertical line
}

// nameAbbreviations maps slugged character names to the abbreviated form the
// image host actually uses.
var nameAbbreviations = map[string]string{
	"tramp": "tram",
}

// FallbackImageURL deterministically constructs a card image URL from the
// card's English name and title. It returns "" when the name is empty, since
// no sensible path can be built without it.
func FallbackImageURL(name, title string) string {
	if name == "" {
		return ""
	}

	character := toSnakeCase(name)
	if short, ok := nameAbbreviations[character]; ok {
		character = short
	}
	file := toSnakeCase(name)

	title = strings.TrimSpace(title)
	if title == "" {
		return imageBaseURL + "/" + character + "/" + file + "-large.png"
	}

	titlePath := titleToURLPath(title)
	return imageBaseURL + "/" + character + "/" + titlePath + "/" + file + "-" + titlePath + "-large.png"
}

// sanitizeForURL lowercases the text, collapses apostrophe variants to a
// single code point and strips commas.
func sanitizeForURL(text string) string {
	s := strings.ToLower(text)
	for _, variant := range apostropheVariants {
		s = strings.ReplaceAll(s, variant, apostrophe)
	}
	return strings.ReplaceAll(s, ",", "")
}

func toSnakeCase(text string) string {
	s := sanitizeForURL(text)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ReplaceAll(s, "-", "_")
}

func titleToURLPath(title string) string {
	return strings.ReplaceAll(sanitizeForURL(title), " ", "_")
}
