package cards

import "testing"

func TestFallbackImageURL(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "Mickey Mouse",
			title: "Brave Little Tailor",
			want:  "https://lorcana-api.com/images/mickey_mouse/brave_little_tailor/mickey_mouse-brave_little_tailor-large.png",
		},
		{
			name:  "Lantern",
			title: "",
			want:  "https://lorcana-api.com/images/lantern/lantern-large.png",
		},
		{
			// Curly apostrophe collapses to the plain one.
			name:  "Ursula’s Cauldron",
			title: "",
			want:  "https://lorcana-api.com/images/ursula's_cauldron/ursula's_cauldron-large.png",
		},
		{
			// Commas are stripped, hyphens in the name become underscores.
			name:  "Hundred-Acre, Wood",
			title: "",
			want:  "https://lorcana-api.com/images/hundred_acre_wood/hundred_acre_wood-large.png",
		},
		{
			// Known abbreviation applies to the character segment.
			name:  "Tramp",
			title: "Enterprising Dog",
			want:  "https://lorcana-api.com/images/tram/enterprising_dog/tramp-enterprising_dog-large.png",
		},
		{
			// Titles only replace spaces, not hyphens.
			name:  "Title Case",
			title: "A Whole New-World",
			want:  "https://lorcana-api.com/images/title_case/a_whole_new-world/title_case-a_whole_new-world-large.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FallbackImageURL(tt.name, tt.title); got != tt.want {
				t.Errorf("FallbackImageURL(%q, %q)\n got %q\nwant %q", tt.name, tt.title, got, tt.want)
			}
		})
	}
}

func TestFallbackImageURLEmptyName(t *testing.T) {
	if got := FallbackImageURL("", "Some Title"); got != "" {
		t.Errorf("got %q, want empty for missing name", got)
	}
}

func TestFallbackImageURLTrimsBlankTitle(t *testing.T) {
	want := "https://lorcana-api.com/images/lantern/lantern-large.png"
	if got := FallbackImageURL("Lantern", "   "); got != want {
		t.Errorf("got %q, want untitled form", got)
	}
}
