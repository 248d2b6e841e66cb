package models

// Mood is the fixed set of moods a user can pick for a day.
type Mood struct {
	Glyph string
	Name  string
	Value float64
}

var (
	Happy   = Mood{Glyph: "😊", Name: "Happy", Value: 2}
	Neutral = Mood{Glyph: "😐", Name: "Neutral", Value: 1}
	Sad     = Mood{Glyph: "😔", Name: "Sad", Value: 0}
)

// Moods lists every mood in picker order.
var Moods = []Mood{Happy, Neutral, Sad}

// DefaultMood is preselected in the entry form.
var DefaultMood = Happy

// MoodFromGlyph resolves a stored glyph. Unknown glyphs resolve to Sad,
// which matches how the mobile client has always read them back.
func MoodFromGlyph(glyph string) Mood {
	for _, m := range Moods {
		if m.Glyph == glyph {
			return m
		}
	}
	return Sad
}

// IsMoodGlyph reports whether glyph names one of the known moods.
func IsMoodGlyph(glyph string) bool {
	for _, m := range Moods {
		if m.Glyph == glyph {
			return true
		}
	}
	return false
}
