package hooks

import "strings"

// Emotion is the closed set of categories a hook can be tagged with.
// General is the catch-all for untagged and unrecognized labels.
type Emotion int

const (
	General Emotion = iota
	Shocked
	Frustrated
	Skeptical
	Urgent
	LifeHack
)

var labels = map[Emotion]string{
	General:    "General",
	Shocked:    "Shocked",
	Frustrated: "Frustrated",
	Skeptical:  "Skeptical",
	Urgent:     "Urgent",
	LifeHack:   "Life Hack",
}

// Label returns the canonical wire spelling of the category
func (e Emotion) Label() string {
	if l, ok := labels[e]; ok {
		return l
	}
	return labels[General]
}

// Slug returns a filename-safe form of the category label
func (e Emotion) Slug() string {
	return strings.ReplaceAll(strings.ToLower(e.Label()), " ", "_")
}

// normalized maps every recognized spelling, including the legacy corpus
// tags, to its canonical category. Lookup is exact on the lowercased,
// trimmed input; no substring matching.
var normalized = map[string]Emotion{
	"general": General,

	"shocked":    Shocked,
	"mind blown": Shocked,
	"mind-blown": Shocked,
	"mindblown":  Shocked,

	"frustrated": Frustrated,
	"anger":      Frustrated,
	"angry":      Frustrated,
	"hate":       Frustrated,

	"skeptical": Skeptical,
	"sceptical": Skeptical,
	"curious":   Skeptical,
	"curiosity": Skeptical,

	"urgent":  Urgent,
	"urgency": Urgent,
	"fear":    Urgent,
	"fearful": Urgent,

	"life hack": LifeHack,
	"life-hack": LifeHack,
	"lifehack":  LifeHack,
	"relieved":  LifeHack,
	"relief":    LifeHack,
}

// Parse maps a free-form emotion label to its closed category.
// Unknown and empty labels land in General.
func Parse(raw string) Emotion {
	if e, ok := normalized[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return e
	}
	return General
}

// reactionEmotions maps a creator reaction to the hook categories that read
// naturally under that facial performance
var reactionEmotions = map[string][]Emotion{
	"scared":    {Urgent, Shocked, Frustrated},
	"joyful":    {LifeHack, Shocked},
	"shocked":   {Shocked, Skeptical, Urgent},
	"confused":  {Skeptical, Frustrated, Shocked},
	"satisfied": {LifeHack, Frustrated},
}

// Requested resolves the selection filter for one request. A reaction label
// expands to its category set (empty for unknown reactions, which lets
// selection fall back to the full pool); otherwise the emotion label parses
// to a single category.
func Requested(emotion, reaction string) []Emotion {
	if r := strings.ToLower(strings.TrimSpace(reaction)); r != "" {
		return append([]Emotion(nil), reactionEmotions[r]...)
	}
	return []Emotion{Parse(emotion)}
}
