package hooks

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Emotion
	}{
		{"Shocked", Shocked},
		{"shocked", Shocked},
		{"Mind Blown", Shocked},
		{"mind-blown", Shocked},
		{"Frustrated", Frustrated},
		{"anger", Frustrated},
		{"ANGRY", Frustrated},
		{"hate", Frustrated},
		{"Skeptical", Skeptical},
		{"sceptical", Skeptical},
		{"curious", Skeptical},
		{"curiosity", Skeptical},
		{" urgent ", Urgent},
		{"Urgency", Urgent},
		{"fear", Urgent},
		{"fearful", Urgent},
		{"Life Hack", LifeHack},
		{"life-hack", LifeHack},
		{"lifehack", LifeHack},
		{"relieved", LifeHack},
		{"relief", LifeHack},
		{"General", General},
		{"", General},
		{"spicy", General},
		{"urgently", General},
	}

	for _, c := range cases {
		if got := Parse(c.in); got != c.want {
			t.Errorf("Parse(%q) = %s, want %s", c.in, got.Label(), c.want.Label())
		}
	}
}

func TestLabelAndSlug(t *testing.T) {
	if LifeHack.Label() != "Life Hack" {
		t.Errorf("LifeHack.Label() = %q, want %q", LifeHack.Label(), "Life Hack")
	}
	if LifeHack.Slug() != "life_hack" {
		t.Errorf("LifeHack.Slug() = %q, want %q", LifeHack.Slug(), "life_hack")
	}
	if Emotion(99).Label() != "General" {
		t.Errorf("out-of-range Label() = %q, want %q", Emotion(99).Label(), "General")
	}
}

func TestRequested(t *testing.T) {
	cases := []struct {
		name     string
		emotion  string
		reaction string
		want     []Emotion
	}{
		{"known reaction expands", "", "scared", []Emotion{Urgent, Shocked, Frustrated}},
		{"reaction wins over emotion", "urgent", "joyful", []Emotion{LifeHack, Shocked}},
		{"unknown reaction yields empty set", "", "bored", nil},
		{"emotion parses to one category", "urgency", "", []Emotion{Urgent}},
		{"nothing requested lands in General", "", "", []Emotion{General}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Requested(c.emotion, c.reaction)
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("Requested(%q, %q) = %v, want %v", c.emotion, c.reaction, got, c.want)
			}
		})
	}
}
