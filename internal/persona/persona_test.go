package persona

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Tag
	}{
		{"I have a headache coming on", Guardian},
		{"feeling a bit SICK today", Guardian},
		{"what's on the mission schedule", CoPilot},
		{"add a task for 14:00", CoPilot},
		{"I want to record a log entry", Storyteller},
		{"draft a message home for me", Storyteller},
		{"I'm so bored up here", Recreation},
		{"tell me a story", Recreation},
		{"good morning", Default},
		{"", Default},
	}
	for _, c := range cases {
		if got := Classify(c.in); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestClassify_GuardianOutranksOthers(t *testing.T) {
	t.Parallel()

	// Mentions both a symptom and the schedule; health wins.
	if got := Classify("I'm stressed about the mission schedule"); got != Guardian {
		t.Errorf("Classify = %v, want Guardian", got)
	}
}

func TestInstruction_ContainsName(t *testing.T) {
	t.Parallel()

	for _, tag := range []Tag{Default, Guardian, CoPilot, Storyteller, Recreation} {
		instr := Instruction(tag, "Sharma")
		if !strings.Contains(instr, "Captain Sharma") {
			t.Errorf("Instruction(%v) missing astronaut name", tag)
		}
		if !strings.Contains(instr, "You are MAITRI") {
			t.Errorf("Instruction(%v) missing base instruction", tag)
		}
	}
}

func TestInstruction_PersonaSections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		tag  Tag
		want string
	}{
		{Guardian, "The Guardian"},
		{CoPilot, "The Co-Pilot"},
		{Storyteller, "The Storyteller"},
		{Recreation, "The Recreation Officer"},
	}
	for _, c := range cases {
		if !strings.Contains(Instruction(c.tag, "X"), c.want) {
			t.Errorf("Instruction(%v) missing %q", c.tag, c.want)
		}
	}

	base := Instruction(Default, "X")
	for _, c := range cases {
		if strings.Contains(base, c.want) {
			t.Errorf("default instruction unexpectedly contains %q", c.want)
		}
	}
}
