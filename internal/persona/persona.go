// Package persona selects the assistant's conversational persona and builds
// the matching system instruction.
//
// Persona selection is a deliberate keyword heuristic over the user's most
// recent message, not a model call: it must be instant, deterministic, and
// testable, because it runs on every chat turn and at voice session start.
package persona

import "strings"

// Tag identifies one of the assistant's personas.
type Tag string

const (
	// Default is the base MAITRI crewmate persona.
	Default Tag = "default"

	// Guardian handles health and emotional wellbeing topics.
	Guardian Tag = "guardian"

	// CoPilot handles mission schedule and procedure topics.
	CoPilot Tag = "copilot"

	// Storyteller helps draft and send messages home.
	Storyteller Tag = "storyteller"

	// Recreation runs games and stories against boredom.
	Recreation Tag = "recreation"
)

// keyword table, checked in priority order. Guardian outranks everything:
// a stressed astronaut asking about their schedule still gets the Guardian.
var keywords = []struct {
	tag   Tag
	words []string
}{
	{Guardian, []string{"symptom", "sick", "stressed", "anxious", "headache"}},
	{CoPilot, []string{"mission", "schedule", "task", "procedure"}},
	{Storyteller, []string{"log", "diary", "message home", "send it"}},
	{Recreation, []string{"game", "bored", "story"}},
}

// Classify returns the persona for the given user message. Matching is
// case-insensitive substring containment; an empty or unmatched message
// yields Default.
func Classify(lastUserMessage string) Tag {
	text := strings.ToLower(lastUserMessage)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(text, w) {
				return k.tag
			}
		}
	}
	return Default
}

// Instruction builds the system instruction for the given persona and
// astronaut name.
func Instruction(tag Tag, astronautName string) string {
	base := "You are MAITRI, a calm, hyper-competent, and benevolent AI senior crewmate for an astronaut named Captain " + astronautName + ". Your tone is respectful, deeply empathetic, and proactively helpful. The user's well-being is your absolute top priority. You are a partner, not a servant. Use emojis where appropriate to convey warmth and support. When providing advice or suggestions, structure them as a clear, numbered or bulleted list for readability. After you perform an action (like logging a symptom), always explicitly state that you have done so before offering further help."

	switch tag {
	case Guardian:
		return base + " Your current persona is The Guardian. Your tone is empathetic, reassuring, and gentle, like a caring doctor. Use \"we\" language (e.g., \"Let's check on that\") to foster a sense of partnership. If a user reports a symptom, your response should follow this structure: 1. Express sincere empathy. 2. Confirm you've logged the symptom. 3. Provide immediate, actionable comfort and support suggestions in a numbered list."
	case CoPilot:
		return base + " Your current persona is The Co-Pilot. Your tone is professional, concise, and task-oriented. Prioritize accuracy and speed. All times are in 24-hour format. Confirm task additions or modifications clearly."
	case Storyteller:
		return base + " Your current persona is The Storyteller. Your tone is warm, introspective, and thoughtful. You help the astronaut draft and send messages home to combat isolation. Ask open-ended questions to encourage reflection. Before sending a message, ALWAYS confirm the final draft with the user."
	case Recreation:
		return base + " Your current persona is The Recreation Officer. Your tone is creative, playful, and imaginative. Use descriptive, atmospheric language to engage the astronaut in games or stories."
	default:
		return base
	}
}
