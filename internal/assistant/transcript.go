package assistant

// Speaker identifies who produced a transcript fragment.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Line is one rendered transcript line.
type Line struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Transcript accumulates incremental transcription fragments into display
// lines. Consecutive fragments from the same speaker extend the speaker's
// current line by plain concatenation until a turn boundary closes it; a
// turn boundary closes the open line for both speakers at once.
//
// Transcript is not safe for concurrent use; the session event loop is its
// sole writer.
type Transcript struct {
	lines []Line
	// open marks whether the last line for each speaker is still extendable.
	open map[Speaker]bool
}

// NewTranscript returns an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{open: make(map[Speaker]bool)}
}

// Append merges fragment into the line list: if the last line belongs to
// speaker and is still open, its text is extended, otherwise a new open line
// is added.
func (t *Transcript) Append(speaker Speaker, fragment string) {
	if n := len(t.lines); n > 0 && t.lines[n-1].Speaker == speaker && t.open[speaker] {
		t.lines[n-1].Text += fragment
		return
	}
	t.lines = append(t.lines, Line{Speaker: speaker, Text: fragment})
	t.open[speaker] = true
}

// CloseTurn closes the open line for both speakers. Subsequent fragments
// always start new lines.
func (t *Transcript) CloseTurn() {
	t.open[SpeakerUser] = false
	t.open[SpeakerAssistant] = false
}

// Lines returns a copy of the current line list.
func (t *Transcript) Lines() []Line {
	out := make([]Line, len(t.lines))
	copy(out, t.lines)
	return out
}
