// Package live defines the Provider interface for real-time voice model
// backends.
//
// A live provider wraps a bidirectional streaming service that accepts raw
// audio input and returns synthesised audio output in a single, stateful
// session. The central abstraction is SessionHandle: an open session whose
// server events arrive on one ordered channel, so that consumers observe
// audio, transcriptions, interruptions, turn boundaries, and tool calls in
// exactly the order the service emitted them.
//
// All implementations must be safe for concurrent use.
package live

import (
	"context"

	"github.com/maitri-mission/maitri/pkg/provider/llm"
)

// EventType discriminates the variants of Event.
type EventType int

const (
	// EventSetupComplete signals that the service accepted the session
	// configuration and is ready for audio.
	EventSetupComplete EventType = iota + 1

	// EventAudio carries a chunk of synthesised model speech (24 kHz mono
	// int16 PCM) in Event.Audio.
	EventAudio

	// EventText carries a text part of the model turn in Event.Text.
	EventText

	// EventInputTranscription carries an incremental transcription fragment
	// of the user's speech in Event.Text.
	EventInputTranscription

	// EventOutputTranscription carries an incremental transcription fragment
	// of the model's speech in Event.Text.
	EventOutputTranscription

	// EventTurnComplete marks the end of a model turn.
	EventTurnComplete

	// EventInterrupted signals that the user spoke over the model and all
	// audio emitted for the current turn should be discarded.
	EventInterrupted

	// EventToolCall carries one batch of requested function calls in
	// Event.ToolCalls. Every call must be answered via SendToolResponses.
	EventToolCall
)

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	// ID correlates the call with its response. May be empty on providers
	// that match responses by name only.
	ID string

	// Name of the declared function.
	Name string

	// Args is the JSON-encoded argument object.
	Args string
}

// ToolResponse answers one ToolCall.
type ToolResponse struct {
	ID   string
	Name string

	// Result is the tool outcome fed back to the model, typically a short
	// natural-language confirmation.
	Result string
}

// Event is one server event. Exactly the fields relevant to Type are set.
type Event struct {
	Type      EventType
	Audio     []byte
	Text      string
	ToolCalls []ToolCall
}

// SessionConfig is the initial configuration for a new live session.
type SessionConfig struct {
	// Voice selects the prebuilt voice for synthesised output. Empty means
	// the provider default.
	Voice string

	// Instructions is the system-level prompt defining the assistant's
	// persona and behavioural constraints.
	Instructions string

	// Tools is the set of function declarations offered to the model.
	// Providers may not support changing it mid-session.
	Tools []llm.ToolDefinition

	// TranscribeInput requests incremental transcriptions of user speech.
	TranscribeInput bool

	// TranscribeOutput requests incremental transcriptions of model speech.
	TranscribeOutput bool
}

// Capabilities describes static properties of a live provider. The values
// are assumed constant for the lifetime of the Provider instance.
type Capabilities struct {
	// MaxSessionDurationMs is the hard upper bound on session lifetime in
	// milliseconds. Zero means no documented limit.
	MaxSessionDurationMs int

	// Voices lists the prebuilt voice names available for this provider.
	Voices []string
}

// SessionHandle represents an open live session. It is an interface so that
// test code can supply mock implementations without a network connection.
//
// Events must be drained promptly: the receive loop blocks once the channel
// buffer fills. The channel is closed when the session ends; callers should
// then check Err to see whether it ended cleanly. All methods are safe for
// concurrent use.
type SessionHandle interface {
	// SendAudio delivers a raw PCM chunk (16 kHz mono int16) to the service.
	// Returns an error if the session is closed or the write fails.
	SendAudio(chunk []byte) error

	// SendText injects a text turn into the conversation, as if the user had
	// typed it. The model responds as it would to speech.
	SendText(text string) error

	// SendToolResponses answers one or more pending tool calls. Responses
	// must echo the ID of the call they answer.
	SendToolResponses(resps []ToolResponse) error

	// Events returns the ordered stream of server events. Closed when the
	// session ends.
	Events() <-chan Event

	// Err returns the error that closed the Events channel prematurely, or
	// nil if the session ended cleanly.
	Err() error

	// Close terminates the session and releases all resources. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any live voice backend.
type Provider interface {
	// Connect establishes a new session with the given configuration. The
	// returned SessionHandle is ready to accept audio immediately. The
	// caller owns the handle and must call Close.
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)

	// Capabilities returns static metadata about the underlying model.
	Capabilities() Capabilities
}
