// Package assistant implements the real-time voice companion session: a
// microphone capture stage gated by silence detection, a bidirectional live
// model stream, gapless audio playback with barge-in support, transcript
// aggregation, and tool dispatch into the wellness store.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maitri-mission/maitri/internal/observe"
	"github.com/maitri-mission/maitri/internal/persona"
	"github.com/maitri-mission/maitri/pkg/audio"
	"github.com/maitri-mission/maitri/pkg/provider/live"
)

// State is the session lifecycle state shown to the user.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateListening  State = "listening"
	StateSpeaking   State = "speaking"
	StateClosed     State = "closed"
)

// ErrDeviceUnavailable is returned by OpenSession when the microphone cannot
// be acquired. The session never reaches Listening.
var ErrDeviceUnavailable = errors.New("assistant: microphone unavailable")

// ErrDeviceLost is the terminal session error when the microphone stream
// ends unexpectedly mid-session.
var ErrDeviceLost = errors.New("assistant: microphone stream ended")

// MicSource acquires a microphone capture device for the session. The
// session owns the returned device and closes it on teardown.
type MicSource func() (audio.CaptureDevice, error)

// SessionConfig configures one voice session.
type SessionConfig struct {
	// Astronaut is the crew member this session belongs to.
	Astronaut string

	// Persona selects the system-instruction variant for the live model.
	Persona persona.Tag

	// Voice is the prebuilt voice name. Empty means the provider default.
	Voice string

	// SilenceThreshold overrides DefaultSilenceThreshold when positive.
	SilenceThreshold float64

	Provider   live.Provider
	Mic        MicSource
	Player     audio.Player
	Dispatcher *Dispatcher
	Logger     *slog.Logger

	// OnState is invoked from the session's goroutines on every state
	// change. Optional.
	OnState func(State)

	// OnLines is invoked from the event loop with a transcript snapshot
	// whenever a line is added or extended. Optional.
	OnLines func([]Line)
}

// Session is one open voice conversation. All turn-buffer and transcript
// state is mutated only by the event loop goroutine; the mutex covers reads
// from other goroutines and the state field.
type Session struct {
	cfg       SessionConfig
	threshold float64
	logger    *slog.Logger
	metrics   *observe.Metrics

	handle   live.SessionHandle
	mic      audio.CaptureDevice
	playback *Playback

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	turnInput  string
	turnOutput string
	transcript *Transcript

	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// OpenSession acquires the microphone, connects the live model stream, and
// starts the capture and event loops. The returned session is in Connecting
// state until the provider acknowledges the setup, then Listening.
func OpenSession(ctx context.Context, cfg SessionConfig) (*Session, error) {
	if cfg.Provider == nil || cfg.Mic == nil || cfg.Player == nil || cfg.Dispatcher == nil {
		return nil, errors.New("assistant: provider, mic, player, and dispatcher are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		cfg:        cfg,
		threshold:  cfg.SilenceThreshold,
		logger:     logger.With("astronaut", cfg.Astronaut),
		metrics:    observe.DefaultMetrics(),
		state:      StateIdle,
		transcript: NewTranscript(),
		done:       make(chan struct{}),
	}
	if s.threshold <= 0 {
		s.threshold = DefaultSilenceThreshold
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	mic, err := cfg.Mic()
	if err != nil {
		s.cancel()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	s.mic = mic
	s.setState(StateConnecting)

	handle, err := cfg.Provider.Connect(ctx, live.SessionConfig{
		Voice:            cfg.Voice,
		Instructions:     persona.Instruction(cfg.Persona, cfg.Astronaut),
		Tools:            Declarations(),
		TranscribeInput:  true,
		TranscribeOutput: true,
	})
	if err != nil {
		_ = mic.Close()
		s.cancel()
		return nil, fmt.Errorf("assistant: connect live session: %w", err)
	}
	s.handle = handle
	s.playback = NewPlayback(cfg.Player)

	s.metrics.ActiveSessions.Add(s.ctx, 1)
	go s.eventLoop()
	go s.captureLoop()
	return s, nil
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Lines returns a snapshot of the transcript so far.
func (s *Session) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Lines()
}

// SendText injects a typed user message into the live conversation.
func (s *Session) SendText(text string) error {
	return s.handle.SendText(text)
}

// Done is closed when the session has fully terminated.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal session error, or nil after a clean close. Only
// meaningful once Done is closed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears the session down: capture stops, scheduled audio is cancelled,
// the microphone is released, and the stream is closed best-effort. Safe to
// call from any state and any number of times.
func (s *Session) Close() error {
	s.terminate(nil)
	return nil
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	if s.state == next || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()
	if s.cfg.OnState != nil {
		s.cfg.OnState(next)
	}
}

// terminate performs the one-time teardown. A nil err is a clean close; a
// non-nil err is surfaced via Err.
func (s *Session) terminate(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		prev := s.state
		s.state = StateClosed
		s.mu.Unlock()

		s.cancel()
		_ = s.mic.Close()
		s.playback.Interrupt()
		// Network errors during stream close are swallowed; the session is
		// going away either way.
		_ = s.handle.Close()
		s.metrics.ActiveSessions.Add(context.Background(), -1)

		if err != nil {
			s.logger.Error("session terminated", "error", err)
		} else {
			s.logger.Info("session closed")
		}
		if s.cfg.OnState != nil && prev != StateClosed {
			s.cfg.OnState(StateClosed)
		}
		close(s.done)
	})
}

// captureLoop feeds gated microphone frames into the live stream until the
// device stream ends.
func (s *Session) captureLoop() {
	err := runCapture(s.mic, s.threshold, func(pcm []byte) error {
		if sendErr := s.handle.SendAudio(pcm); sendErr != nil {
			// The stream failure behind this surfaces via the event loop.
			return sendErr
		}
		s.metrics.AudioBytesIn.Add(s.ctx, int64(len(pcm)))
		return nil
	})
	if err != nil {
		s.terminate(fmt.Errorf("%w: %v", ErrDeviceLost, err))
	}
}

// eventLoop is the sole consumer of the live stream and the sole writer of
// turn-buffer and transcript state. Events are handled strictly in delivery
// order.
func (s *Session) eventLoop() {
	for ev := range s.handle.Events() {
		s.handleEvent(ev)
	}
	if err := s.handle.Err(); err != nil {
		s.terminate(fmt.Errorf("assistant: live stream: %w", err))
		return
	}
	s.terminate(nil)
}

func (s *Session) handleEvent(ev live.Event) {
	switch ev.Type {
	case live.EventSetupComplete:
		s.setState(StateListening)

	case live.EventAudio:
		if err := s.playback.Enqueue(ev.Audio); err != nil {
			s.logger.Warn("playback schedule failed", "error", err)
			return
		}
		s.metrics.AudioBytesOut.Add(s.ctx, int64(len(ev.Audio)))

	case live.EventInputTranscription:
		s.appendFragment(SpeakerUser, ev.Text)

	case live.EventOutputTranscription, live.EventText:
		s.appendFragment(SpeakerAssistant, ev.Text)
		s.setState(StateSpeaking)

	case live.EventTurnComplete:
		s.mu.Lock()
		s.turnInput = ""
		s.turnOutput = ""
		s.transcript.CloseTurn()
		s.mu.Unlock()
		s.setState(StateListening)

	case live.EventInterrupted:
		s.playback.Interrupt()

	case live.EventToolCall:
		resps := s.cfg.Dispatcher.DispatchBatch(s.ctx, ev.ToolCalls)
		if err := s.handle.SendToolResponses(resps); err != nil {
			s.logger.Warn("tool response send failed", "error", err)
		}
	}
}

func (s *Session) appendFragment(speaker Speaker, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	if speaker == SpeakerUser {
		s.turnInput += text
	} else {
		s.turnOutput += text
	}
	s.transcript.Append(speaker, text)
	var snapshot []Line
	if s.cfg.OnLines != nil {
		snapshot = s.transcript.Lines()
	}
	s.mu.Unlock()
	if snapshot != nil {
		s.cfg.OnLines(snapshot)
	}
}
