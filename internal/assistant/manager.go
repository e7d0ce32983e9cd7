package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maitri-mission/maitri/internal/persona"
	"github.com/maitri-mission/maitri/internal/scene"
	"github.com/maitri-mission/maitri/internal/store"
	"github.com/maitri-mission/maitri/pkg/audio"
	"github.com/maitri-mission/maitri/pkg/provider/live"
)

// ErrSessionActive is returned by Manager.Open when the astronaut already has
// an open voice session.
var ErrSessionActive = errors.New("assistant: session already active")

// ManagerOption is a functional option for configuring a [Manager].
type ManagerOption func(*Manager)

// WithVoice sets the prebuilt voice name used for all sessions.
func WithVoice(voice string) ManagerOption {
	return func(m *Manager) {
		m.voice = voice
	}
}

// WithSilenceThreshold overrides the default capture silence threshold.
func WithSilenceThreshold(threshold float64) ManagerOption {
	return func(m *Manager) {
		m.threshold = threshold
	}
}

// WithLogger sets the logger used by the manager and its sessions.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager opens and tracks voice sessions, enforcing at most one open
// session per astronaut. It is safe for concurrent use.
type Manager struct {
	provider  live.Provider
	store     store.Store
	scenes    *scene.Generator
	voice     string
	threshold float64
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	opening  map[string]bool
}

// NewManager creates a Manager over the given live provider, store, and
// scene generator.
func NewManager(provider live.Provider, st store.Store, scenes *scene.Generator, opts ...ManagerOption) *Manager {
	m := &Manager{
		provider: provider,
		store:    st,
		scenes:   scenes,
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
		opening:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OpenRequest carries the per-session inputs supplied by the transport
// layer: the astronaut's audio endpoints and UI callbacks.
type OpenRequest struct {
	Astronaut string
	Persona   persona.Tag
	Mic       MicSource
	Player    audio.Player
	Effects   Effects
	OnState   func(State)
	OnLines   func([]Line)
}

// Open starts a voice session for req.Astronaut. It returns ErrSessionActive
// when a session for the astronaut is already open or being opened, and
// store.ErrNotFound when the astronaut does not exist.
func (m *Manager) Open(ctx context.Context, req OpenRequest) (*Session, error) {
	if _, err := m.store.Get(ctx, req.Astronaut); err != nil {
		return nil, fmt.Errorf("assistant: open session: %w", err)
	}

	m.mu.Lock()
	if m.opening[req.Astronaut] || m.sessions[req.Astronaut] != nil {
		m.mu.Unlock()
		return nil, ErrSessionActive
	}
	m.opening[req.Astronaut] = true
	voice, threshold := m.voice, m.threshold
	m.mu.Unlock()

	dispatcher := NewDispatcher(req.Astronaut, m.store, m.scenes, req.Effects, m.logger)
	s, err := OpenSession(ctx, SessionConfig{
		Astronaut:        req.Astronaut,
		Persona:          req.Persona,
		Voice:            voice,
		SilenceThreshold: threshold,
		Provider:         m.provider,
		Mic:              req.Mic,
		Player:           req.Player,
		Dispatcher:       dispatcher,
		Logger:           m.logger,
		OnState:          req.OnState,
		OnLines:          req.OnLines,
	})

	m.mu.Lock()
	delete(m.opening, req.Astronaut)
	if err == nil {
		m.sessions[req.Astronaut] = s
	}
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	go func() {
		<-s.Done()
		m.mu.Lock()
		if m.sessions[req.Astronaut] == s {
			delete(m.sessions, req.Astronaut)
		}
		m.mu.Unlock()
	}()
	return s, nil
}

// UpdateDefaults changes the voice and silence threshold applied to sessions
// opened after the call. Running sessions keep the values they started with.
func (m *Manager) UpdateDefaults(voice string, threshold float64) {
	m.mu.Lock()
	m.voice = voice
	m.threshold = threshold
	m.mu.Unlock()
}

// Close ends the astronaut's session if one is open. Closing an absent
// session is a no-op.
func (m *Manager) Close(astronaut string) {
	m.mu.Lock()
	s := m.sessions[astronaut]
	m.mu.Unlock()
	if s != nil {
		_ = s.Close()
	}
}

// CloseAll ends every open session and waits for their teardown. Used during
// server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
		<-s.Done()
	}
}
