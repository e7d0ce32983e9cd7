// Package mock provides test doubles for the live package interfaces.
//
// Use Provider to verify Connect calls and feed controlled sessions. Use
// Session to drive the event stream from the test and inspect what the
// session controller sent upstream.
//
// Example:
//
//	sess := mock.NewSession()
//	p := &mock.Provider{Session: sess}
//	handle, _ := p.Connect(ctx, cfg)
//	sess.Emit(live.Event{Type: live.EventSetupComplete})
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/maitri-mission/maitri/pkg/provider/live"
)

// ConnectCall records a single invocation of Provider.Connect.
type ConnectCall struct {
	// Ctx is the context passed to Connect.
	Ctx context.Context
	// Cfg is the SessionConfig passed to Connect.
	Cfg live.SessionConfig
}

// Provider is a mock implementation of live.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the SessionHandle returned by Connect. If nil, Connect
	// returns a fresh default Session.
	Session live.SessionHandle

	// ConnectErr, if non-nil, is returned as the error from Connect.
	ConnectErr error

	// ProviderCapabilities is returned by Capabilities.
	ProviderCapabilities live.Capabilities

	// ConnectCalls records every call to Connect in order.
	ConnectCalls []ConnectCall
}

// Connect records the call and returns Session, ConnectErr.
func (p *Provider) Connect(ctx context.Context, cfg live.SessionConfig) (live.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConnectCalls = append(p.ConnectCalls, ConnectCall{Ctx: ctx, Cfg: cfg})
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewSession(), nil
}

// Capabilities returns ProviderCapabilities.
func (p *Provider) Capabilities() live.Capabilities {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ProviderCapabilities
}

// Calls returns a copy of all recorded Connect calls.
func (p *Provider) Calls() []ConnectCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ConnectCall, len(p.ConnectCalls))
	copy(out, p.ConnectCalls)
	return out
}

// Ensure Provider implements live.Provider at compile time.
var _ live.Provider = (*Provider)(nil)

// Session is a mock implementation of live.SessionHandle. The test drives
// the event stream with Emit and EmitAll and inspects everything the
// consumer sent with SentAudio, SentText, and SentToolResponses.
type Session struct {
	mu sync.Mutex

	events chan live.Event
	errVal error
	closed bool

	sentAudio     [][]byte
	sentText      []string
	toolResponses [][]live.ToolResponse

	// SendAudioErr, if non-nil, is returned by every SendAudio call.
	SendAudioErr error

	// SendTextErr, if non-nil, is returned by every SendText call.
	SendTextErr error

	// SendToolResponsesErr, if non-nil, is returned by every
	// SendToolResponses call.
	SendToolResponsesErr error
}

// NewSession creates a Session with a buffered event channel.
func NewSession() *Session {
	return &Session{events: make(chan live.Event, 64)}
}

// Emit delivers one event to the consumer.
func (s *Session) Emit(ev live.Event) {
	s.events <- ev
}

// EmitAll delivers events in order.
func (s *Session) EmitAll(evs ...live.Event) {
	for _, ev := range evs {
		s.events <- ev
	}
}

// End closes the event stream with the given terminal error (nil for a clean
// end). Safe to call once.
func (s *Session) End(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.errVal = err
	s.mu.Unlock()
	close(s.events)
}

// SendAudio implements live.SessionHandle.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendAudioErr != nil {
		return s.SendAudioErr
	}
	if s.closed {
		return fmt.Errorf("mock: session closed")
	}
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.sentAudio = append(s.sentAudio, cp)
	return nil
}

// SendText implements live.SessionHandle.
func (s *Session) SendText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendTextErr != nil {
		return s.SendTextErr
	}
	s.sentText = append(s.sentText, text)
	return nil
}

// SendToolResponses implements live.SessionHandle.
func (s *Session) SendToolResponses(resps []live.ToolResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendToolResponsesErr != nil {
		return s.SendToolResponsesErr
	}
	cp := make([]live.ToolResponse, len(resps))
	copy(cp, resps)
	s.toolResponses = append(s.toolResponses, cp)
	return nil
}

// Events implements live.SessionHandle.
func (s *Session) Events() <-chan live.Event { return s.events }

// Err implements live.SessionHandle.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errVal
}

// Close implements live.SessionHandle. Closing ends the event stream cleanly.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	close(s.events)
	return nil
}

// SentAudio returns copies of every chunk passed to SendAudio, in order.
func (s *Session) SentAudio() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.sentAudio))
	copy(out, s.sentAudio)
	return out
}

// SentText returns every text turn passed to SendText, in order.
func (s *Session) SentText() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.sentText))
	copy(out, s.sentText)
	return out
}

// SentToolResponses returns every batch passed to SendToolResponses, in order.
func (s *Session) SentToolResponses() [][]live.ToolResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]live.ToolResponse, len(s.toolResponses))
	copy(out, s.toolResponses)
	return out
}

// Ensure Session implements live.SessionHandle at compile time.
var _ live.SessionHandle = (*Session)(nil)
