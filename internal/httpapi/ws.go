package httpapi

import (
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/maitri-mission/maitri/internal/assistant"
	"github.com/maitri-mission/maitri/internal/persona"
	"github.com/maitri-mission/maitri/internal/scene"
	"github.com/maitri-mission/maitri/internal/store"
	"github.com/maitri-mission/maitri/pkg/audio"
)

// Websocket frame types exchanged with the habitat tablet.
const (
	frameAudio      = "audio"
	frameText       = "text"
	frameState      = "state"
	frameTranscript = "transcript"
	frameEffect     = "effect"
	frameInterrupt  = "interrupt"
	frameError      = "error"
)

// wsFrame is the JSON frame shared by both directions of the assistant
// socket. Client frames carry audio (base64 PCM16LE at 16 kHz) or typed
// text; server frames carry audio (24 kHz, with a playback start offset),
// transcript snapshots, state changes, tool side effects, playback
// interrupts, and errors.
type wsFrame struct {
	Type string `json:"type"`

	Data string `json:"data,omitempty"`
	AtMS int64  `json:"atMs,omitempty"`

	Text string `json:"text,omitempty"`

	State string           `json:"state,omitempty"`
	Lines []assistant.Line `json:"lines,omitempty"`

	Effect       string       `json:"effect,omitempty"`
	Screen       string       `json:"screen,omitempty"`
	MediaType    string       `json:"mediaType,omitempty"`
	SymptomLogID string       `json:"symptomLogId,omitempty"`
	Scene        *scene.Scene `json:"scene,omitempty"`

	Error string `json:"error,omitempty"`
}

const (
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 2 << 20
	wsOutboundSize = 256
)

// wsBridge adapts one websocket connection into the audio endpoints of a
// voice session: it is the session's capture device (client audio frames in),
// its player (scheduled audio frames out), and its tool effects sink.
type wsBridge struct {
	conn     *websocket.Conn
	outbound chan wsFrame
	frames   chan audio.Frame
	started  time.Time

	done      chan struct{}
	closeOnce sync.Once

	// interrupted collapses a burst of cancelled chunks into one interrupt
	// frame; the next forwarded chunk re-arms it.
	interrupted atomic.Bool

	mu      sync.Mutex
	readErr error
}

var (
	_ audio.CaptureDevice = (*wsBridge)(nil)
	_ audio.Player        = (*wsBridge)(nil)
	_ assistant.Effects   = (*wsBridge)(nil)
)

func newWSBridge(conn *websocket.Conn) *wsBridge {
	return &wsBridge{
		conn:     conn,
		outbound: make(chan wsFrame, wsOutboundSize),
		frames:   make(chan audio.Frame, 8),
		started:  time.Now(),
		done:     make(chan struct{}),
	}
}

// send queues a frame for the single writer goroutine. Frames are dropped
// once the bridge is shut down.
func (b *wsBridge) send(f wsFrame) {
	select {
	case b.outbound <- f:
	case <-b.done:
	}
}

// writer is the only goroutine writing to the websocket.
func (b *wsBridge) writer() {
	for {
		select {
		case <-b.done:
			return
		case f := <-b.outbound:
			_ = b.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := b.conn.WriteJSON(f); err != nil {
				b.shutdown()
				return
			}
		}
	}
}

// readLoop consumes client frames until the socket closes, feeding audio into
// the capture channel and typed text into the session. It runs on the handler
// goroutine; the capture channel is closed when it returns.
func (b *wsBridge) readLoop(sess *assistant.Session) {
	defer close(b.frames)

	b.conn.SetReadLimit(wsReadLimit)
	var elapsed time.Duration

	for {
		var f wsFrame
		if err := b.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.mu.Lock()
				b.readErr = err
				b.mu.Unlock()
			}
			return
		}

		switch f.Type {
		case frameAudio:
			pcm, err := base64.StdEncoding.DecodeString(f.Data)
			if err != nil || len(pcm) == 0 {
				continue
			}
			frame := audio.Frame{
				Data:       pcm,
				SampleRate: audio.CaptureSampleRate,
				Timestamp:  elapsed,
			}
			elapsed += frame.Duration()
			select {
			case b.frames <- frame:
			case <-b.done:
				return
			}
		case frameText:
			if f.Text != "" {
				_ = sess.SendText(f.Text)
			}
		}
	}
}

func (b *wsBridge) shutdown() {
	b.closeOnce.Do(func() {
		close(b.done)
		_ = b.conn.Close()
	})
}

// Frames implements audio.CaptureDevice.
func (b *wsBridge) Frames() <-chan audio.Frame { return b.frames }

// Err implements audio.CaptureDevice. A clean client disconnect reads as a
// clean end of stream; anything else surfaces as a device error.
func (b *wsBridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.readErr
}

// Close implements audio.CaptureDevice.
func (b *wsBridge) Close() error {
	b.shutdown()
	return nil
}

// Now implements audio.Player: the output clock is time since the socket
// opened. The client schedules received chunks against the same offset.
func (b *wsBridge) Now() time.Duration {
	return time.Since(b.started)
}

// PlayAt implements audio.Player by forwarding the chunk to the client with
// its start offset. The returned handle completes when the chunk would have
// finished playing; stopping it before then tells the client to flush its
// queue, since the bytes have already left the server.
func (b *wsBridge) PlayAt(pcm []byte, at time.Duration) (audio.Handle, error) {
	select {
	case <-b.done:
		return nil, errors.New("httpapi: websocket closed")
	default:
	}

	b.interrupted.Store(false)
	b.send(wsFrame{
		Type: frameAudio,
		Data: base64.StdEncoding.EncodeToString(pcm),
		AtMS: at.Milliseconds(),
	})

	h := &wsHandle{bridge: b, done: make(chan struct{})}
	delay := at + audio.PCMDuration(pcm, audio.PlaybackSampleRate) - b.Now()
	if delay < 0 {
		delay = 0
	}
	h.timer = time.AfterFunc(delay, h.complete)
	return h, nil
}

// Navigate implements assistant.Effects.
func (b *wsBridge) Navigate(screen string) {
	b.send(wsFrame{Type: frameEffect, Effect: "navigate", Screen: screen})
}

// OpenCamera implements assistant.Effects.
func (b *wsBridge) OpenCamera(mediaType, symptomLogID string) {
	b.send(wsFrame{Type: frameEffect, Effect: "camera", MediaType: mediaType, SymptomLogID: symptomLogID})
}

// ApplyScene implements assistant.Effects.
func (b *wsBridge) ApplyScene(sc scene.Scene) {
	b.send(wsFrame{Type: frameEffect, Effect: "scene", Scene: &sc})
}

// wsHandle tracks one forwarded audio chunk. Completion is driven by a wall
// clock timer since the actual playback happens client-side.
type wsHandle struct {
	bridge *wsBridge
	timer  *time.Timer

	once sync.Once
	done chan struct{}
}

func (h *wsHandle) complete() {
	h.once.Do(func() { close(h.done) })
}

// Stop cancels playback. If the chunk had not finished yet the client still
// holds it scheduled, so an interrupt frame tells it to drop everything it
// has queued. A barge-in stops many handles at once; only the first one that
// was still pending emits the frame.
func (h *wsHandle) Stop() {
	if h.timer.Stop() && h.bridge.interrupted.CompareAndSwap(false, true) {
		h.bridge.send(wsFrame{Type: frameInterrupt})
	}
	h.complete()
}

func (h *wsHandle) Done() <-chan struct{} { return h.done }

func (s *Server) handleAssistantWS(w http.ResponseWriter, r *http.Request) {
	if s.assistants == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "voice assistant not configured")
		return
	}
	name := chi.URLParam(r, "name")
	tag := persona.Tag(r.URL.Query().Get("persona"))
	if tag == "" {
		tag = persona.Default
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	bridge := newWSBridge(conn)
	go bridge.writer()
	defer bridge.shutdown()

	sess, err := s.assistants.Open(r.Context(), assistant.OpenRequest{
		Astronaut: name,
		Persona:   tag,
		Mic: func() (audio.CaptureDevice, error) {
			return bridge, nil
		},
		Player:  bridge,
		Effects: bridge,
		OnState: func(st assistant.State) {
			bridge.send(wsFrame{Type: frameState, State: string(st)})
		},
		OnLines: func(lines []assistant.Line) {
			bridge.send(wsFrame{Type: frameTranscript, Lines: lines})
		},
	})
	if err != nil {
		code := "session_failed"
		switch {
		case errors.Is(err, store.ErrNotFound):
			code = "not_found"
		case errors.Is(err, assistant.ErrSessionActive):
			code = "session_active"
		}
		s.logger.Warn("assistant session rejected", "astronaut", name, "code", code, "err", err)
		bridge.send(wsFrame{Type: frameError, Error: err.Error()})
		// Give the writer a moment to flush the error frame.
		time.Sleep(100 * time.Millisecond)
		return
	}

	// Close the socket when the session ends from the provider side so the
	// read loop unblocks.
	go func() {
		<-sess.Done()
		if serr := sess.Err(); serr != nil {
			bridge.send(wsFrame{Type: frameError, Error: serr.Error()})
			time.Sleep(100 * time.Millisecond)
		}
		bridge.shutdown()
	}()

	bridge.readLoop(sess)
	_ = sess.Close()
	<-sess.Done()
}
