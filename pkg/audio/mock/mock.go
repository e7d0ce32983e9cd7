// Package mock provides in-memory audio devices for tests: a scripted
// capture device and a player with a manually advanced clock.
package mock

import (
	"sync"
	"time"

	"github.com/maitri-mission/maitri/pkg/audio"
)

// CaptureDevice is a scripted audio.CaptureDevice. Tests push frames in and
// either close the device cleanly or fail it with an error.
type CaptureDevice struct {
	frames chan audio.Frame

	mu     sync.Mutex
	err    error
	closed bool
}

// NewCaptureDevice creates a CaptureDevice with the given channel buffer.
func NewCaptureDevice(buffer int) *CaptureDevice {
	return &CaptureDevice{frames: make(chan audio.Frame, buffer)}
}

// Push delivers a frame to the consumer. Panics if the device is closed,
// which in a test means frames were pushed after Close or Fail.
func (d *CaptureDevice) Push(f audio.Frame) {
	d.frames <- f
}

// PushPCM is a convenience wrapper that pushes raw 16 kHz PCM.
func (d *CaptureDevice) PushPCM(pcm []byte, ts time.Duration) {
	d.Push(audio.Frame{Data: pcm, SampleRate: audio.CaptureSampleRate, Timestamp: ts})
}

// Fail terminates the stream with err.
func (d *CaptureDevice) Fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.err = err
	d.closed = true
	close(d.frames)
}

// Frames implements audio.CaptureDevice.
func (d *CaptureDevice) Frames() <-chan audio.Frame {
	return d.frames
}

// Err implements audio.CaptureDevice.
func (d *CaptureDevice) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Close implements audio.CaptureDevice.
func (d *CaptureDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	close(d.frames)
	return nil
}

// Chunk records one scheduled playback chunk on the mock Player.
type Chunk struct {
	PCM     []byte
	At      time.Duration
	stopped bool
	done    chan struct{}
	doneSet bool
}

// Stop implements audio.Handle.
func (c *Chunk) Stop() {
	c.stopped = true
}

// Done implements audio.Handle.
func (c *Chunk) Done() <-chan struct{} {
	return c.done
}

// End returns the clock position at which the chunk finishes.
func (c *Chunk) End() time.Duration {
	return c.At + audio.PCMDuration(c.PCM, audio.PlaybackSampleRate)
}

// Player is an audio.Player whose clock only moves when the test calls
// Advance. Chunks complete when the clock passes their end position or when
// they are stopped.
type Player struct {
	mu     sync.Mutex
	now    time.Duration
	chunks []*Chunk
}

// NewPlayer creates a Player with the clock at zero.
func NewPlayer() *Player {
	return &Player{}
}

// Now implements audio.Player.
func (p *Player) Now() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// PlayAt implements audio.Player.
func (p *Player) PlayAt(pcm []byte, at time.Duration) (audio.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := &Chunk{PCM: pcm, At: at, done: make(chan struct{})}
	p.chunks = append(p.chunks, c)
	return c, nil
}

// Advance moves the clock forward and completes every chunk that has either
// finished by the new position or been stopped.
func (p *Player) Advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now += d
	for _, c := range p.chunks {
		if c.doneSet {
			continue
		}
		if c.stopped || c.End() <= p.now {
			c.doneSet = true
			close(c.done)
		}
	}
}

// Scheduled returns all chunks scheduled so far, in scheduling order.
func (p *Player) Scheduled() []*Chunk {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Chunk, len(p.chunks))
	copy(out, p.chunks)
	return out
}

// Stopped reports how many scheduled chunks have been stopped.
func (p *Player) Stopped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.chunks {
		if c.stopped {
			n++
		}
	}
	return n
}
