package assistant

import (
	"fmt"
	"sync"
	"time"

	"github.com/maitri-mission/maitri/pkg/audio"
)

// Playback schedules synthesised audio chunks onto a Player for gapless
// output. Each chunk starts at max(cursor, clock now) and the cursor advances
// by the chunk's duration at schedule time, so bursts of chunks queue
// back-to-back ahead of real time. Interrupt hard-stops everything and resets
// the cursor so the next chunk schedules from a clean baseline.
type Playback struct {
	player audio.Player

	mu      sync.Mutex
	cursor  time.Duration
	handles map[audio.Handle]struct{}
}

// NewPlayback creates a Playback stage over player.
func NewPlayback(player audio.Player) *Playback {
	return &Playback{
		player:  player,
		handles: make(map[audio.Handle]struct{}),
	}
}

// Enqueue schedules one 24 kHz mono PCM chunk. The handle is tracked until
// the chunk finishes playing.
func (p *Playback) Enqueue(pcm []byte) error {
	if len(pcm) == 0 {
		return nil
	}

	p.mu.Lock()
	at := p.cursor
	if now := p.player.Now(); now > at {
		at = now
	}
	h, err := p.player.PlayAt(pcm, at)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("assistant: schedule playback: %w", err)
	}
	p.cursor = at + audio.PCMDuration(pcm, audio.PlaybackSampleRate)
	p.handles[h] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-h.Done()
		p.mu.Lock()
		delete(p.handles, h)
		p.mu.Unlock()
	}()
	return nil
}

// Interrupt stops every tracked chunk immediately, clears the handle set, and
// zeroes the cursor.
func (p *Playback) Interrupt() {
	p.mu.Lock()
	handles := make([]audio.Handle, 0, len(p.handles))
	for h := range p.handles {
		handles = append(handles, h)
	}
	p.handles = make(map[audio.Handle]struct{})
	p.cursor = 0
	p.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// Active returns the number of chunks currently scheduled or playing.
func (p *Playback) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Cursor returns the clock position at which the next chunk would start if it
// arrived with the output clock behind the cursor.
func (p *Playback) Cursor() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}
