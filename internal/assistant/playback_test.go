package assistant

import (
	"testing"
	"time"

	"github.com/maitri-mission/maitri/pkg/audio"
	audiomock "github.com/maitri-mission/maitri/pkg/audio/mock"
)

// pcmOfDuration builds a silent 24 kHz chunk of the given duration.
func pcmOfDuration(d time.Duration) []byte {
	samples := int(d.Seconds() * audio.PlaybackSampleRate)
	return make([]byte, samples*audio.BytesPerSample)
}

func TestPlayback_SchedulesBackToBack(t *testing.T) {
	t.Parallel()

	player := audiomock.NewPlayer()
	p := NewPlayback(player)

	for range 3 {
		if err := p.Enqueue(pcmOfDuration(100 * time.Millisecond)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	chunks := player.Scheduled()
	if len(chunks) != 3 {
		t.Fatalf("scheduled %d chunks, want 3", len(chunks))
	}
	for i, want := range []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond} {
		if chunks[i].At != want {
			t.Errorf("chunk %d scheduled at %v, want %v", i, chunks[i].At, want)
		}
	}
	if got := p.Cursor(); got != 300*time.Millisecond {
		t.Errorf("cursor = %v, want 300ms", got)
	}
}

func TestPlayback_ClockAheadOfCursor(t *testing.T) {
	t.Parallel()

	player := audiomock.NewPlayer()
	p := NewPlayback(player)

	// The output clock has moved past the (zero) cursor; the chunk must not
	// be scheduled in the past.
	player.Advance(500 * time.Millisecond)
	if err := p.Enqueue(pcmOfDuration(100 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	chunks := player.Scheduled()
	if len(chunks) != 1 {
		t.Fatalf("scheduled %d chunks, want 1", len(chunks))
	}
	if chunks[0].At != 500*time.Millisecond {
		t.Errorf("chunk scheduled at %v, want 500ms", chunks[0].At)
	}
	if got := p.Cursor(); got != 600*time.Millisecond {
		t.Errorf("cursor = %v, want 600ms", got)
	}
}

func TestPlayback_InterruptClearsState(t *testing.T) {
	t.Parallel()

	player := audiomock.NewPlayer()
	p := NewPlayback(player)

	for range 4 {
		if err := p.Enqueue(pcmOfDuration(50 * time.Millisecond)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	p.Interrupt()

	if got := p.Active(); got != 0 {
		t.Errorf("Active() = %d, want 0", got)
	}
	if got := p.Cursor(); got != 0 {
		t.Errorf("Cursor() = %v, want 0", got)
	}
	if got := player.Stopped(); got != 4 {
		t.Errorf("stopped chunks = %d, want 4", got)
	}
}

func TestPlayback_SchedulesCleanlyAfterInterrupt(t *testing.T) {
	t.Parallel()

	player := audiomock.NewPlayer()
	p := NewPlayback(player)

	if err := p.Enqueue(pcmOfDuration(time.Second)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	p.Interrupt()

	if err := p.Enqueue(pcmOfDuration(100 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	chunks := player.Scheduled()
	if len(chunks) != 2 {
		t.Fatalf("scheduled %d chunks, want 2", len(chunks))
	}
	// Cursor was zeroed, clock is still at zero.
	if chunks[1].At != 0 {
		t.Errorf("post-interrupt chunk scheduled at %v, want 0", chunks[1].At)
	}
}

func TestPlayback_HandleReleasedAfterPlayback(t *testing.T) {
	t.Parallel()

	player := audiomock.NewPlayer()
	p := NewPlayback(player)

	if err := p.Enqueue(pcmOfDuration(100 * time.Millisecond)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got := p.Active(); got != 1 {
		t.Fatalf("Active() = %d, want 1", got)
	}

	player.Advance(150 * time.Millisecond)

	waitUntil(t, func() bool { return p.Active() == 0 }, "handle not released after playback finished")
}

func TestPlayback_EmptyChunkIgnored(t *testing.T) {
	t.Parallel()

	player := audiomock.NewPlayer()
	p := NewPlayback(player)

	if err := p.Enqueue(nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got := len(player.Scheduled()); got != 0 {
		t.Errorf("scheduled %d chunks, want 0", got)
	}
}
