package audio

import "time"

// CaptureDevice is an open microphone stream producing fixed-size PCM frames.
// Implementations close the Frames channel when the stream ends; callers
// should then check Err to see whether it ended cleanly.
type CaptureDevice interface {
	// Frames returns the stream of captured frames. The channel is closed
	// when the device is closed or the underlying source fails.
	Frames() <-chan Frame

	// Err returns the error that terminated the stream, or nil.
	Err() error

	// Close releases the device. Safe to call more than once.
	Close() error
}

// Handle tracks one scheduled playback chunk.
type Handle interface {
	// Stop cancels the chunk, whether it is still pending or already
	// playing. Stopping a finished chunk is a no-op.
	Stop()

	// Done is closed once the chunk has finished playing or was stopped.
	Done() <-chan struct{}
}

// Player schedules PCM chunks onto an output device against a monotonic
// clock. Gapless playback is the caller's responsibility: schedule each
// chunk at the time the previous one ends.
type Player interface {
	// Now returns the player's current clock position.
	Now() time.Duration

	// PlayAt schedules a mono int16 PCM chunk to start at the given clock
	// position. Scheduling in the past starts the chunk immediately.
	PlayAt(pcm []byte, at time.Duration) (Handle, error)
}
