// Package audio defines the PCM types and device abstractions used by the
// voice assistant pipeline. All audio in the pipeline is little-endian
// 16-bit mono PCM; sample rates differ per direction (the capture side runs
// at 16 kHz, the synthesis side at 24 kHz).
package audio

import "time"

const (
	// CaptureSampleRate is the sample rate of microphone input in Hz.
	CaptureSampleRate = 16000

	// PlaybackSampleRate is the sample rate of synthesised model audio in Hz.
	PlaybackSampleRate = 24000

	// CaptureFrameSamples is the number of samples per capture frame.
	// 4096 samples at 16 kHz is 256 ms per frame.
	CaptureFrameSamples = 4096

	// BytesPerSample for int16 PCM.
	BytesPerSample = 2
)

// Frame is a single frame of mono PCM audio flowing through the pipeline.
type Frame struct {
	// Data is little-endian int16 PCM.
	Data []byte

	// SampleRate in Hz.
	SampleRate int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Duration returns the playback duration of the frame.
func (f Frame) Duration() time.Duration {
	return PCMDuration(f.Data, f.SampleRate)
}

// PCMDuration returns the duration of a mono int16 PCM buffer at the given
// sample rate. Zero or negative sample rates yield zero.
func PCMDuration(pcm []byte, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / BytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
