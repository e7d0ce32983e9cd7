package assistant

import (
	"github.com/maitri-mission/maitri/pkg/audio"
)

// DefaultSilenceThreshold is the normalised RMS energy below which captured
// frames are treated as silence and dropped before transmission. Tuned
// empirically against cabin background noise.
const DefaultSilenceThreshold = 0.015

// runCapture pumps microphone frames through the silence gate into send. It
// returns when the device's frame stream ends: the device error for a lost
// device, nil for a clean close. Send failures are reported through send's
// own error return and end the loop early with a nil result; the stream error
// that caused them surfaces through the session's event loop.
func runCapture(dev audio.CaptureDevice, threshold float64, send func([]byte) error) error {
	for frame := range dev.Frames() {
		if audio.RMSEnergy(frame.Data) < threshold {
			continue
		}
		if err := send(frame.Data); err != nil {
			return nil
		}
	}
	return dev.Err()
}
