package audio

import "math"

// RMSEnergy computes the root-mean-square energy of a mono int16 PCM buffer,
// normalised to [0, 1]. An empty or misaligned buffer yields 0. The result is
// used for silence gating: frames below a threshold carry no speech worth
// forwarding upstream.
func RMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / BytesPerSample
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i+1 < len(pcm); i += BytesPerSample {
		s := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(samples))
}

// Float32ToPCM16 converts normalised float32 samples in [-1, 1] to
// little-endian int16 PCM, clamping out-of-range values.
func Float32ToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s := int16(v * 32767)
		out[i*2] = byte(uint16(s))
		out[i*2+1] = byte(uint16(s) >> 8)
	}
	return out
}

// PCM16ToFloat32 converts little-endian int16 PCM to normalised float32
// samples. A trailing odd byte is ignored.
func PCM16ToFloat32(pcm []byte) []float32 {
	out := make([]float32, 0, len(pcm)/BytesPerSample)
	for i := 0; i+1 < len(pcm); i += BytesPerSample {
		s := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		out = append(out, float32(s)/32768.0)
	}
	return out
}
