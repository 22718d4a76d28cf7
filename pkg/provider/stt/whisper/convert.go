package whisper

import "encoding/binary"

// samplesFromPCM decodes 16-bit signed little-endian PCM into float32 samples
// in [-1.0, 1.0]. A trailing odd byte is dropped.
func samplesFromPCM(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		out[i] = pcmSample(pcm, i)
	}
	return out
}

// monoSamplesFromPCM decodes interleaved 16-bit PCM and averages the channels
// of each frame into a single mono sample. whisper.cpp only accepts mono
// input, so multi-channel clips must pass through here first.
func monoSamplesFromPCM(pcm []byte, channels int) []float32 {
	if channels <= 1 {
		return samplesFromPCM(pcm)
	}
	frames := len(pcm) / (2 * channels)
	out := make([]float32, frames)
	for i := range out {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += pcmSample(pcm, i*channels+ch)
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// pcmSample reads the idx-th 16-bit sample and normalises it.
func pcmSample(pcm []byte, idx int) float32 {
	raw := int16(binary.LittleEndian.Uint16(pcm[idx*2 : idx*2+2]))
	return float32(raw) / 32768.0
}
