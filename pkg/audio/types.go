// Package audio provides decoding and normalisation of uploaded lecture
// recordings. WAV containers are parsed natively; compressed containers
// (mp3, m4a, ogg) are decoded by shelling out to ffmpeg. All downstream
// processing operates on [Clip] values holding 16-bit signed little-endian
// PCM.
package audio

import (
	"errors"
	"time"
)

// ErrUnsupportedFormat is returned when an upload's container or sample
// encoding cannot be decoded.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// STTFormat is the canonical format expected by speech-to-text providers:
// 16 kHz mono.
var STTFormat = Format{SampleRate: 16000, Channels: 1}

// Format describes the sample rate and channel count of a PCM stream.
type Format struct {
	SampleRate int
	Channels   int
}

// Clip is a fully decoded audio recording. Data is interleaved 16-bit
// signed little-endian PCM.
type Clip struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// Format returns the clip's sample rate and channel count.
func (c Clip) Format() Format {
	return Format{SampleRate: c.SampleRate, Channels: c.Channels}
}

// Frames returns the number of sample frames (samples per channel).
func (c Clip) Frames() int {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	return len(c.Data) / (2 * c.Channels)
}

// Duration returns the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Truncate returns a clip capped at max playback duration. Clips already
// within the limit are returned unchanged. A non-positive max disables the
// cap.
func (c Clip) Truncate(max time.Duration) Clip {
	if max <= 0 || c.Duration() <= max {
		return c
	}
	frames := int(int64(c.SampleRate) * int64(max) / int64(time.Second))
	n := frames * 2 * c.Channels
	if n > len(c.Data) {
		n = len(c.Data)
	}
	out := c
	out.Data = c.Data[:n]
	return out
}
