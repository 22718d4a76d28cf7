package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// SupportedExtensions lists the upload container formats the decoder accepts.
var SupportedExtensions = []string{".wav", ".mp3", ".m4a", ".ogg"}

// IsSupportedExtension reports whether ext (with leading dot, any case) is a
// decodable container format.
func IsSupportedExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Decoder turns uploaded container bytes into normalised [Clip] values.
// WAV input is parsed in-process; everything else goes through ffmpeg with
// the output forced to the target format. Temporary files created during
// conversion are removed immediately after use; removal failures are logged
// and otherwise ignored.
//
// A zero-value Decoder is not usable; construct with [NewDecoder].
type Decoder struct {
	ffmpegPath string
	target     Format
}

// DecoderOption is a functional option for configuring a [Decoder].
type DecoderOption func(*Decoder)

// WithFFmpegPath overrides the ffmpeg executable path. Defaults to "ffmpeg"
// resolved via PATH.
func WithFFmpegPath(path string) DecoderOption {
	return func(d *Decoder) {
		if path != "" {
			d.ffmpegPath = path
		}
	}
}

// WithTargetFormat overrides the normalisation target. Defaults to
// [STTFormat] (16 kHz mono).
func WithTargetFormat(f Format) DecoderOption {
	return func(d *Decoder) {
		if f.SampleRate > 0 && f.Channels > 0 {
			d.target = f
		}
	}
}

// NewDecoder creates a Decoder with the given options.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		ffmpegPath: "ffmpeg",
		target:     STTFormat,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Decode converts raw uploaded bytes into a clip in the decoder's target
// format. name is the original file name; only its extension is used, to
// route between the native WAV parser and ffmpeg. Unsupported extensions
// return [ErrUnsupportedFormat].
func (d *Decoder) Decode(ctx context.Context, name string, data []byte) (Clip, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !IsSupportedExtension(ext) {
		return Clip{}, fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}

	if ext == ".wav" {
		clip, err := DecodeWAV(bytes.NewReader(data))
		if err != nil {
			return Clip{}, err
		}
		return Normalize(clip, d.target), nil
	}
	return d.decodeWithFFmpeg(ctx, ext, data)
}

// decodeWithFFmpeg writes data to a temp file, converts it to a WAV in the
// target format, and parses the result. Both temp files are deleted before
// returning.
func (d *Decoder) decodeWithFFmpeg(ctx context.Context, ext string, data []byte) (Clip, error) {
	in, err := os.CreateTemp("", "lectern-upload-*"+ext)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: create temp input: %w", err)
	}
	defer removeTemp(in.Name())

	if _, err := in.Write(data); err != nil {
		in.Close()
		return Clip{}, fmt.Errorf("audio: write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return Clip{}, fmt.Errorf("audio: close temp input: %w", err)
	}

	out, err := os.CreateTemp("", "lectern-decoded-*.wav")
	if err != nil {
		return Clip{}, fmt.Errorf("audio: create temp output: %w", err)
	}
	outPath := out.Name()
	out.Close()
	defer removeTemp(outPath)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", in.Name(),
		"-ar", strconv.Itoa(d.target.SampleRate),
		"-ac", strconv.Itoa(d.target.Channels),
		"-sample_fmt", "s16",
		"-f", "wav",
		"-y", outPath,
	}
	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return Clip{}, fmt.Errorf("%w: ffmpeg: %s", ErrUnsupportedFormat, msg)
		}
		return Clip{}, fmt.Errorf("%w: ffmpeg: %v", ErrUnsupportedFormat, err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: open decoded output: %w", err)
	}
	defer f.Close()

	clip, err := DecodeWAV(f)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: parse ffmpeg output: %w", err)
	}
	// ffmpeg already produced target rate/channels; Normalize is a no-op
	// unless the requested format was silently adjusted.
	return Normalize(clip, d.target), nil
}

// removeTemp deletes a temp file best-effort.
func removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("audio: failed to remove temp file", "path", path, "err", err)
	}
}
