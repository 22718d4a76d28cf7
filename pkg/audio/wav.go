package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// wavFormatPCM is the RIFF fmt audio format tag for uncompressed PCM.
const wavFormatPCM = 1

// DecodeWAV parses a RIFF/WAV container and returns its PCM payload as a
// [Clip]. Only 16-bit PCM is supported; other encodings return
// [ErrUnsupportedFormat]. A data chunk whose declared size exceeds the
// actual payload (ffmpeg writes placeholder sizes when streaming to a pipe)
// is read to EOF.
func DecodeWAV(r io.Reader) (Clip, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Clip{}, fmt.Errorf("audio: read RIFF header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return Clip{}, fmt.Errorf("%w: not a RIFF/WAVE container", ErrUnsupportedFormat)
	}

	var (
		clip     Clip
		haveFmt  bool
		haveData bool
	)
	for !haveData {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return Clip{}, fmt.Errorf("audio: read chunk header: %w", err)
		}
		id := string(chunkHeader[0:4])
		size := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return Clip{}, fmt.Errorf("%w: fmt chunk too small", ErrUnsupportedFormat)
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return Clip{}, fmt.Errorf("audio: read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			sampleRate := binary.LittleEndian.Uint32(body[4:8])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != wavFormatPCM {
				return Clip{}, fmt.Errorf("%w: fmt tag %d (only PCM is supported)", ErrUnsupportedFormat, format)
			}
			if bits != 16 {
				return Clip{}, fmt.Errorf("%w: %d bits per sample (only 16 is supported)", ErrUnsupportedFormat, bits)
			}
			if channels == 0 || sampleRate == 0 {
				return Clip{}, fmt.Errorf("%w: zero channels or sample rate", ErrUnsupportedFormat)
			}
			clip.Channels = int(channels)
			clip.SampleRate = int(sampleRate)
			haveFmt = true

		case "data":
			if !haveFmt {
				return Clip{}, fmt.Errorf("%w: data chunk before fmt chunk", ErrUnsupportedFormat)
			}
			data, err := readDataChunk(r, size)
			if err != nil {
				return Clip{}, err
			}
			clip.Data = data
			haveData = true

		default:
			// Skip LIST, INFO and other ancillary chunks. Chunk sizes are
			// padded to even byte boundaries.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return Clip{}, fmt.Errorf("audio: skip %q chunk: %w", id, err)
			}
		}
	}

	if !haveData {
		return Clip{}, fmt.Errorf("%w: missing data chunk", ErrUnsupportedFormat)
	}
	if len(clip.Data)%2 == 1 {
		clip.Data = clip.Data[:len(clip.Data)-1]
	}
	return clip, nil
}

// readDataChunk reads the PCM payload. A declared size of 0 or 0xFFFFFFFF
// means "until EOF" (streamed output), as does a short read.
func readDataChunk(r io.Reader, declared uint32) ([]byte, error) {
	if declared == 0 || declared == 0xFFFFFFFF {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("audio: read data chunk: %w", err)
		}
		return data, nil
	}
	data := make([]byte, declared)
	n, err := io.ReadFull(r, data)
	if err == io.ErrUnexpectedEOF {
		return data[:n], nil
	}
	if err != nil {
		return nil, fmt.Errorf("audio: read data chunk: %w", err)
	}
	return data, nil
}

// EncodeWAV wraps a clip's PCM data in a standard 44-byte RIFF/WAV header.
func EncodeWAV(clip Clip) []byte {
	const bps = 16
	byteRate := clip.SampleRate * clip.Channels * bps / 8
	blockAlign := clip.Channels * bps / 8
	dataSize := len(clip.Data)

	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], wavFormatPCM)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(clip.Channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(clip.SampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bps)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], clip.Data)

	return buf
}
