package beats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// pcmAudio is decoded mono audio in the [-1, 1] range.
type pcmAudio struct {
	samples    []float64
	sampleRate int
}

var errNotWAV = errors.New("not a RIFF/WAVE file")

// readWAV decodes a 16-bit PCM WAV file, averaging channels down to
// mono. This matches the layout the audio extraction step produces.
func readWAV(path string) (*pcmAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeWAV(f)
}

func decodeWAV(r io.Reader) (*pcmAudio, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read RIFF header: %w", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, errNotWAV
	}

	var (
		sampleRate    int
		channels      int
		bitsPerSample int
		haveFmt       bool
	)

	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, errors.New("no data chunk found")
			}
			return nil, err
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("read fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported WAV format %d, want PCM", format)
			}
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			if bitsPerSample != 16 {
				return nil, fmt.Errorf("unsupported bit depth %d, want 16", bitsPerSample)
			}
			if channels < 1 {
				return nil, errors.New("no channels")
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, errors.New("data chunk before fmt chunk")
			}
			raw := make([]byte, size)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, fmt.Errorf("read data chunk: %w", err)
			}
			frames := len(raw) / (2 * channels)
			samples := make([]float64, frames)
			for i := 0; i < frames; i++ {
				var sum float64
				for ch := 0; ch < channels; ch++ {
					off := (i*channels + ch) * 2
					v := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
					sum += float64(v) / 32768.0
				}
				samples[i] = sum / float64(channels)
			}
			return &pcmAudio{samples: samples, sampleRate: sampleRate}, nil

		default:
			// Skip LIST, fact and other chunks. Chunk bodies are word
			// aligned.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, err
			}
		}
	}
}
