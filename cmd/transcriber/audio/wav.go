// Package audio handles ingestion of recordings into the 16KHz mono PCM
// sample format the transcription engines consume.
package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	// SampleRate is the sample rate every engine in this repository expects.
	SampleRate = 16000

	audioChannels = 1
	audioBitDepth = 16

	wavHeaderLen = 44
)

// EncodeWAV wraps float32 samples in a WAV container (16-bit PCM, mono,
// 16KHz).
func EncodeWAV(samples []float32) []byte {
	wav := make([]byte, wavHeaderLen+len(samples)*2)
	pcm := wav[wavHeaderLen:]

	wav[0] = 'R'
	wav[1] = 'I'
	wav[2] = 'F'
	wav[3] = 'F'
	binary.LittleEndian.PutUint32(wav[4:], uint32(len(wav)-8))
	wav[8] = 'W'
	wav[9] = 'A'
	wav[10] = 'V'
	wav[11] = 'E'
	wav[12] = 'f'
	wav[13] = 'm'
	wav[14] = 't'
	wav[15] = ' '
	binary.LittleEndian.PutUint32(wav[16:], 16)
	binary.LittleEndian.PutUint16(wav[20:], 1)
	binary.LittleEndian.PutUint16(wav[22:], audioChannels)
	binary.LittleEndian.PutUint32(wav[24:], SampleRate)
	binary.LittleEndian.PutUint32(wav[28:], (SampleRate*audioBitDepth*audioChannels)/8)
	binary.LittleEndian.PutUint16(wav[32:], (audioBitDepth*audioChannels)/8)
	binary.LittleEndian.PutUint16(wav[34:], audioBitDepth)
	wav[36] = 'd'
	wav[37] = 'a'
	wav[38] = 't'
	wav[39] = 'a'
	binary.LittleEndian.PutUint32(wav[40:], uint32(len(samples)*2))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s*32768.0))
	}

	return wav
}

// DecodeWAV parses a RIFF WAV file and returns its samples as float32 in
// the range [-1, 1). Only 16KHz mono 16-bit PCM is accepted; anything else
// should go through ffmpeg conversion first.
func DecodeWAV(data []byte) ([]float32, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF WAVE file")
	}

	var fmtFound bool
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := data[off+8:]
		if size > len(body) {
			size = len(body)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("fmt chunk too short")
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			channels := binary.LittleEndian.Uint16(body[2:4])
			rate := binary.LittleEndian.Uint32(body[4:8])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != 1 || channels != audioChannels || rate != SampleRate || bits != audioBitDepth {
				return nil, fmt.Errorf("unsupported WAV format: format=%d channels=%d rate=%d bits=%d",
					format, channels, rate, bits)
			}
			fmtFound = true
		case "data":
			if !fmtFound {
				return nil, fmt.Errorf("data chunk precedes fmt chunk")
			}
			return pcmToFloat32(body[:size]), nil
		}

		off += 8 + size
		if size%2 == 1 {
			// Chunks are word aligned.
			off++
		}
	}

	return nil, fmt.Errorf("no data chunk found")
}

// pcmToFloat32 converts 16-bit signed little-endian PCM to float32 samples
// normalized to [-1.0, 1.0). Any trailing odd byte is ignored.
func pcmToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		samples[i] = float32(sample) / 32768.0
	}
	return samples
}

// ProbeWAV16kMono reports whether the file at path is already a conformant
// 16KHz mono 16-bit PCM WAV, in which case conversion can be skipped.
func ProbeWAV16kMono(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	// Enough for the RIFF header plus a canonical fmt chunk.
	hdr := make([]byte, 36)
	if _, err := f.Read(hdr); err != nil {
		return false
	}

	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" || string(hdr[12:16]) != "fmt " {
		return false
	}

	format := binary.LittleEndian.Uint16(hdr[20:22])
	channels := binary.LittleEndian.Uint16(hdr[22:24])
	rate := binary.LittleEndian.Uint32(hdr[24:28])
	bits := binary.LittleEndian.Uint16(hdr[34:36])

	return format == 1 && channels == audioChannels && rate == SampleRate && bits == audioBitDepth
}
