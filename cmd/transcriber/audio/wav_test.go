package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 0.25, -1.0, 0.99}

	wav := EncodeWAV(samples)
	require.Len(t, wav, wavHeaderLen+len(samples)*2)
	require.Equal(t, "RIFF", string(wav[0:4]))
	require.Equal(t, "WAVE", string(wav[8:12]))

	out, err := DecodeWAV(wav)
	require.NoError(t, err)
	require.Len(t, out, len(samples))
	for i := range samples {
		require.InDelta(t, samples[i], out[i], 1.0/32768.0)
	}
}

func TestDecodeWAV(t *testing.T) {
	t.Run("not a WAV", func(t *testing.T) {
		_, err := DecodeWAV([]byte("definitely not audio"))
		require.EqualError(t, err, "not a RIFF WAVE file")
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeWAV([]byte("RIF"))
		require.EqualError(t, err, "not a RIFF WAVE file")
	})

	t.Run("unsupported rate", func(t *testing.T) {
		wav := EncodeWAV([]float32{0, 0})
		// Patch the sample rate field to 44100.
		wav[24] = 0x44
		wav[25] = 0xAC
		wav[26] = 0
		wav[27] = 0
		_, err := DecodeWAV(wav)
		require.ErrorContains(t, err, "unsupported WAV format")
	})

	t.Run("missing data chunk", func(t *testing.T) {
		wav := EncodeWAV(nil)[:36]
		_, err := DecodeWAV(wav)
		require.EqualError(t, err, "no data chunk found")
	})
}

func TestPCMToFloat32(t *testing.T) {
	// 0, max positive, min negative as little-endian int16.
	pcm := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80}
	out := pcmToFloat32(pcm)
	require.Len(t, out, 3)
	require.Equal(t, float32(0), out[0])
	require.InDelta(t, 1.0, out[1], 1.0/32768.0)
	require.Equal(t, float32(-1), out[2])

	// Trailing odd byte is ignored.
	require.Len(t, pcmToFloat32([]byte{0x00, 0x00, 0xFF}), 1)
}

func TestProbeWAV16kMono(t *testing.T) {
	dir := t.TempDir()

	t.Run("conformant file", func(t *testing.T) {
		path := filepath.Join(dir, "good.wav")
		require.NoError(t, os.WriteFile(path, EncodeWAV(make([]float32, 160)), 0600))
		require.True(t, ProbeWAV16kMono(path))
	})

	t.Run("non wav file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.wav")
		require.NoError(t, os.WriteFile(path, []byte("not audio at all, promise"), 0600))
		require.False(t, ProbeWAV16kMono(path))
	})

	t.Run("missing file", func(t *testing.T) {
		require.False(t, ProbeWAV16kMono(filepath.Join(dir, "nope.wav")))
	})
}

