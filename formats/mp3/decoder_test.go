// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockMP3Reader hands out little-endian PCM in chunks of at most step bytes.
type mockMP3Reader struct {
	sampleRate int
	data       []byte
	step       int
	err        error
}

func newMockReader(rate, step int, samples ...int16) *mockMP3Reader {
	data := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		data = binary.LittleEndian.AppendUint16(data, uint16(s))
	}
	return &mockMP3Reader{sampleRate: rate, data: data, step: step}
}

func (m *mockMP3Reader) SampleRate() int { return m.sampleRate }

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if len(m.data) == 0 {
		return 0, io.EOF
	}
	n := min(len(buf), len(m.data), m.step)
	copy(buf, m.data[:n])
	m.data = m.data[n:]
	return n, nil
}

func readAll(t *testing.T, s *source, size int) []float32 {
	t.Helper()

	var out []float32
	buf := make([]float32, size)
	for range 1000 {
		n, err := s.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
	}
	t.Fatal("source never reached EOF")
	return nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("This is not MP3 data")))
	require.ErrorContains(t, err, "opening mp3 stream")

	_, err = Decoder{}.Decode(bytes.NewReader(nil))
	require.Error(t, err)
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	s := &source{dec: newMockReader(44100, 64), sampleRate: 44100, buf: make([]byte, 8192)}
	assert.Equal(t, 44100, s.SampleRate())
	assert.Equal(t, 2, s.Channels())
	assert.Equal(t, 4096, s.BufSize())
	assert.NoError(t, s.Close())
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	s := &source{dec: newMockReader(44100, 1024, 0, 16384, -16384, -32768), sampleRate: 44100}
	got := readAll(t, s, 8)
	assert.InDeltaSlice(t, []float32{0, 0.5, -0.5, -1}, got, 1e-6)
}

func TestSource_OddByteReads(t *testing.T) {
	t.Parallel()

	// Three byte reads split every other sample across calls.
	s := &source{dec: newMockReader(22050, 3, 100, 200, 300, 400, 500, 600), sampleRate: 22050}
	got := readAll(t, s, 4)
	require.Len(t, got, 6)
	for i, want := range []int16{100, 200, 300, 400, 500, 600} {
		assert.InDelta(t, float32(want)/32768, got[i], 1e-6, "sample %d", i)
	}
}

func TestSource_EmptyBuffer(t *testing.T) {
	t.Parallel()

	s := &source{dec: newMockReader(44100, 64, 1, 2), sampleRate: 44100}
	n, err := s.ReadSamples(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSource_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad frame")
	s := &source{dec: &mockMP3Reader{err: boom}, sampleRate: 44100}
	_, err := s.ReadSamples(make([]float32, 4))
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "decoding mp3 frame")
}
