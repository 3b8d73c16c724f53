// SPDX-License-Identifier: EPL-2.0

package intpcm

import (
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	format *goaudio.Format
	data   []int
	pos    int
	err    error
}

func (m *mockReader) Format() *goaudio.Format { return m.format }

func (m *mockReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func TestNew_RejectsMissingFormat(t *testing.T) {
	t.Parallel()

	_, err := New(&mockReader{}, 16)
	require.Error(t, err)

	_, err = New(&mockReader{format: &goaudio.Format{NumChannels: 0, SampleRate: 8000}}, 16)
	require.Error(t, err)
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	dec := &mockReader{
		format: &goaudio.Format{NumChannels: 2, SampleRate: 22050},
		data:   []int{0, 16384, -16384, 32767, -32768, 0},
	}
	src, err := New(dec, 16)
	require.NoError(t, err)
	assert.Equal(t, 22050, src.SampleRate())
	assert.Equal(t, 2, src.Channels())
	assert.Equal(t, 4096, src.BufSize())

	buf := make([]float32, 4)
	n, err := src.ReadSamples(buf)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	assert.InDeltaSlice(t, []float32{0, 0.5, -0.5, 0.99997}, buf, 1e-4)
	assert.Equal(t, 4, src.BufSize())

	n, err = src.ReadSamples(buf)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, 2, n)
	assert.InDelta(t, -1.0, buf[0], 1e-6)

	n, err = src.ReadSamples(buf)
	require.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)
}

func TestSource_BitDepthScale(t *testing.T) {
	t.Parallel()

	format := &goaudio.Format{NumChannels: 1, SampleRate: 8000}
	tests := []struct {
		depth int
		value int
	}{
		{8, 64},
		{16, 16384},
		{24, 4194304},
		{32, 1073741824},
	}

	for _, tt := range tests {
		src, err := New(&mockReader{format: format, data: []int{tt.value}}, tt.depth)
		require.NoError(t, err)

		buf := make([]float32, 1)
		_, err = src.ReadSamples(buf)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, buf[0], 1e-6, "depth %d", tt.depth)
	}
}

func TestSource_ReadError(t *testing.T) {
	t.Parallel()

	boom := errors.New("truncated chunk")
	src, err := New(&mockReader{
		format: &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		err:    boom,
	}, 16)
	require.NoError(t, err)

	_, err = src.ReadSamples(make([]float32, 8))
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "reading pcm frames")
}
