// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("unplugged") }

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("This is not AIFF data at all")))
	require.ErrorIs(t, err, ErrNotAiffFile)

	_, err = Decoder{}.Decode(bytes.NewReader(nil))
	require.ErrorIs(t, err, ErrNotAiffFile)
}

func TestDecoder_WAVIsNotAiff(t *testing.T) {
	t.Parallel()

	header := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	_, err := Decoder{}.Decode(bytes.NewBuffer(header))
	require.ErrorIs(t, err, ErrNotAiffFile)
}

func TestDecoder_ReadError(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unplugged")
	assert.False(t, errors.Is(err, io.EOF))
}
