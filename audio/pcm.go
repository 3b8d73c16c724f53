// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audvoice/utils"
)

// ReadPCM16 drains src and returns its samples as interleaved signed 16-bit
// little-endian PCM, the layout playback backends take. bufferSize is the
// number of float samples read per call; values below one frame fall back
// to src.BufSize().
//
// Reaching the end of src is not an error.
func ReadPCM16(src Source, bufferSize int) ([]byte, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrInvalidDstSize
	}
	if bufferSize < channels {
		bufferSize = max(src.BufSize(), channels)
	}
	// Whole frames only.
	bufferSize -= bufferSize % channels

	buf := make([]float32, bufferSize)
	pcm := make([]byte, 0, src.SampleRate()*channels*2)

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			pcm = utils.AppendFloatPCM16(pcm, buf[:n])
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
		if n == 0 {
			// A source that makes no progress without an error is done.
			break
		}
	}

	return pcm, nil
}
