// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/audvoice/audio"
	"github.com/ik5/audvoice/formats/internal/intpcm"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

type Decoder struct{}

// Decode reads a PCM 16-bit WAV. go-audio needs to seek, so readers that
// cannot are buffered in memory first.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
		}
		return nil, ErrNotWavFile
	}

	if dec.WavAudioFormat != wavFormatPCM || dec.BitDepth != 16 {
		return nil, ErrOnlyPCM16bitSupported
	}

	src, err := intpcm.New(dec, int(dec.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	return src, nil
}
