// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	goaiff "github.com/go-audio/aiff"

	"github.com/ik5/audvoice/audio"
	"github.com/ik5/audvoice/formats/internal/intpcm"
)

type Decoder struct{}

// Decode reads a 16-bit AIFF. Non-seekable readers are buffered in memory.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := goaiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	if dec.BitDepth != 16 {
		return nil, ErrOnlyPCM16bitSupported
	}

	src, err := intpcm.New(dec, int(dec.BitDepth))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedAiffLayout, err)
	}

	return src, nil
}
