// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audvoice/audio"
	"github.com/ik5/audvoice/utils"
)

// mp3Reader is the part of gomp3.Decoder the source reads from.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	// odd byte left over from a read that ended mid-sample
	carry []byte
}

func (s *source) SampleRate() int { return s.sampleRate }

// Channels is always 2: go-mp3 upmixes mono streams.
func (s *source) Channels() int { return 2 }
func (s *source) Close() error  { return nil }
func (s *source) BufSize() int  { return cap(s.buf) / 2 }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	s.buf = s.buf[:need]

	off := copy(s.buf, s.carry)
	s.carry = s.carry[:0]

	n, err := s.dec.Read(s.buf[off:])
	n += off
	samples := n / 2
	if n%2 == 1 {
		s.carry = append(s.carry, s.buf[n-1])
	}

	for i := range samples {
		dst[i] = utils.Int16ToFloat32(utils.PCM16At(s.buf, i))
	}

	if samples == 0 && err == nil {
		// go-mp3 may return 0, nil between frames.
		return 0, nil
	}
	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("decoding mp3 frame: %w", err)
	}
	return samples, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("opening mp3 stream: %w", err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
