// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audvoice/audio"
)

// oggReader is the part of oggvorbis.Reader the source reads from.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec      oggReader
	channels int
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// ReadSamples reads whole frames only; a dst shorter than one frame yields
// nothing.
func (s *source) ReadSamples(dst []float32) (int, error) {
	dst = dst[:len(dst)-len(dst)%s.channels]
	if len(dst) == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("decoding vorbis packet: %w", err)
	}
	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening vorbis stream: %w", err)
	}
	if dec.Channels() <= 0 {
		return nil, fmt.Errorf("vorbis stream has %d channels", dec.Channels())
	}

	return &source{
		dec:      dec,
		channels: dec.Channels(),
	}, nil
}
