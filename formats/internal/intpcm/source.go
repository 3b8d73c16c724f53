// SPDX-License-Identifier: EPL-2.0

// Package intpcm adapts the integer PCM decoders of github.com/go-audio to
// audio.Source.
package intpcm

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

// Reader is the part of the go-audio wav and aiff decoders a Source needs.
type Reader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer samples from a Reader to float32.
type Source struct {
	dec      Reader
	rate     int
	channels int
	scale    float32
	intBuf   *goaudio.IntBuffer
}

// New wraps dec. bitDepth selects the normalisation; unknown depths are
// treated as 16-bit.
func New(dec Reader, bitDepth int) (*Source, error) {
	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("missing or empty format: %v", format)
	}

	scale := float32(32768)
	switch bitDepth {
	case 8:
		scale = 128
	case 24:
		scale = 8388608
	case 32:
		scale = 2147483648
	}

	return &Source{
		dec:      dec,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		scale:    scale,
	}, nil
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) Close() error    { return nil }

func (s *Source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil {
			return 0, fmt.Errorf("reading pcm frames: %w", err)
		}
		return 0, io.EOF
	}

	for i, v := range s.intBuf.Data[:n] {
		dst[i] = float32(v) / s.scale
	}

	// go-audio reports the end of data as a short read.
	if n < len(dst) && err == nil {
		return n, io.EOF
	}
	return n, err
}
