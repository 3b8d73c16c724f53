// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

// Writer streams 16-bit PCM into a WAV container. The header sizes are
// patched on Close, which is why the target must be seekable.
type Writer struct {
	enc   *gowav.Encoder
	buf   *goaudio.IntBuffer
	wrote bool
}

func NewWriter(w io.WriteSeeker, sampleRate, channels int) (*Writer, error) {
	if channels != 1 && channels != 2 {
		return nil, ErrInvalidChannels
	}

	return &Writer{
		enc: gowav.NewEncoder(w, sampleRate, 16, channels, wavFormatPCM),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: 16,
		},
	}, nil
}

// WriteSamples appends interleaved samples.
func (w *Writer) WriteSamples(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	w.wrote = true
	return nil
}

// Close finalises the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if !w.wrote {
		// The encoder emits its header on the first write.
		w.buf.Data = w.buf.Data[:0]
		if err := w.enc.Write(w.buf); err != nil {
			return fmt.Errorf("writing wav header: %w", err)
		}
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("closing wav encoder: %w", err)
	}
	return nil
}

// WriteWAV16 writes a complete 16-bit PCM WAV holding samples.
func WriteWAV16(w io.WriteSeeker, sampleRate, channels int, samples []int16) error {
	ww, err := NewWriter(w, sampleRate, channels)
	if err != nil {
		return err
	}

	if err := ww.WriteSamples(samples); err != nil {
		return err
	}

	return ww.Close()
}
