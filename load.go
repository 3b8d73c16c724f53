// SPDX-License-Identifier: EPL-2.0

package audvoice

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/audvoice/audio"
	"github.com/ik5/audvoice/engine"
)

type options struct {
	registry   *audio.Registry
	mono       bool
	bufferSize int
	parallel   int
}

// Option adjusts how files are decoded.
type Option func(*options)

// WithRegistry decodes with r instead of DefaultRegistry.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithMono downmixes the decoded audio to a single channel. Mono clips can
// be panned.
func WithMono() Option {
	return func(o *options) { o.mono = true }
}

// WithBufferSize sets how many float samples are decoded per read.
func WithBufferSize(n int) Option {
	return func(o *options) { o.bufferSize = n }
}

// WithParallel bounds how many files LoadClips decodes at once. The default
// is the number of CPUs.
func WithParallel(n int) Option {
	return func(o *options) { o.parallel = n }
}

func newOptions(opts []Option) *options {
	o := &options{
		bufferSize: 4096,
		parallel:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	return o
}

func (o *options) source(r io.Reader, format string) (audio.Source, error) {
	dec, ok := o.registry.Get(format)
	if !ok {
		return nil, &audio.UnknownFormatError{Format: strings.ToLower(strings.TrimPrefix(format, "."))}
	}

	src, err := dec.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}

	if ch := src.Channels(); ch != 1 && ch != 2 && !o.mono {
		_ = src.Close()
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedChannels, ch)
	}
	if o.mono && src.Channels() != 1 {
		src = audio.NewMonoMixer(src)
	}
	return src, nil
}

// DecodeClip decodes r as format (a file extension such as "wav") and
// uploads it to e as a clip called name.
func DecodeClip(e *engine.Engine, name string, r io.Reader, format string, opts ...Option) (*engine.Clip, error) {
	o := newOptions(opts)

	src, err := o.source(r, format)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	pcm, err := audio.ReadPCM16(src, o.bufferSize)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", name, err)
	}

	return e.NewClip(name, pcm, src.Channels(), src.SampleRate())
}

// LoadClip decodes the file at path, picking the decoder by extension. The
// clip is named after the file's base name.
func LoadClip(e *engine.Engine, path string, opts ...Option) (*engine.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeClip(e, filepath.Base(path), f, filepath.Ext(path), opts...)
}

// LoadClips loads every path concurrently. Clips are returned in the order of
// paths. On the first error the remaining loads are abandoned and clips that
// did load are disposed.
func LoadClips(ctx context.Context, e *engine.Engine, paths []string, opts ...Option) ([]*engine.Clip, error) {
	o := newOptions(opts)
	opts = append(opts, WithRegistry(o.registry))

	clips := make([]*engine.Clip, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.parallel, 1))

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c, err := LoadClip(e, path, opts...)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			clips[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, c := range clips {
			if c != nil {
				e.DisposeClip(c)
			}
		}
		return nil, err
	}
	return clips, nil
}

// fileSource closes the file under a streaming decoder along with it.
type fileSource struct {
	audio.Source
	f *os.File
}

func (s *fileSource) Close() error {
	err := s.Source.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenMusic opens the file at path for streaming playback. The file stays
// open until the Music is closed.
func OpenMusic(e *engine.Engine, path string, opts ...Option) (*engine.Music, error) {
	o := newOptions(opts)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	src, err := o.source(f, filepath.Ext(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	m, err := e.NewMusic(&fileSource{Source: src, f: f})
	if err != nil {
		_ = src.Close()
		_ = f.Close()
		return nil, err
	}
	return m, nil
}
