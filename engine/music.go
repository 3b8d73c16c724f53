// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ik5/audvoice/audio"
)

// Music plays a decoded Source through its own Stream. A single goroutine
// reads the source and feeds the stream; it is started by the first Play
// and ends when the source is exhausted and the queued audio has played, or
// when the Music is closed.
type Music struct {
	e      *Engine
	src    audio.Source
	stream *Stream
	buf    []float32

	mu       sync.Mutex
	started  bool
	finished bool
	closed   bool
	err      error
	finalPos float64

	quit chan struct{}
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewMusic wraps src, which must be mono or stereo. The Music owns src and
// closes it on Close.
func (e *Engine) NewMusic(src audio.Source) (*Music, error) {
	stream, err := e.OpenStream(StreamConfig{
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
	})
	if err != nil {
		return nil, fmt.Errorf("opening music stream: %w", err)
	}

	return &Music{
		e:      e,
		src:    src,
		stream: stream,
		buf:    make([]float32, stream.cfg.BufferSize/2),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Play starts the music, or resumes it after Pause. It does nothing once the
// music has finished or been closed.
func (m *Music) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.finished {
		return
	}
	if m.started {
		m.stream.Resume()
		return
	}

	m.started = true
	m.wg.Add(1)
	go m.feed()
}

// Pause holds playback where it is. Audio already queued is kept. Pausing
// before the first buffer is queued still holds the music once it starts.
func (m *Music) Pause() {
	m.stream.Pause()
}

// IsPlaying reports whether the music's voice is currently playing.
func (m *Music) IsPlaying() bool {
	return m.stream.IsPlaying()
}

// SetVolume sets the music gain.
func (m *Music) SetVolume(volume float32) { m.stream.SetVolume(volume) }

// Volume returns the gain last set with SetVolume.
func (m *Music) Volume() float32 { return m.stream.Volume() }

// Position is the playback position in seconds. After the music finishes it
// stays at the final position.
func (m *Music) Position() float64 {
	m.mu.Lock()
	finished, pos := m.finished, m.finalPos
	m.mu.Unlock()

	if finished {
		return pos
	}
	return m.stream.Position()
}

// Done is closed when the music has finished playing or was closed.
func (m *Music) Done() <-chan struct{} { return m.done }

// Err returns the error that ended playback early, if any.
func (m *Music) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close stops playback, waits for the feeding goroutine and closes the
// source.
func (m *Music) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.quit)
	m.mu.Unlock()

	_ = m.stream.Close()
	m.wg.Wait()
	m.once.Do(func() { close(m.done) })

	if err := m.src.Close(); err != nil {
		return fmt.Errorf("closing music source: %w", err)
	}
	return nil
}

// feed hands the stream whole buffers only: the first write fills the ring
// and every later one a single buffer. A source that reads short is read
// again until a write is full, so silence is padded only after the last
// sample.
func (m *Music) feed() {
	defer m.wg.Done()

	chunk := len(m.buf)
	want := chunk * m.stream.cfg.BufferCount
	pending := make([]float32, 0, want+chunk)
	srcDone := false

	for {
		select {
		case <-m.quit:
			return
		default:
		}

		for !srcDone && len(pending) < want {
			n, err := m.src.ReadSamples(m.buf)
			pending = append(pending, m.buf[:n]...)

			switch {
			case errors.Is(err, io.EOF):
				srcDone = true
			case err != nil:
				m.finish(fmt.Errorf("reading music: %w", err))
				return
			case n == 0:
				// Nothing read and no error: treat as the end rather than spin.
				srcDone = true
			}
		}

		if len(pending) > 0 {
			n, err := m.stream.WriteFloats(pending[:min(want, len(pending))])
			pending = append(pending[:0], pending[n:]...)

			switch {
			case err == nil:
				want = chunk
			case errors.Is(err, ErrStreamClosed), errors.Is(err, ErrStreamStopped):
				return
			case errors.Is(err, ErrPoolExhausted):
				if !m.sleep(m.stream.BufferDuration()) {
					return
				}
			default:
				m.finish(err)
				return
			}
		}

		if srcDone && len(pending) == 0 {
			m.drain()
			return
		}
	}
}

// drain waits for the queued audio to play out.
func (m *Music) drain() {
	for m.stream.active() {
		if !m.sleep(m.stream.BufferDuration()) {
			return
		}
	}
	m.stream.collectProcessed()
	m.finish(nil)
}

// sleep waits d and reports false if the music was closed meanwhile.
func (m *Music) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-m.quit:
		return false
	case <-t.C:
		return true
	}
}

func (m *Music) finish(err error) {
	pos := m.stream.Position()

	m.mu.Lock()
	m.finished = true
	m.finalPos = pos
	m.err = err
	m.mu.Unlock()

	if err != nil {
		m.e.log.Error("music stopped", "error", err)
	} else {
		m.e.log.Debug("music finished", "position", pos)
	}

	m.stream.Stop()
	m.once.Do(func() { close(m.done) })
}
