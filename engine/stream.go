// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ik5/audvoice/backend"
	"github.com/ik5/audvoice/utils"
)

// StreamState is the lifecycle stage of a Stream.
type StreamState int

const (
	Unopened StreamState = iota
	Streaming
	Disposed
)

func (s StreamState) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Streaming:
		return "streaming"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Stream pushes continuous PCM through a ring of backend buffers on a voice
// it owns exclusively. The voice is reserved on the first Write and kept
// until Stop or Close.
//
// Write blocks while every buffer in the ring is still queued: the caller is
// held back to playback speed instead of the stream buffering without bound.
type Stream struct {
	e   *Engine
	cfg StreamConfig

	bufferSeconds float64
	silence       []byte

	// wmu serialises Write, Stop and Close.
	wmu sync.Mutex

	mu       sync.Mutex
	state    StreamState
	voice    backend.Voice
	buffers  []backend.Buffer
	started  bool
	paused   bool
	rendered float64
	lastPos  float64
	volume   float32
	halt     chan struct{}
	haltErr  error
	scratch  []byte

	// pending counts Stop and Close calls that have closed halt but not yet
	// taken wmu. halt is replaced only when it drops to zero.
	pending int
}

// OpenStream prepares a stream in cfg's format. No voice or buffer is taken
// until the first Write.
func (e *Engine) OpenStream(cfg StreamConfig) (*Stream, error) {
	if cfg.BufferSize == 0 {
		cfg.BufferSize = e.cfg.StreamBufferSize
	}
	if cfg.BufferCount == 0 {
		cfg.BufferCount = e.cfg.StreamBufferCount
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Stream{
		e:             e,
		cfg:           cfg,
		bufferSeconds: float64(cfg.BufferSize) / float64(cfg.frameSize()) / float64(cfg.SampleRate),
		silence:       make([]byte, cfg.BufferSize),
		volume:        1,
		halt:          make(chan struct{}),
		scratch:       make([]byte, 0, cfg.BufferSize),
	}, nil
}

// Config returns the stream's format with defaults filled in.
func (s *Stream) Config() StreamConfig { return s.cfg }

// State returns the stream's lifecycle stage.
func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BufferDuration is the playback time of one full buffer.
func (s *Stream) BufferDuration() time.Duration {
	return time.Duration(s.bufferSeconds * float64(time.Second))
}

// Latency is the playback time of the whole ring.
func (s *Stream) Latency() time.Duration {
	return s.BufferDuration() * time.Duration(s.cfg.BufferCount)
}

// Write queues p for playback and returns once all of it is enqueued. p is
// interleaved signed 16-bit little-endian PCM in the stream's format.
//
// With no device p is discarded. When the pool has no voice to spare Write
// returns ErrPoolExhausted and the next Write tries again.
func (s *Stream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.Lock()
	state, halt, haltErr := s.state, s.halt, s.haltErr
	s.mu.Unlock()

	if state == Disposed {
		return 0, ErrStreamClosed
	}
	select {
	case <-halt:
		// A Stop or Close is waiting for this Write to get out of the way.
		return 0, haltErr
	default:
	}
	if s.e.degraded() || len(p) == 0 {
		return len(p), nil
	}

	if state == Unopened {
		if err := s.open(); err != nil {
			if errors.Is(err, errNoDevice) {
				return len(p), nil
			}
			return 0, err
		}
	}

	b := s.e.b
	off := 0

	if !s.started {
		off = s.prime(p)
	}

	for off < len(p) {
		buf, err := s.awaitProcessed(halt)
		if err != nil {
			return off, err
		}

		n := min(s.cfg.BufferSize, len(p)-off)
		if err := s.fill(buf, p[off:off+n]); err != nil {
			return off, err
		}
		b.Enqueue(s.voice, buf)
		off += n
		s.restart()
	}

	return len(p), nil
}

func (s *Stream) open() error {
	v, err := s.e.reserve()
	if err != nil {
		return err
	}

	b := s.e.b
	if s.buffers == nil {
		bufs, err := b.CreateStreamBuffers(s.cfg.BufferCount, s.cfg.BufferSize)
		if err != nil {
			s.e.unreserve(v)
			return fmt.Errorf("creating stream buffers: %w", err)
		}
		s.buffers = bufs
	}

	s.mu.Lock()
	b.SetLooping(v, false)
	b.SetGain(v, s.volume)
	b.SetPitch(v, 1)
	b.SetPan(v, 0)
	s.voice = v
	s.state = Streaming
	s.started = false
	s.mu.Unlock()

	s.e.log.Debug("stream opened", "voice", v, "buffers", s.cfg.BufferCount, "size", s.cfg.BufferSize)
	return nil
}

// prime fills the whole ring from the head of p, queues every buffer and
// starts the voice. Buffers left without data are queued empty.
func (s *Stream) prime(p []byte) int {
	b := s.e.b
	off := 0

	for _, buf := range s.buffers {
		n := min(s.cfg.BufferSize, len(p)-off)
		if n > 0 {
			// A fill error leaves the buffer empty; it is queued anyway so the
			// ring stays whole.
			if err := s.fill(buf, p[off:off+n]); err != nil {
				s.e.log.Error("filling stream buffer", "buffer", buf, "error", err)
			}
		} else {
			_ = b.FillBuffer(buf, nil, s.cfg.Channels, s.cfg.SampleRate)
		}
		b.Enqueue(s.voice, buf)
		off += n
	}

	s.mu.Lock()
	s.started = true
	if !s.paused {
		b.PlayVoice(s.voice)
	}
	s.mu.Unlock()
	return off
}

// restart plays the voice again after an underrun left it idle.
func (s *Stream) restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused || s.e.b.VoiceState(s.voice) == backend.Playing {
		return
	}
	s.e.log.Debug("stream underrun, restarting voice", "voice", s.voice)
	s.e.b.PlayVoice(s.voice)
}

// fill uploads chunk into buf, padded with silence up to a full buffer.
func (s *Stream) fill(buf backend.Buffer, chunk []byte) error {
	data := chunk
	if len(chunk) < s.cfg.BufferSize {
		s.scratch = append(s.scratch[:0], chunk...)
		s.scratch = append(s.scratch, s.silence[:s.cfg.BufferSize-len(chunk)]...)
		data = s.scratch
	}
	return s.e.b.FillBuffer(buf, data, s.cfg.Channels, s.cfg.SampleRate)
}

// awaitProcessed polls the voice until a buffer has been played, sleeping
// one buffer duration between polls.
func (s *Stream) awaitProcessed(halt <-chan struct{}) (backend.Buffer, error) {
	b := s.e.b
	var timer *time.Timer

	for {
		if b.ProcessedCount(s.voice) > 0 {
			if buf, ok := b.DequeueProcessed(s.voice); ok {
				s.mu.Lock()
				s.rendered += s.bufferSeconds
				s.mu.Unlock()
				return buf, nil
			}
		}

		if timer == nil {
			timer = time.NewTimer(s.BufferDuration())
			defer timer.Stop()
		} else {
			timer.Reset(s.BufferDuration())
		}

		select {
		case <-halt:
			s.mu.Lock()
			err := s.haltErr
			s.mu.Unlock()
			return backend.NoBuffer, err
		case <-timer.C:
		}
	}
}

// WriteSamples writes 16-bit samples. It returns the number of samples
// enqueued.
func (s *Stream) WriteSamples(samples []int16) (int, error) {
	n, err := s.Write(utils.AppendPCM16(make([]byte, 0, len(samples)*2), samples))
	return n / 2, err
}

// WriteFloats converts samples in [-1, 1] to 16-bit and writes them. It
// returns the number of samples enqueued.
func (s *Stream) WriteFloats(samples []float32) (int, error) {
	n, err := s.Write(utils.AppendFloatPCM16(make([]byte, 0, len(samples)*2), samples))
	return n / 2, err
}

// Position is the playback position in seconds: whole buffers rendered plus
// the backend's offset into the current one. It never goes backwards until
// Seek or Stop.
func (s *Stream) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Streaming || s.e.degraded() {
		return 0
	}

	pos := s.rendered + s.e.b.SubBufferOffset(s.voice)
	if pos < s.lastPos {
		return s.lastPos
	}
	s.lastPos = pos
	return pos
}

// Seek sets the rendered-time counter. Audio already queued is not moved.
func (s *Stream) Seek(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rendered = seconds
	s.lastPos = 0
}

// SetVolume sets the stream gain. It is applied when the stream opens if
// it is not open yet.
func (s *Stream) SetVolume(volume float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.volume = volume
	if s.state == Streaming && !s.e.degraded() {
		s.e.b.SetGain(s.voice, volume)
	}
}

// Volume returns the gain last set with SetVolume.
func (s *Stream) Volume() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// IsPlaying reports whether the stream's voice is live and playing.
func (s *Stream) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Streaming || s.e.degraded() {
		return false
	}
	return s.e.b.VoiceState(s.voice) == backend.Playing
}

// Pause holds playback. Queued audio is kept and a blocked Write stays
// blocked until Resume. A stream paused before it opens is primed on the
// first Write but not started.
func (s *Stream) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Disposed || s.e.degraded() {
		return
	}
	s.paused = true
	if s.state == Streaming {
		s.e.b.PauseVoice(s.voice)
	}
}

// Resume undoes Pause.
func (s *Stream) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.paused {
		return
	}
	s.paused = false
	if s.state == Streaming && s.started && !s.e.degraded() {
		s.e.b.PlayVoice(s.voice)
	}
}

// active reports whether queued audio is still due to play, including
// while paused.
func (s *Stream) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Streaming || s.e.degraded() {
		return false
	}
	return s.paused || s.e.b.VoiceState(s.voice) != backend.Idle
}

// collectProcessed counts the buffers already played but not yet
// dequeued, so the position covers everything that was heard.
func (s *Stream) collectProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Streaming || s.e.degraded() {
		return
	}
	for s.e.b.ProcessedCount(s.voice) > 0 {
		if _, ok := s.e.b.DequeueProcessed(s.voice); !ok {
			break
		}
		s.rendered += s.bufferSeconds
	}
}

// interrupt wakes a Write blocked on the ring with err. halt stays closed,
// failing any Write that gets in first, until the caller has taken wmu and
// called rearm.
func (s *Stream) interrupt(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == 0 || err == ErrStreamClosed {
		s.haltErr = err
	}
	if s.pending == 0 {
		close(s.halt)
	}
	s.pending++
}

// rearm undoes one interrupt. Callers hold wmu.
func (s *Stream) rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending--
	if s.pending == 0 {
		s.halt = make(chan struct{})
	}
}

// Stop releases the voice and resets the position, keeping the buffers. The
// next Write opens the stream again. A Write blocked on the ring returns
// ErrStreamStopped.
func (s *Stream) Stop() {
	s.interrupt(ErrStreamStopped)

	s.wmu.Lock()
	defer s.wmu.Unlock()
	defer s.rearm()

	s.mu.Lock()
	s.paused = false
	if s.state != Streaming {
		s.mu.Unlock()
		return
	}
	v := s.voice
	s.state = Unopened
	s.started = false
	s.rendered = 0
	s.lastPos = 0
	s.mu.Unlock()

	s.e.unreserve(v)
	s.e.log.Debug("stream stopped", "voice", v)
}

// Close releases the voice and deletes the buffers. A Write blocked on the
// ring returns ErrStreamClosed, as does every later Write.
func (s *Stream) Close() error {
	s.interrupt(ErrStreamClosed)

	s.wmu.Lock()
	defer s.wmu.Unlock()
	defer s.rearm()

	s.mu.Lock()
	state, v := s.state, s.voice
	s.state = Disposed
	s.mu.Unlock()

	if state == Disposed {
		return nil
	}
	if state == Streaming {
		s.e.unreserve(v)
	}
	if s.buffers != nil && !s.e.degraded() {
		for _, buf := range s.buffers {
			s.e.b.DeleteBuffer(buf)
		}
	}
	s.buffers = nil

	s.e.log.Debug("stream closed")
	return nil
}
