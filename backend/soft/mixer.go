// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ik5/audvoice/backend"
	"github.com/ik5/audvoice/utils"
)

// Mixer is a software backend.Backend. It keeps voices and buffers in
// memory and mixes every playing voice into one stereo stream, pulled by a
// Device through Read.
type Mixer struct {
	rate int
	dev  Device
	log  *log.Logger

	mu      sync.Mutex
	voices  []*voice
	buffers map[backend.Buffer]*buffer
	nextBuf backend.Buffer
	open    bool
	mix     []float32
}

type buffer struct {
	samples  []float32
	channels int
	rate     int
	frames   int
	stream   bool
}

type voice struct {
	state     backend.VoiceState
	bound     backend.Buffer
	queue     []backend.Buffer
	processed []backend.Buffer
	// pos is the frame position, fractional when pitch or rate differ.
	pos     float64
	gain    float32
	pitch   float32
	pan     float32
	looping bool
}

// Option configures a Mixer.
type Option func(*Mixer)

func WithLogger(l *log.Logger) Option {
	return func(m *Mixer) {
		if l != nil {
			m.log = l
		}
	}
}

// NewMixer creates a mixer rendering at sampleRate. dev is opened with the
// voice pool and closed with it; a nil dev leaves pulling to the caller.
func NewMixer(sampleRate int, dev Device, opts ...Option) *Mixer {
	m := &Mixer{
		rate:    sampleRate,
		dev:     dev,
		log:     log.Default(),
		buffers: make(map[backend.Buffer]*buffer),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithPrefix("mixer")

	return m
}

func (m *Mixer) SampleRate() int { return m.rate }

// voice returns nil for voices outside the pool, including after
// DestroyVoicePool.
func (m *Mixer) voice(v backend.Voice) *voice {
	i := int(v) - 1
	if i < 0 || i >= len(m.voices) {
		return nil
	}
	return m.voices[i]
}

func (m *Mixer) CreateVoicePool(n int) ([]backend.Voice, error) {
	if n <= 0 {
		return nil, fmt.Errorf("voice count must be positive, got %d", n)
	}

	m.mu.Lock()
	if m.open {
		m.mu.Unlock()
		return nil, ErrPoolOpen
	}
	m.open = true
	m.mu.Unlock()

	// The device may start pulling from Read straight away, so it is opened
	// without holding the lock.
	if m.dev != nil {
		if err := m.dev.Open(m); err != nil {
			m.mu.Lock()
			m.open = false
			m.mu.Unlock()
			return nil, fmt.Errorf("opening device: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.voices = make([]*voice, n)
	ids := make([]backend.Voice, n)
	for i := range m.voices {
		m.voices[i] = &voice{gain: 1, pitch: 1}
		ids[i] = backend.Voice(i + 1)
	}
	m.log.Debug("voice pool created", "voices", n, "rate", m.rate)

	return ids, nil
}

func (m *Mixer) DestroyVoicePool() {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return
	}
	m.voices = nil
	m.open = false
	dev := m.dev
	m.mu.Unlock()

	// Close outside the lock: devices may be blocked in Read.
	if dev != nil {
		if err := dev.Close(); err != nil {
			m.log.Warn("closing device", "error", err)
		}
	}
	m.log.Debug("voice pool destroyed")
}

func (m *Mixer) VoiceState(v backend.Voice) backend.VoiceState {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vc := m.voice(v); vc != nil {
		return vc.state
	}
	return backend.Idle
}

// BindBuffer attaches a static buffer and drops any queued stream buffers.
// NoBuffer detaches everything.
func (m *Mixer) BindBuffer(v backend.Voice, b backend.Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vc := m.voice(v)
	if vc == nil {
		return
	}
	vc.bound = b
	vc.queue = nil
	vc.processed = nil
	vc.pos = 0
}

func (m *Mixer) BoundBuffer(v backend.Voice) backend.Buffer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vc := m.voice(v); vc != nil {
		return vc.bound
	}
	return backend.NoBuffer
}

func (m *Mixer) SetGain(v backend.Voice, gain float32) {
	m.update(v, func(vc *voice) { vc.gain = max(gain, 0) })
}

func (m *Mixer) SetPitch(v backend.Voice, pitch float32) {
	m.update(v, func(vc *voice) { vc.pitch = max(pitch, 0) })
}

// SetPan takes -1 (left) to 1 (right). It only affects mono buffers.
func (m *Mixer) SetPan(v backend.Voice, pan float32) {
	m.update(v, func(vc *voice) { vc.pan = min(max(pan, -1), 1) })
}

func (m *Mixer) SetLooping(v backend.Voice, looping bool) {
	m.update(v, func(vc *voice) { vc.looping = looping })
}

func (m *Mixer) update(v backend.Voice, fn func(vc *voice)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vc := m.voice(v); vc != nil {
		fn(vc)
	}
}

// PlayVoice starts a voice from the beginning, or continues it if paused.
// A voice with nothing to play stays idle.
func (m *Mixer) PlayVoice(v backend.Voice) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vc := m.voice(v)
	if vc == nil {
		return
	}

	switch vc.state {
	case backend.Paused:
		vc.state = backend.Playing
		return
	case backend.Playing:
		if len(vc.queue) == 0 {
			vc.pos = 0
		}
		return
	}

	if len(vc.queue) > 0 {
		vc.state = backend.Playing
		return
	}
	if b, ok := m.buffers[vc.bound]; ok && b.frames > 0 {
		vc.pos = 0
		vc.state = backend.Playing
	}
}

func (m *Mixer) PauseVoice(v backend.Voice) {
	m.update(v, func(vc *voice) {
		if vc.state == backend.Playing {
			vc.state = backend.Paused
		}
	})
}

// StopVoice halts a voice and marks all its queued buffers processed.
func (m *Mixer) StopVoice(v backend.Voice) {
	m.update(v, func(vc *voice) {
		vc.state = backend.Idle
		vc.pos = 0
		vc.processed = append(vc.processed, vc.queue...)
		vc.queue = vc.queue[:0]
	})
}

func validFormat(pcm []byte, channels, sampleRate int) error {
	if channels != 1 && channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, channels)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, sampleRate)
	}
	if len(pcm)%(2*channels) != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of frames", ErrInvalidFormat, len(pcm))
	}
	return nil
}

// load converts 16-bit PCM to float samples, reusing dst.
func load(dst []float32, pcm []byte) []float32 {
	n := len(pcm) / 2
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = utils.Int16ToFloat32(utils.PCM16At(pcm, i))
	}
	return dst
}

func (m *Mixer) CreateBuffer(pcm []byte, channels, sampleRate int) (backend.Buffer, error) {
	if err := validFormat(pcm, channels, sampleRate); err != nil {
		return backend.NoBuffer, err
	}
	samples := load(nil, pcm)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextBuf++
	m.buffers[m.nextBuf] = &buffer{
		samples:  samples,
		channels: channels,
		rate:     sampleRate,
		frames:   len(samples) / channels,
	}
	return m.nextBuf, nil
}

// DeleteBuffer frees b. Voices still referring to it go idle.
func (m *Mixer) DeleteBuffer(b backend.Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buffers[b]; !ok {
		return
	}
	delete(m.buffers, b)

	for i, vc := range m.voices {
		if vc.bound == b {
			if vc.state != backend.Idle {
				m.log.Warn("buffer deleted while in use", "buffer", b, "voice", i+1)
			}
			vc.bound = backend.NoBuffer
			vc.state = backend.Idle
			vc.pos = 0
		}
	}
}

func (m *Mixer) CreateStreamBuffers(n, byteSize int) ([]backend.Buffer, error) {
	if n <= 0 || byteSize <= 0 {
		return nil, fmt.Errorf("%w: %d buffers of %d bytes", ErrInvalidFormat, n, byteSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]backend.Buffer, n)
	for i := range ids {
		m.nextBuf++
		m.buffers[m.nextBuf] = &buffer{
			samples: make([]float32, 0, byteSize/2),
			stream:  true,
		}
		ids[i] = m.nextBuf
	}
	return ids, nil
}

// FillBuffer replaces the contents of a stream buffer. Empty pcm leaves a
// zero-length buffer that a voice skips over instantly.
func (m *Mixer) FillBuffer(b backend.Buffer, pcm []byte, channels, sampleRate int) error {
	if err := validFormat(pcm, channels, sampleRate); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	buf, ok := m.buffers[b]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, b)
	}
	buf.samples = load(buf.samples, pcm)
	buf.channels = channels
	buf.rate = sampleRate
	buf.frames = len(buf.samples) / channels
	return nil
}

func (m *Mixer) Enqueue(v backend.Voice, b backend.Buffer) {
	m.update(v, func(vc *voice) {
		vc.bound = backend.NoBuffer
		vc.queue = append(vc.queue, b)
	})
}

func (m *Mixer) DequeueProcessed(v backend.Voice) (backend.Buffer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vc := m.voice(v)
	if vc == nil || len(vc.processed) == 0 {
		return backend.NoBuffer, false
	}
	b := vc.processed[0]
	vc.processed = vc.processed[1:]
	return b, true
}

func (m *Mixer) ProcessedCount(v backend.Voice) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vc := m.voice(v); vc != nil {
		return len(vc.processed)
	}
	return 0
}

// SubBufferOffset is how far, in seconds, the voice has played into the
// head of its queue.
func (m *Mixer) SubBufferOffset(v backend.Voice) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	vc := m.voice(v)
	if vc == nil || vc.state == backend.Idle || len(vc.queue) == 0 {
		return 0
	}
	buf, ok := m.buffers[vc.queue[0]]
	if !ok || buf.rate == 0 {
		return 0
	}
	return vc.pos / float64(buf.rate)
}

var _ backend.Backend = (*Mixer)(nil)
