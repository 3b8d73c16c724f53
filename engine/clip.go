// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"time"

	"github.com/ik5/audvoice/backend"
)

// Clip is a short sound held entirely in one backend buffer. It never owns
// voices; the engine finds the voices playing it by asking the backend which
// buffer each voice has bound.
type Clip struct {
	e        *Engine
	name     string
	buf      backend.Buffer
	channels int
	rate     int
	frames   int
	disposed bool
}

// Name returns the label given at load time.
func (c *Clip) Name() string { return c.name }

// Channels, SampleRate and Frames describe the PCM the clip was made from.
func (c *Clip) Channels() int   { return c.channels }
func (c *Clip) SampleRate() int { return c.rate }
func (c *Clip) Frames() int     { return c.frames }

func (c *Clip) String() string { return c.name }

// Disposed reports whether DisposeClip has released the clip's buffer.
func (c *Clip) Disposed() bool {
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	return c.disposed
}

// Duration is the playback length at the recorded pitch.
func (c *Clip) Duration() time.Duration {
	return time.Duration(c.frames) * time.Second / time.Duration(c.rate)
}

// NewClip uploads interleaved signed 16-bit little-endian PCM into a new
// backend buffer. name is only used for logging.
//
// With no device the clip is created without a buffer and every operation
// on it does nothing.
func (e *Engine) NewClip(name string, pcm []byte, channels, sampleRate int) (*Clip, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d channels, want 1 or 2", ErrInvalidFormat, channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidFormat, sampleRate)
	}
	frameSize := channels * 2
	if len(pcm)%frameSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte frames", ErrInvalidFormat, len(pcm), frameSize)
	}

	c := &Clip{
		e:        e,
		name:     name,
		channels: channels,
		rate:     sampleRate,
		frames:   len(pcm) / frameSize,
	}

	if e.degraded() {
		return c, nil
	}

	buf, err := e.b.CreateBuffer(pcm, channels, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("uploading clip %q: %w", name, err)
	}
	c.buf = buf

	e.log.Debug("clip loaded", "clip", name, "buffer", buf, "channels", channels, "rate", sampleRate, "duration", c.Duration())
	return c, nil
}

// mustOwn panics on a nil clip or one loaded by another engine.
func (e *Engine) mustOwn(c *Clip) {
	if c == nil {
		panic("engine: nil clip")
	}
	if c.e != e {
		panic(fmt.Sprintf("engine: clip %q belongs to another engine", c.name))
	}
}

// mustUse is mustOwn that also rejects disposed clips.
func (e *Engine) mustUse(c *Clip) {
	e.mustOwn(c)
	if c.disposed {
		panic(fmt.Sprintf("engine: clip %q used after dispose", c.name))
	}
}
