// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"

	"github.com/charmbracelet/log"
)

const (
	DefaultVoices            = 16
	DefaultStreamBufferSize  = 512
	DefaultStreamBufferCount = 9
)

// Config sizes the voice pool and the default stream ring.
type Config struct {
	// Voices is the number of hardware voices requested from the backend.
	// It is also the capacity of the recency ring.
	Voices int
	// StreamBufferSize is the byte size of each stream buffer.
	StreamBufferSize int
	// StreamBufferCount is the number of buffers in a stream ring.
	StreamBufferCount int
}

// DefaultConfig returns a 16 voice pool with a nine buffer stream ring.
func DefaultConfig() Config {
	return Config{
		Voices:            DefaultVoices,
		StreamBufferSize:  DefaultStreamBufferSize,
		StreamBufferCount: DefaultStreamBufferCount,
	}
}

// Validate reports an ErrInvalidConfig for any non-positive size.
func (c Config) Validate() error {
	switch {
	case c.Voices <= 0:
		return fmt.Errorf("%w: voices must be positive, got %d", ErrInvalidConfig, c.Voices)
	case c.StreamBufferSize <= 0:
		return fmt.Errorf("%w: stream buffer size must be positive, got %d", ErrInvalidConfig, c.StreamBufferSize)
	case c.StreamBufferCount <= 0:
		return fmt.Errorf("%w: stream buffer count must be positive, got %d", ErrInvalidConfig, c.StreamBufferCount)
	}
	return nil
}

// StreamConfig describes the PCM format and ring geometry of a Stream.
// Zero BufferSize or BufferCount take the engine's defaults.
type StreamConfig struct {
	SampleRate  int
	Channels    int
	BufferSize  int
	BufferCount int
}

func (c StreamConfig) frameSize() int { return c.Channels * 2 }

func (c StreamConfig) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidFormat, c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("%w: %d channels, want 1 or 2", ErrInvalidFormat, c.Channels)
	}
	if c.BufferSize <= 0 || c.BufferSize%c.frameSize() != 0 {
		return fmt.Errorf("%w: buffer size %d is not a whole number of frames", ErrInvalidFormat, c.BufferSize)
	}
	if c.BufferCount <= 0 {
		return fmt.Errorf("%w: buffer count must be positive, got %d", ErrInvalidFormat, c.BufferCount)
	}
	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger sets the engine logger. A nil logger keeps the default.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithNoDevice starts the engine in degraded mode without touching the
// backend at all.
func WithNoDevice() Option {
	return func(e *Engine) { e.forceNoDevice = true }
}
