// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid engine config")
	ErrInvalidFormat = errors.New("invalid PCM format")
	ErrPoolExhausted = errors.New("voice pool exhausted")

	// ErrStreamStopped is returned by a Write interrupted by Stream.Stop.
	ErrStreamStopped = errors.New("stream stopped")
	// ErrStreamClosed is returned by Write on a closed stream.
	ErrStreamClosed  = errors.New("stream closed")

	errNoDevice = errors.New("no audio device")
)
