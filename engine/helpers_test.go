// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audvoice/internal/audiotest"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestEngine(t *testing.T, voices int, opts ...Option) (*Engine, *audiotest.FakeBackend) {
	t.Helper()

	fb := audiotest.NewFakeBackend()
	cfg := DefaultConfig()
	cfg.Voices = voices
	opts = append([]Option{WithConfig(cfg), WithLogger(quietLogger())}, opts...)

	e, err := New(fb, opts...)
	require.NoError(t, err)
	return e, fb
}

// newTestClip loads a short mono clip.
func newTestClip(t *testing.T, e *Engine, name string) *Clip {
	t.Helper()

	c, err := e.NewClip(name, make([]byte, 8), 1, 8000)
	require.NoError(t, err)
	return c
}
