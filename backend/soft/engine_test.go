// SPDX-License-Identifier: EPL-2.0

package soft_test

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audvoice/backend/soft"
	"github.com/ik5/audvoice/engine"
	"github.com/ik5/audvoice/utils"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newEngine(t *testing.T, voices int) (*engine.Engine, *soft.Mixer) {
	t.Helper()

	m := soft.NewMixer(8000, &soft.NullDevice{}, soft.WithLogger(quietLogger()))
	cfg := engine.DefaultConfig()
	cfg.Voices = voices
	e, err := engine.New(m, engine.WithConfig(cfg), engine.WithLogger(quietLogger()))
	require.NoError(t, err)
	require.False(t, e.NoDevice())
	t.Cleanup(func() { _ = e.Close() })

	return e, m
}

func TestEngineOnMixer_PlayUntilDone(t *testing.T) {
	t.Parallel()

	e, m := newEngine(t, 2)
	clip, err := e.NewClip("blip", utils.AppendPCM16(nil, []int16{16384, 16384, 16384, 16384}), 1, 8000)
	require.NoError(t, err)

	h := e.Play(clip, 1)
	require.True(t, h.Valid())
	assert.Equal(t, 1, e.Stats().Free)

	out := m.Render(nil, 8)
	assert.NotZero(t, out[0])
	assert.Zero(t, out[15])

	// The voice drained by itself; it is free again.
	assert.Equal(t, 2, e.Stats().Free)
}

func TestEngineOnMixer_StreamDrains(t *testing.T) {
	t.Parallel()

	e, m := newEngine(t, 2)
	s, err := e.OpenStream(engine.StreamConfig{SampleRate: 8000, Channels: 1, BufferSize: 16, BufferCount: 2})
	require.NoError(t, err)
	defer s.Close()

	// Two buffers prime the ring without blocking.
	n, err := s.Write(make([]byte, 32))
	require.NoError(t, err)
	assert.Equal(t, 32, n)
	assert.True(t, s.IsPlaying())

	done := make(chan error, 1)
	go func() {
		_, err := s.Write(make([]byte, 16))
		done <- err
	}()

	// Play one buffer so the blocked write can proceed.
	m.Render(nil, 8)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("write did not resume after a buffer was played")
	}
	assert.InDelta(t, 0.001, s.Position(), 1e-9)
}
