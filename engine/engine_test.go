// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/audvoice/backend"
	"github.com/ik5/audvoice/internal/audiotest"
)

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	for _, cfg := range []Config{
		{Voices: 0, StreamBufferSize: 512, StreamBufferCount: 9},
		{Voices: 4, StreamBufferSize: 0, StreamBufferCount: 9},
		{Voices: 4, StreamBufferSize: 512, StreamBufferCount: -1},
	} {
		_, err := New(audiotest.NewFakeBackend(), WithConfig(cfg), WithLogger(quietLogger()))
		require.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestNew_DeviceFailureDegrades(t *testing.T) {
	t.Parallel()

	fb := audiotest.NewFakeBackend()
	fb.PoolErr = errors.New("no sound card")

	e, err := New(fb, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.True(t, e.NoDevice())
	assert.Equal(t, 1, fb.Calls())

	e, err = New(nil, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.True(t, e.NoDevice())
	assert.Equal(t, Stats{NoDevice: true}, e.Stats())
}

func TestEngine_NoDeviceMakesNoBackendCalls(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 4, WithNoDevice())
	require.True(t, e.NoDevice())

	clip := newTestClip(t, e, "shot")
	assert.Equal(t, 4, clip.Frames())

	h := e.Play(clip, 1)
	assert.Equal(t, InvalidHandle, h)
	assert.Equal(t, InvalidHandle, e.PlayWith(clip, 1, 2, -1))
	assert.Equal(t, InvalidHandle, e.Loop(clip, 1))

	e.Stop(h)
	e.Pause(h)
	e.Resume(h)
	e.SetGain(h, 0.5)
	e.SetPitch(h, 0.5)
	e.SetPan(h, 0.5)
	e.SetLooping(h, true)
	e.StopAll(clip)
	e.PauseAll(clip)
	e.ResumeAll(clip)
	e.SetLoopingAll(clip, true)

	s, err := e.OpenStream(StreamConfig{SampleRate: 44100, Channels: 2})
	require.NoError(t, err)
	n, err := s.Write(make([]byte, 100_000))
	require.NoError(t, err)
	assert.Equal(t, 100_000, n)
	assert.Zero(t, s.Position())
	assert.False(t, s.IsPlaying())
	s.SetVolume(0.3)
	s.Seek(3)
	s.Stop()
	require.NoError(t, s.Close())

	e.DisposeClip(clip)
	assert.True(t, clip.Disposed())
	require.NoError(t, e.Close())

	assert.Zero(t, fb.Calls())
}

func TestEngine_PlayStartsVoice(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 2)
	clip := newTestClip(t, e, "shot")

	h := e.PlayWith(clip, 0.5, 1.5, -0.25)
	require.True(t, h.Valid())

	v := backend.Voice(1)
	assert.Equal(t, backend.Playing, fb.State(v))
	assert.Equal(t, clip.buf, fb.Bound(v))
	gain, pitch, pan, looping := fb.Params(v)
	assert.InDelta(t, 0.5, gain, 1e-6)
	assert.InDelta(t, 1.5, pitch, 1e-6)
	assert.InDelta(t, -0.25, pan, 1e-6)
	assert.False(t, looping)

	h2 := e.Play(clip, 1)
	assert.Greater(t, h2, h)
	assert.Equal(t, Stats{Voices: 2, Free: 0, Handles: 2}, e.Stats())
}

func TestEngine_EvictsOldestClip(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 2)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")
	c := newTestClip(t, e, "c")

	ha := e.Play(a, 1)
	hb := e.Play(b, 1)
	require.True(t, ha.Valid())
	require.True(t, hb.Valid())
	require.NotEqual(t, ha, hb)

	hc := e.Play(c, 1)
	require.True(t, hc.Valid())

	// a was triggered first, so its voice went to c.
	assert.Equal(t, c.buf, fb.Bound(1))
	assert.Equal(t, b.buf, fb.Bound(2))
	assert.Equal(t, backend.Playing, fb.State(1))
	assert.Equal(t, backend.Playing, fb.State(2))

	// The old handle no longer reaches the voice.
	e.Stop(ha)
	assert.Equal(t, backend.Playing, fb.State(1))

	// c took a's slot through eviction and was not recorded twice.
	assert.Equal(t, []*Clip{c, b}, e.recent.slots)

	// Next in line is b.
	hd := e.Play(a, 1)
	require.True(t, hd.Valid())
	assert.Equal(t, a.buf, fb.Bound(2))
}

func TestEngine_EvictionStopsEveryInstance(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 3)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")
	c := newTestClip(t, e, "c")

	e.Play(a, 1)
	e.Play(a, 1)
	e.Play(b, 1)
	require.Equal(t, 3, fb.Active())

	require.True(t, e.Play(c, 1).Valid())

	// Both a voices stopped; c took the first.
	assert.Equal(t, c.buf, fb.Bound(1))
	assert.Equal(t, backend.Idle, fb.State(2))
	assert.Equal(t, backend.Playing, fb.State(3))
	assert.Equal(t, 2, fb.Active())
}

func TestEngine_EvictionOfSameClipFails(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 1)
	a := newTestClip(t, e, "a")

	h := e.Play(a, 1)
	require.True(t, h.Valid())

	// The only slot holds a itself, which is never stolen for itself.
	assert.Equal(t, InvalidHandle, e.Play(a, 1))
	assert.Equal(t, backend.Playing, fb.State(1))
}

func TestEngine_LoopNeverEvicts(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 2)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")
	c := newTestClip(t, e, "c")

	la := e.Loop(a, 1)
	lb := e.Loop(b, 1)
	require.True(t, la.Valid())
	require.True(t, lb.Valid())

	_, _, _, looping := fb.Params(1)
	assert.True(t, looping)

	stops := fb.CallCount("StopVoice")
	assert.Equal(t, InvalidHandle, e.Loop(c, 1))
	// Loops are not in the recency ring, so a one-shot cannot steal them.
	assert.Equal(t, InvalidHandle, e.Play(c, 1))
	assert.Equal(t, stops, fb.CallCount("StopVoice"))
	assert.Equal(t, 2, fb.Active())
	assert.False(t, e.recent.contains(a))
}

func TestEngine_LoopDoesNotStealFromPlays(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 1)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")

	require.True(t, e.Play(a, 1).Valid())
	assert.Equal(t, InvalidHandle, e.Loop(b, 1))
	assert.Equal(t, a.buf, fb.Bound(1))
	assert.Equal(t, backend.Playing, fb.State(1))
}

func TestEngine_LoopOfRecentClipIsStoppedWithIt(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 2)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")
	c := newTestClip(t, e, "c")

	require.True(t, e.Play(a, 1).Valid())
	loop := e.Loop(a, 1)
	require.True(t, loop.Valid())

	// The ring slot after a is still empty: nothing to steal.
	assert.Equal(t, InvalidHandle, e.Play(b, 1))

	// The next slot holds a, and stopping a stops its loop too.
	hc := e.Play(c, 1)
	require.True(t, hc.Valid())
	assert.Equal(t, 1, fb.Active())
	assert.Equal(t, c.buf, fb.Bound(1))

	e.SetGain(loop, 0.1)
	gain, _, _, _ := fb.Params(2)
	assert.NotEqual(t, float32(0.1), gain)
}

func TestEngine_StaleHandleIsInert(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 1)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")

	old := e.Play(a, 1)
	fb.Finish(1)
	current := e.Play(b, 0.8)
	require.NotEqual(t, old, current)

	calls := fb.Calls()
	e.Stop(old)
	e.Pause(old)
	e.Resume(old)
	e.SetGain(old, 0)
	e.SetPitch(old, 2)
	e.SetPan(old, 1)
	e.SetLooping(old, true)
	assert.Equal(t, calls, fb.Calls())

	gain, pitch, pan, looping := fb.Params(1)
	assert.InDelta(t, 0.8, gain, 1e-6)
	assert.InDelta(t, 1.0, pitch, 1e-6)
	assert.Zero(t, pan)
	assert.False(t, looping)
	assert.Equal(t, backend.Playing, fb.State(1))

	// Handles never issued are just as inert.
	e.Stop(InvalidHandle)
	e.Stop(SoundHandle(999))
	assert.Equal(t, calls, fb.Calls())
}

func TestEngine_HandleControls(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 2)
	a := newTestClip(t, e, "a")
	h := e.Play(a, 1)

	e.SetGain(h, 0.25)
	e.SetPitch(h, 0.5)
	e.SetPan(h, 1)
	e.SetLooping(h, true)
	gain, pitch, pan, looping := fb.Params(1)
	assert.InDelta(t, 0.25, gain, 1e-6)
	assert.InDelta(t, 0.5, pitch, 1e-6)
	assert.InDelta(t, 1.0, pan, 1e-6)
	assert.True(t, looping)

	e.Pause(h)
	assert.Equal(t, backend.Paused, fb.State(1))
	e.Resume(h)
	assert.Equal(t, backend.Playing, fb.State(1))

	// Resume only acts on paused voices.
	plays := fb.CallCount("PlayVoice")
	e.Resume(h)
	assert.Equal(t, plays, fb.CallCount("PlayVoice"))

	e.Stop(h)
	assert.Equal(t, backend.Idle, fb.State(1))
	_, ok := e.pool.lookup(h)
	assert.False(t, ok)

	// Stop is idempotent.
	e.Stop(h)
}

func TestEngine_ClipBroadcast(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 3)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")

	ha1 := e.Play(a, 1)
	e.Play(b, 1)
	ha2 := e.Play(a, 1)

	e.PauseAll(a)
	assert.Equal(t, backend.Paused, fb.State(1))
	assert.Equal(t, backend.Playing, fb.State(2))
	assert.Equal(t, backend.Paused, fb.State(3))

	fb.SetState(3, backend.Playing)
	plays := fb.CallCount("PlayVoice")
	e.ResumeAll(a)
	assert.Equal(t, plays+1, fb.CallCount("PlayVoice"))
	assert.Equal(t, backend.Playing, fb.State(1))

	e.SetLoopingAll(a, true)
	_, _, _, l1 := fb.Params(1)
	_, _, _, l2 := fb.Params(2)
	assert.True(t, l1)
	assert.False(t, l2)

	e.StopAll(a)
	assert.Equal(t, backend.Idle, fb.State(1))
	assert.Equal(t, backend.Playing, fb.State(2))
	assert.Equal(t, backend.Idle, fb.State(3))

	_, ok := e.pool.lookup(ha1)
	assert.False(t, ok)
	_, ok = e.pool.lookup(ha2)
	assert.False(t, ok)
}

func TestEngine_DisposeClip(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 2)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")
	buf := a.buf

	e.Play(a, 1)
	e.Play(b, 1)
	require.True(t, e.recent.contains(a))

	// The fake panics if the buffer is deleted while a voice plays it.
	e.DisposeClip(a)

	assert.True(t, a.Disposed())
	assert.Equal(t, backend.Idle, fb.State(1))
	_, ok := fb.BufferData(buf)
	assert.False(t, ok)
	assert.False(t, e.recent.contains(a))

	// Broadcast controls on a disposed clip are harmless.
	calls := fb.Calls()
	e.StopAll(a)
	e.PauseAll(a)
	e.ResumeAll(a)
	assert.Equal(t, calls, fb.Calls())

	assert.Panics(t, func() { e.DisposeClip(a) })
	assert.Panics(t, func() { e.Play(a, 1) })
}

func TestEngine_DisposedClipIsNotEvicted(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 2)
	a := newTestClip(t, e, "a")
	b := newTestClip(t, e, "b")
	l := newTestClip(t, e, "loop")
	d := newTestClip(t, e, "d")

	e.Play(a, 1)
	e.Play(b, 1)
	e.DisposeClip(a)

	// The loop takes a's old voice without touching the ring, which is now
	// [nil, b] with the pointer on b.
	require.True(t, e.Loop(l, 1).Valid())
	assert.Equal(t, []*Clip{nil, b}, e.recent.slots)

	// The next claim lands on the emptied slot and steals nothing.
	assert.Equal(t, InvalidHandle, e.Play(d, 1))
	assert.Equal(t, 2, fb.Active())
	assert.Equal(t, l.buf, fb.Bound(1))
	assert.Equal(t, b.buf, fb.Bound(2))
}

func TestEngine_ProgrammerErrorsPanic(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, 1)
	other, _ := newTestEngine(t, 1)
	foreign := newTestClip(t, other, "foreign")

	assert.Panics(t, func() { e.Play(nil, 1) })
	assert.Panics(t, func() { e.Loop(foreign, 1) })
	assert.Panics(t, func() { e.StopAll(foreign) })
}

func TestEngine_NewClipValidation(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 1)

	_, err := e.NewClip("x", make([]byte, 8), 3, 8000)
	require.ErrorIs(t, err, ErrInvalidFormat)
	_, err = e.NewClip("x", make([]byte, 8), 1, 0)
	require.ErrorIs(t, err, ErrInvalidFormat)
	_, err = e.NewClip("x", make([]byte, 6), 2, 8000)
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Zero(t, fb.CallCount("CreateBuffer"))

	c, err := e.NewClip("x", make([]byte, 16000), 1, 8000)
	require.NoError(t, err)
	assert.Equal(t, "x", c.String())
	assert.Equal(t, 8000, c.SampleRate())
	assert.Equal(t, 1, c.Channels())
	assert.Equal(t, "1s", c.Duration().String())
}

func TestEngine_Close(t *testing.T) {
	t.Parallel()

	e, fb := newTestEngine(t, 2)
	a := newTestClip(t, e, "a")
	e.Play(a, 1)
	e.Loop(a, 1)

	require.NoError(t, e.Close())
	assert.True(t, fb.Destroyed())
	assert.Zero(t, fb.Active())
	assert.True(t, e.NoDevice())

	calls := fb.Calls()
	assert.Equal(t, InvalidHandle, e.Play(a, 1))
	require.NoError(t, e.Close())
	assert.Equal(t, calls, fb.Calls())
}

func TestEngine_ConcurrentPlaysStayWithinPool(t *testing.T) {
	t.Parallel()

	const voices = 4
	e, fb := newTestEngine(t, voices)

	clips := make([]*Clip, 10)
	for i := range clips {
		clips[i] = newTestClip(t, e, string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				h := e.Play(clips[(g+i)%len(clips)], 1)
				e.SetGain(h, 0.5)
				if i%7 == 0 {
					e.Stop(h)
				}
				assert.LessOrEqual(t, fb.Active(), voices)
			}
		}()
	}
	wg.Wait()

	st := e.Stats()
	assert.Equal(t, voices, st.Voices)
	assert.LessOrEqual(t, st.Handles, voices)
}
