// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/ik5/audvoice/backend"
)

// Engine shares a fixed pool of backend voices between one-shot clips,
// loops and streams.
//
// Every mutating operation is serialised behind one lock. A stream only
// takes it to reserve and release its voice, never while waiting for the
// backend to drain.
type Engine struct {
	b   backend.Backend
	cfg Config
	log *log.Logger

	forceNoDevice bool
	noDevice      atomic.Bool

	mu     sync.Mutex
	pool   *pool
	recent *recency
}

// Stats is a snapshot of pool occupancy.
type Stats struct {
	Voices   int
	Free     int
	Reserved int
	Handles  int
	NoDevice bool
}

// Busy is the number of pooled voices playing or paused, not counting
// voices reserved by streams.
func (s Stats) Busy() int { return s.Voices - s.Reserved - s.Free }

// New creates an engine over b and opens its voice pool. If b is nil or the
// pool cannot be created, the engine runs without a device: every operation
// returns its neutral value and never calls the backend.
func New(b backend.Backend, opts ...Option) (*Engine, error) {
	e := &Engine{
		b:   b,
		cfg: DefaultConfig(),
		log: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithPrefix("engine")

	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	if e.forceNoDevice || b == nil {
		e.noDevice.Store(true)
		e.log.Warn("audio disabled, running without a device")
		return e, nil
	}

	voices, err := b.CreateVoicePool(e.cfg.Voices)
	if err != nil {
		e.noDevice.Store(true)
		e.log.Warn("audio disabled, could not open device", "error", err)
		return e, nil
	}

	e.pool = newPool(b, voices)
	e.recent = newRecency(len(voices))
	e.log.Debug("voice pool ready", "voices", len(voices))

	return e, nil
}

// NoDevice reports whether the engine is running without a device.
func (e *Engine) NoDevice() bool { return e.noDevice.Load() }

func (e *Engine) degraded() bool { return e.noDevice.Load() }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.cfg }

// Close stops every pooled voice and destroys the pool. Afterwards the
// engine behaves as if it had no device.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.degraded() {
		return nil
	}

	for _, v := range e.pool.rotation {
		e.pool.forget(v)
		e.b.StopVoice(v)
	}
	e.b.DestroyVoicePool()
	e.noDevice.Store(true)
	e.log.Debug("voice pool destroyed")

	return nil
}

// Stats reports current pool occupancy. Free voices are counted live.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.degraded() {
		return Stats{NoDevice: true}
	}

	st := Stats{
		Voices:   e.pool.size,
		Reserved: e.pool.reserved(),
		Handles:  len(e.pool.handles),
	}
	for _, v := range e.pool.rotation {
		if !e.pool.busy(v) {
			st.Free++
		}
	}
	return st
}

// recordTrigger notes c as the most recent trigger without evicting.
func (e *Engine) recordTrigger(c *Clip) {
	e.recent.record(c)
}

// evictOneFor claims the next recency slot for c. If that slot held a
// different clip, every voice playing it is stopped. It reports whether any
// voice was stopped.
func (e *Engine) evictOneFor(c *Clip) bool {
	victim := e.recent.claim(c)
	if victim == nil || victim == c {
		return false
	}

	n := e.pool.stopBuffer(victim.buf)
	if n > 0 {
		e.log.Debug("voices stolen", "victim", victim, "for", c, "stopped", n)
	}
	return n > 0
}

// Play starts a one-shot playback of c at volume and returns its handle.
// When every voice is busy the oldest recently triggered clip is stopped to
// make room; if that still frees nothing, InvalidHandle is returned.
func (e *Engine) Play(c *Clip, volume float32) SoundHandle {
	return e.PlayWith(c, volume, 1, 0)
}

// PlayWith is Play with an initial pitch and pan.
func (e *Engine) PlayWith(c *Clip, volume, pitch, pan float32) SoundHandle {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mustUse(c)
	if e.degraded() {
		return InvalidHandle
	}

	v, h, err := e.pool.allocate(false)
	if err != nil {
		e.log.Debug("no free voice, evicting", "clip", c)
		e.evictOneFor(c)
		v, h, err = e.pool.allocate(false)
		if err != nil {
			e.log.Debug("no voice after eviction", "clip", c)
			return InvalidHandle
		}
	} else {
		e.recordTrigger(c)
	}

	e.start(v, c, volume, pitch, pan, false)
	return h
}

// Loop starts c looping at volume. Loops never evict other playback and are
// never chosen for eviction; with no free voice Loop returns InvalidHandle.
func (e *Engine) Loop(c *Clip, volume float32) SoundHandle {
	return e.LoopWith(c, volume, 1, 0)
}

// LoopWith is Loop with an initial pitch and pan.
func (e *Engine) LoopWith(c *Clip, volume, pitch, pan float32) SoundHandle {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mustUse(c)
	if e.degraded() {
		return InvalidHandle
	}

	v, h, err := e.pool.allocate(false)
	if err != nil {
		e.log.Debug("no free voice for loop", "clip", c)
		return InvalidHandle
	}

	e.start(v, c, volume, pitch, pan, true)
	return h
}

func (e *Engine) start(v backend.Voice, c *Clip, volume, pitch, pan float32, looping bool) {
	e.b.BindBuffer(v, c.buf)
	e.b.SetLooping(v, looping)
	e.b.SetGain(v, volume)
	e.b.SetPitch(v, pitch)
	e.b.SetPan(v, pan)
	e.b.PlayVoice(v)
}

// byHandle applies op to the voice behind h, doing nothing for stale
// handles or without a device.
func (e *Engine) byHandle(h SoundHandle, op func(v backend.Voice)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.degraded() {
		return
	}
	e.pool.withHandle(h, op)
}

// Stop stops the playback behind h. The handle goes stale.
func (e *Engine) Stop(h SoundHandle) {
	e.byHandle(h, func(v backend.Voice) {
		e.pool.forgetHandle(h)
		e.b.StopVoice(v)
	})
}

// Pause holds the playback behind h.
func (e *Engine) Pause(h SoundHandle) {
	e.byHandle(h, e.b.PauseVoice)
}

// Resume restarts the playback behind h if it is paused.
func (e *Engine) Resume(h SoundHandle) {
	e.byHandle(h, e.resumePaused)
}

// SetGain sets the volume of the playback behind h.
func (e *Engine) SetGain(h SoundHandle, gain float32) {
	e.byHandle(h, func(v backend.Voice) { e.b.SetGain(v, gain) })
}

// SetPitch sets the playback rate behind h. 1 is the recorded pitch.
func (e *Engine) SetPitch(h SoundHandle, pitch float32) {
	e.byHandle(h, func(v backend.Voice) { e.b.SetPitch(v, pitch) })
}

// SetPan positions the playback behind h between -1 (left) and 1 (right).
func (e *Engine) SetPan(h SoundHandle, pan float32) {
	e.byHandle(h, func(v backend.Voice) { e.b.SetPan(v, pan) })
}

// SetLooping turns looping of the playback behind h on or off.
func (e *Engine) SetLooping(h SoundHandle, looping bool) {
	e.byHandle(h, func(v backend.Voice) { e.b.SetLooping(v, looping) })
}

func (e *Engine) resumePaused(v backend.Voice) {
	if e.b.VoiceState(v) == backend.Paused {
		e.b.PlayVoice(v)
	}
}

// byClip applies op to every pooled voice playing c's buffer. A disposed
// clip has no buffer and matches nothing.
func (e *Engine) byClip(c *Clip, op func(v backend.Voice)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mustOwn(c)
	if e.degraded() {
		return
	}

	e.pool.withBuffer(c.buf, op)
}

// StopAll stops every instance of c. Their handles go stale.
func (e *Engine) StopAll(c *Clip) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mustOwn(c)
	if e.degraded() {
		return
	}

	e.pool.stopBuffer(c.buf)
}

// PauseAll holds every playing instance of c.
func (e *Engine) PauseAll(c *Clip) {
	e.byClip(c, e.b.PauseVoice)
}

// ResumeAll resumes every paused instance of c.
func (e *Engine) ResumeAll(c *Clip) {
	e.byClip(c, e.resumePaused)
}

// SetLoopingAll turns looping on or off for every instance of c.
func (e *Engine) SetLoopingAll(c *Clip, looping bool) {
	e.byClip(c, func(v backend.Voice) { e.b.SetLooping(v, looping) })
}

// DisposeClip stops every voice playing c, deletes its buffer and removes it
// from eviction history. Disposing a clip twice panics.
func (e *Engine) DisposeClip(c *Clip) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.mustUse(c)
	c.disposed = true

	if e.degraded() || c.buf == backend.NoBuffer {
		return
	}

	e.pool.stopBuffer(c.buf)
	e.b.DeleteBuffer(c.buf)
	e.recent.forget(c)
	e.log.Debug("clip disposed", "clip", c, "buffer", c.buf)
	c.buf = backend.NoBuffer
}

// reserve takes a voice out of the rotation for exclusive streaming.
func (e *Engine) reserve() (backend.Voice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.degraded() {
		return 0, errNoDevice
	}
	v, _, err := e.pool.allocate(true)
	return v, err
}

// unreserve returns an exclusive voice to the rotation.
func (e *Engine) unreserve(v backend.Voice) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.degraded() {
		return
	}
	e.pool.release(v)
}
