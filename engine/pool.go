// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"slices"

	"github.com/ik5/audvoice/backend"
)

// pool tracks which voices may be handed out and which handle currently
// owns each one. Voice state is never cached; every scan asks the backend.
// All methods expect the engine lock to be held.
type pool struct {
	b backend.Backend

	size int
	// rotation holds every voice not reserved by a stream, in scan order.
	rotation []backend.Voice

	handles map[SoundHandle]backend.Voice
	owners  map[backend.Voice]SoundHandle
	last    SoundHandle
}

func newPool(b backend.Backend, voices []backend.Voice) *pool {
	return &pool{
		b:        b,
		size:     len(voices),
		rotation: slices.Clone(voices),
		handles:  make(map[SoundHandle]backend.Voice, len(voices)),
		owners:   make(map[backend.Voice]SoundHandle, len(voices)),
	}
}

func (p *pool) busy(v backend.Voice) bool {
	switch p.b.VoiceState(v) {
	case backend.Playing, backend.Paused:
		return true
	}
	return false
}

// allocate hands out the first voice that is neither playing nor paused.
//
// An exclusive voice leaves the rotation until release and gets no handle.
// A shared voice stays in the rotation, loses whatever handle it had, and is
// reset and stopped under a freshly issued handle.
func (p *pool) allocate(exclusive bool) (backend.Voice, SoundHandle, error) {
	for i, v := range p.rotation {
		if p.busy(v) {
			continue
		}

		p.forget(v)
		p.b.StopVoice(v)
		p.b.BindBuffer(v, backend.NoBuffer)
		p.b.SetGain(v, 1)
		p.b.SetPitch(v, 1)
		p.b.SetPan(v, 0)

		if exclusive {
			p.rotation = slices.Delete(p.rotation, i, i+1)
			return v, InvalidHandle, nil
		}

		p.last++
		h := p.last
		p.handles[h] = v
		p.owners[v] = h
		return v, h, nil
	}

	return 0, InvalidHandle, ErrPoolExhausted
}

// release returns an exclusive voice to the rotation.
func (p *pool) release(v backend.Voice) {
	p.b.StopVoice(v)
	p.b.BindBuffer(v, backend.NoBuffer)
	p.b.SetGain(v, 1)
	p.b.SetPitch(v, 1)
	p.b.SetPan(v, 0)
	p.forget(v)
	if !slices.Contains(p.rotation, v) {
		p.rotation = append(p.rotation, v)
	}
}

func (p *pool) lookup(h SoundHandle) (backend.Voice, bool) {
	v, ok := p.handles[h]
	return v, ok
}

// forget drops the handle mapped to v, if any. The handle turns stale.
func (p *pool) forget(v backend.Voice) {
	if h, ok := p.owners[v]; ok {
		delete(p.handles, h)
		delete(p.owners, v)
	}
}

// forgetHandle drops h, if it is still live.
func (p *pool) forgetHandle(h SoundHandle) {
	if v, ok := p.handles[h]; ok {
		delete(p.handles, h)
		delete(p.owners, v)
	}
}

// withHandle runs op on the voice behind h. Stale and unknown handles are a
// silent no-op.
func (p *pool) withHandle(h SoundHandle, op func(v backend.Voice)) bool {
	v, ok := p.lookup(h)
	if !ok {
		return false
	}
	op(v)
	return true
}

// withBuffer runs op on every voice in the rotation whose live bound buffer
// is buf, and returns how many voices matched.
func (p *pool) withBuffer(buf backend.Buffer, op func(v backend.Voice)) int {
	if buf == backend.NoBuffer {
		return 0
	}

	n := 0
	for _, v := range p.rotation {
		if p.b.BoundBuffer(v) != buf {
			continue
		}
		op(v)
		n++
	}
	return n
}

func (p *pool) stopBuffer(buf backend.Buffer) int {
	return p.withBuffer(buf, func(v backend.Voice) {
		p.forget(v)
		p.b.StopVoice(v)
	})
}

func (p *pool) reserved() int { return p.size - len(p.rotation) }
