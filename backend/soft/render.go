// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"math"

	"github.com/ik5/audvoice/backend"
	"github.com/ik5/audvoice/utils"
)

// Read renders interleaved stereo signed 16-bit little-endian PCM into p.
// It never ends: with nothing playing it produces silence. Trailing bytes
// that do not form a whole frame are left untouched.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := len(p) / 4

	m.mu.Lock()
	defer m.mu.Unlock()

	utils.AppendFloatPCM16(p[:0], m.render(frames))
	return frames * 4, nil
}

// Render mixes frames of stereo float samples into dst, which is grown as
// needed and returned.
func (m *Mixer) Render(dst []float32, frames int) []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append(dst[:0], m.render(frames)...)
}

// render mixes into the shared scratch buffer. Callers hold m.mu.
func (m *Mixer) render(frames int) []float32 {
	n := frames * 2
	if cap(m.mix) < n {
		m.mix = make([]float32, n)
	}
	m.mix = m.mix[:n]
	clear(m.mix)

	for _, vc := range m.voices {
		if vc.state == backend.Playing {
			m.renderVoice(vc, m.mix)
		}
	}
	return m.mix
}

// current returns the buffer a voice should read from, retiring exhausted
// zero-length stream buffers on the way.
func (m *Mixer) current(vc *voice) *buffer {
	for len(vc.queue) > 0 {
		b, ok := m.buffers[vc.queue[0]]
		if ok && b.frames > 0 {
			return b
		}
		vc.processed = append(vc.processed, vc.queue[0])
		vc.queue = vc.queue[1:]
	}
	if b, ok := m.buffers[vc.bound]; ok && b.frames > 0 {
		return b
	}
	return nil
}

func (m *Mixer) renderVoice(vc *voice, out []float32) {
	frames := len(out) / 2
	streaming := len(vc.queue) > 0

	for f := 0; f < frames; {
		buf := m.current(vc)
		if buf == nil {
			// Nothing bound, or the queue ran dry.
			vc.state = backend.Idle
			vc.pos = 0
			return
		}

		step := float64(vc.pitch) * float64(buf.rate) / float64(m.rate)
		if step <= 0 {
			return
		}
		gl, gr := gains(vc, buf.channels)

		end := float64(buf.frames)
		for ; f < frames && vc.pos < end; f++ {
			l, r := buf.frameAt(vc.pos)
			out[2*f] += l * gl
			out[2*f+1] += r * gr
			vc.pos += step
		}
		if vc.pos < end {
			return
		}

		switch {
		case streaming:
			vc.pos -= end
			vc.processed = append(vc.processed, vc.queue[0])
			vc.queue = vc.queue[1:]
		case vc.looping:
			vc.pos = math.Mod(vc.pos, end)
		default:
			vc.state = backend.Idle
			vc.pos = 0
			return
		}
	}
}

// gains returns the left and right multipliers. Mono is panned with an
// equal-power law; stereo ignores pan.
func gains(vc *voice, channels int) (float32, float32) {
	if channels != 1 {
		return vc.gain, vc.gain
	}
	angle := float64(vc.pan+1) * math.Pi / 4
	return vc.gain * float32(math.Cos(angle)), vc.gain * float32(math.Sin(angle))
}

func (b *buffer) at(frame, ch int) float32 {
	frame = min(max(frame, 0), b.frames-1)
	return b.samples[frame*b.channels+ch]
}

// frameAt samples the buffer at a fractional frame position using cubic
// interpolation. Mono returns the same value on both sides.
func (b *buffer) frameAt(pos float64) (float32, float32) {
	i := int(pos)
	x := float32(pos - float64(i))

	sample := func(ch int) float32 {
		if x == 0 {
			return b.at(i, ch)
		}
		return utils.CubicInterpolate(b.at(i-1, ch), b.at(i, ch), b.at(i+1, ch), b.at(i+2, ch), x)
	}

	l := sample(0)
	if b.channels == 1 {
		return l, l
	}
	return l, sample(1)
}
