// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// MonoMixer averages every frame of src down to one channel. Backends only
// pan mono material, so clips meant to be panned are loaded through it.
type MonoMixer struct {
	src Source
	tmp []float32
}

func NewMonoMixer(src Source) *MonoMixer {
	return &MonoMixer{
		src: src,
		tmp: make([]float32, 4096),
	}
}

func (m *MonoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *MonoMixer) Channels() int   { return 1 }
func (m *MonoMixer) BufSize() int    { return m.src.BufSize() }

func (m *MonoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("closing mono source: %w", err)
	}
	return nil
}

// ReadSamples fills dst with mono samples, one per source frame.
func (m *MonoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == 1 {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) * channels
	if cap(m.tmp) < need {
		m.tmp = make([]float32, max(need, 8192))
	}
	m.tmp = m.tmp[:need]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	frames := n / channels

	if channels == 2 {
		for f := range frames {
			dst[f] = (m.tmp[2*f] + m.tmp[2*f+1]) * 0.5
		}
		return frames, err
	}

	inv := 1 / float32(channels)
	for f := range frames {
		var sum float32
		for _, s := range m.tmp[f*channels : (f+1)*channels] {
			sum += s
		}
		dst[f] = sum * inv
	}
	return frames, err
}
