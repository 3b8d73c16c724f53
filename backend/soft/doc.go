// SPDX-License-Identifier: EPL-2.0

// Package soft implements backend.Backend in software. A Mixer keeps voices
// and buffers in memory and renders all playing voices into one stereo
// 16-bit stream; a Device carries that stream to the speakers.
//
// Three devices are provided:
//   - OtoDevice plays through github.com/ebitengine/oto/v3
//   - BeepDevice plays through the github.com/gopxl/beep/v2 speaker
//   - NullDevice plays nothing, leaving the caller to pull from Read
//
// Voices are resampled to the mixer rate with cubic interpolation, which
// is also how pitch is applied. Pan uses an equal-power law and only
// applies to mono buffers.
//
// Usage:
//
//	m := soft.NewMixer(44100, &soft.OtoDevice{Latency: 40 * time.Millisecond})
//	e, err := engine.New(m)
package soft
