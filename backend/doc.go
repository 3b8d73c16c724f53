// SPDX-License-Identifier: EPL-2.0

// Package backend defines the contract between the playback engine and an
// audio output driver.
//
// A driver exposes a fixed pool of voices (hardware playback channels) and
// PCM buffers. A voice plays either one static buffer bound to it, or a
// queue of stream buffers that are reported back as processed once played.
//
// The engine never caches voice state; it asks the backend every time it
// needs to know whether a voice is busy:
//
//	if b.VoiceState(v) == backend.Idle {
//	    b.BindBuffer(v, buf)
//	    b.PlayVoice(v)
//	}
//
// See the soft subpackage for a pure Go implementation.
package backend
