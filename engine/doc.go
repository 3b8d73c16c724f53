// SPDX-License-Identifier: EPL-2.0

// Package engine shares a fixed pool of playback voices between sound
// effects, loops and streamed audio.
//
// # Voices and Handles
//
// The engine asks its backend.Backend for a fixed number of voices once, at
// construction. Every Play or Loop takes a free voice and returns a
// SoundHandle naming that particular playback:
//
//	shot, _ := e.NewClip("shot", pcm, 1, 44100)
//	h := e.Play(shot, 0.8)
//	e.SetPan(h, -0.5)
//
// Handles go stale as soon as their voice is reused. Operations on a stale
// or invalid handle are silently ignored, so callers never have to track
// whether a sound is still playing.
//
// # Voice Stealing
//
// When every voice is busy, Play stops all voices playing the clip that was
// triggered longest ago and tries once more. Loops never steal; a Loop with
// no free voice returns InvalidHandle.
//
// # Streaming
//
// A Stream reserves one voice for itself and pushes PCM through a small ring
// of backend buffers:
//
//	s, _ := e.OpenStream(engine.StreamConfig{SampleRate: 44100, Channels: 2})
//	defer s.Close()
//	s.Write(pcm)
//
// Write blocks while every buffer is queued, which paces the producer to
// playback speed. Music builds on a Stream to play a decoded audio.Source
// from a goroutine.
//
// # No Device
//
// If the backend is nil or cannot open its voices, the engine keeps working
// without sound: Play returns InvalidHandle, Write discards its input and
// nothing ever calls the backend.
package engine
