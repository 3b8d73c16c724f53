// SPDX-License-Identifier: EPL-2.0

// Package audvoice ties the decoders to the playback engine.
//
// The engine package plays PCM that is already in memory. This package fills
// the gap between a file on disk and an engine.Clip or engine.Music:
//
//	mixer := soft.NewMixer(44100, &soft.OtoDevice{})
//	e, _ := engine.New(mixer)
//	defer e.Close()
//
//	clip, err := audvoice.LoadClip(e, "shot.ogg")
//	if err != nil {
//		return err
//	}
//	h := e.Play(clip, 0.8)
//
// # Formats
//
// DefaultRegistry knows WAV and AIFF (16-bit PCM), MP3 and Ogg Vorbis, keyed
// by file extension. Callers may register more decoders on their own
// audio.Registry and pass it with WithRegistry.
//
// # Clips and Music
//
// LoadClip and DecodeClip decode the whole input and upload it as a Clip.
// LoadClips does the same for many files at once. OpenMusic keeps the file
// open and streams it through an engine.Music instead, for long tracks that
// should not sit in memory.
package audvoice
