// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 files with github.com/hajimehoshi/go-mp3.
//
//	f, _ := os.Open("theme.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//
// go-mp3 always produces interleaved stereo, so Channels reports 2 even for
// mono files. Load such clips through audio.NewMonoMixer when they need to
// be panned.
package mp3
