// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes PCM 16-bit WAV files using
// github.com/go-audio/wav.
//
// Decoding:
//
//	f, _ := os.Open("shot.wav")
//	src, err := wav.Decoder{}.Decode(f)
//
// Readers that cannot seek are buffered in memory, since the go-audio
// decoder needs to jump between chunks.
//
// Writing needs an io.WriteSeeker so the chunk sizes can be patched once
// the data is known:
//
//	w, _ := wav.NewWriter(f, 44100, 2)
//	w.WriteSamples(pcm)
//	w.Close()
//
// WriteWAV16 does the same for a single slice of samples.
package wav
