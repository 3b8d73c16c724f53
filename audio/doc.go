// SPDX-License-Identifier: EPL-2.0

// Package audio provides the decoding side of the engine: a common Source
// interface for decoded audio, a Registry of format decoders, and helpers
// that turn a Source into the PCM that playback backends accept.
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 values in [-1, 1]. ReadSamples returns
// io.EOF once the stream is finished, possibly together with the last
// samples.
//
// # Format Registry
//
// Decoders are registered by file extension. Keys are case-insensitive and
// may carry a leading dot:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	dec, err := registry.ForFile("shot.WAV")
//
// A missing decoder yields an error matching ErrUnknownFormat.
//
// # Preparing Clips
//
// ReadPCM16 drains a Source into signed 16-bit little-endian PCM. The
// MonoMixer averages channels together, which is needed for clips that are
// going to be panned:
//
//	pcm, err := audio.ReadPCM16(audio.NewMonoMixer(src), 0)
package audio
