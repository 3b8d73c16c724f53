// SPDX-License-Identifier: EPL-2.0

package backend

// Voice identifies one hardware playback channel. Its value is owned by the
// backend and is opaque to callers.
type Voice int

// Buffer identifies an uploaded PCM buffer owned by the backend.
type Buffer uint32

// NoBuffer is the zero Buffer. Binding it to a voice clears the voice's
// buffer binding and its stream queue.
const NoBuffer Buffer = 0

// VoiceState is the live playback state of a voice.
type VoiceState int

const (
	Idle VoiceState = iota
	Playing
	Paused
)

func (s VoiceState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Backend is the primitive set a playback engine drives. PCM passed to a
// backend is always interleaved signed 16-bit little-endian.
//
// Implementations must be safe for concurrent use: the engine serialises its
// own pool bookkeeping, but a stream writer polls its exclusive voice without
// holding the engine lock.
type Backend interface {
	// CreateVoicePool opens the output device and returns n voices. An error
	// means no device is available.
	CreateVoicePool(n int) ([]Voice, error)
	DestroyVoicePool()

	VoiceState(v Voice) VoiceState

	BindBuffer(v Voice, b Buffer)
	BoundBuffer(v Voice) Buffer

	SetGain(v Voice, gain float32)
	SetPitch(v Voice, pitch float32)
	// SetPan positions a voice between -1 (left) and 1 (right).
	SetPan(v Voice, pan float32)
	SetLooping(v Voice, looping bool)

	PlayVoice(v Voice)
	PauseVoice(v Voice)
	StopVoice(v Voice)

	CreateBuffer(pcm []byte, channels, sampleRate int) (Buffer, error)
	DeleteBuffer(b Buffer)

	// CreateStreamBuffers allocates n empty buffers of byteSize bytes each.
	CreateStreamBuffers(n, byteSize int) ([]Buffer, error)
	// FillBuffer replaces the content of a stream buffer.
	FillBuffer(b Buffer, pcm []byte, channels, sampleRate int) error
	Enqueue(v Voice, b Buffer)
	// DequeueProcessed removes the oldest fully played buffer from the
	// voice's queue. ok is false when none has been processed.
	DequeueProcessed(v Voice) (b Buffer, ok bool)
	ProcessedCount(v Voice) int
	// SubBufferOffset reports, in seconds, how far into its current buffer
	// the voice has played.
	SubBufferOffset(v Voice) float64
}
