// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"fmt"
	"sync"

	"github.com/ik5/audvoice/backend"
)

// FakeBackend is an in-memory backend.Backend that plays nothing. Voice
// state only changes through the Backend methods or the scripting helpers
// (Finish, SetState, Process), so tests decide when hardware "drains".
type FakeBackend struct {
	// PoolErr, when set, makes CreateVoicePool fail.
	PoolErr error

	mu         sync.Mutex
	voices     map[backend.Voice]*fakeVoice
	buffers    map[backend.Buffer][]byte
	nextBuffer backend.Buffer
	calls      map[string]int
	total      int
	destroyed  bool
}

type fakeVoice struct {
	state     backend.VoiceState
	bound     backend.Buffer
	gain      float32
	pitch     float32
	pan       float32
	looping   bool
	queue     []backend.Buffer
	processed []backend.Buffer
	offset    float64
}

// NewFakeBackend returns an empty fake.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		voices:  make(map[backend.Voice]*fakeVoice),
		buffers: make(map[backend.Buffer][]byte),
		calls:   make(map[string]int),
	}
}

func (f *FakeBackend) record(name string) {
	f.calls[name]++
	f.total++
}

func (f *FakeBackend) voice(v backend.Voice) *fakeVoice {
	fv, ok := f.voices[v]
	if !ok {
		panic(fmt.Sprintf("audiotest: unknown voice %d", v))
	}
	return fv
}

func (f *FakeBackend) CreateVoicePool(n int) ([]backend.Voice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateVoicePool")

	if f.PoolErr != nil {
		return nil, f.PoolErr
	}

	out := make([]backend.Voice, n)
	for i := range n {
		v := backend.Voice(i + 1)
		f.voices[v] = &fakeVoice{gain: 1, pitch: 1}
		out[i] = v
	}
	return out, nil
}

func (f *FakeBackend) DestroyVoicePool() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DestroyVoicePool")
	f.destroyed = true
}

func (f *FakeBackend) VoiceState(v backend.Voice) backend.VoiceState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("VoiceState")
	return f.voice(v).state
}

func (f *FakeBackend) BindBuffer(v backend.Voice, b backend.Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("BindBuffer")

	fv := f.voice(v)
	fv.bound = b
	fv.queue = nil
	fv.processed = nil
	fv.offset = 0
}

func (f *FakeBackend) BoundBuffer(v backend.Voice) backend.Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("BoundBuffer")
	return f.voice(v).bound
}

func (f *FakeBackend) SetGain(v backend.Voice, gain float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetGain")
	f.voice(v).gain = gain
}

func (f *FakeBackend) SetPitch(v backend.Voice, pitch float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetPitch")
	f.voice(v).pitch = pitch
}

func (f *FakeBackend) SetPan(v backend.Voice, pan float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetPan")
	f.voice(v).pan = pan
}

func (f *FakeBackend) SetLooping(v backend.Voice, looping bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetLooping")
	f.voice(v).looping = looping
}

func (f *FakeBackend) PlayVoice(v backend.Voice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PlayVoice")
	f.voice(v).state = backend.Playing
}

func (f *FakeBackend) PauseVoice(v backend.Voice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PauseVoice")

	fv := f.voice(v)
	if fv.state == backend.Playing {
		fv.state = backend.Paused
	}
}

func (f *FakeBackend) StopVoice(v backend.Voice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("StopVoice")

	fv := f.voice(v)
	fv.state = backend.Idle
	fv.processed = append(fv.processed, fv.queue...)
	fv.queue = nil
	fv.offset = 0
}

func (f *FakeBackend) CreateBuffer(pcm []byte, channels, sampleRate int) (backend.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateBuffer")

	f.nextBuffer++
	f.buffers[f.nextBuffer] = append([]byte(nil), pcm...)
	return f.nextBuffer, nil
}

func (f *FakeBackend) DeleteBuffer(b backend.Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteBuffer")

	if _, ok := f.buffers[b]; !ok {
		panic(fmt.Sprintf("audiotest: delete of unknown buffer %d", b))
	}
	for v, fv := range f.voices {
		if fv.bound == b && fv.state != backend.Idle {
			panic(fmt.Sprintf("audiotest: buffer %d deleted while voice %d is %s", b, v, fv.state))
		}
	}
	delete(f.buffers, b)
}

func (f *FakeBackend) CreateStreamBuffers(n, byteSize int) ([]backend.Buffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateStreamBuffers")

	out := make([]backend.Buffer, n)
	for i := range n {
		f.nextBuffer++
		f.buffers[f.nextBuffer] = make([]byte, 0, byteSize)
		out[i] = f.nextBuffer
	}
	return out, nil
}

func (f *FakeBackend) FillBuffer(b backend.Buffer, pcm []byte, channels, sampleRate int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FillBuffer")

	if _, ok := f.buffers[b]; !ok {
		return fmt.Errorf("audiotest: fill of unknown buffer %d", b)
	}
	f.buffers[b] = append(f.buffers[b][:0], pcm...)
	return nil
}

func (f *FakeBackend) Enqueue(v backend.Voice, b backend.Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Enqueue")

	fv := f.voice(v)
	fv.queue = append(fv.queue, b)
}

func (f *FakeBackend) DequeueProcessed(v backend.Voice) (backend.Buffer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DequeueProcessed")

	fv := f.voice(v)
	if len(fv.processed) == 0 {
		return backend.NoBuffer, false
	}
	b := fv.processed[0]
	fv.processed = fv.processed[1:]
	return b, true
}

func (f *FakeBackend) ProcessedCount(v backend.Voice) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ProcessedCount")
	return len(f.voice(v).processed)
}

func (f *FakeBackend) SubBufferOffset(v backend.Voice) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SubBufferOffset")
	return f.voice(v).offset
}

// Scripting and inspection helpers. These are not counted as backend calls.

// Calls returns the total number of Backend method calls made so far.
func (f *FakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// CallCount returns how many times the named Backend method was called.
func (f *FakeBackend) CallCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// SetState forces the live state of a voice.
func (f *FakeBackend) SetState(v backend.Voice, s backend.VoiceState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voice(v).state = s
}

// State reads a voice state without recording a call.
func (f *FakeBackend) State(v backend.Voice) backend.VoiceState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voice(v).state
}

// Finish marks a voice as having played to the end of its buffer.
func (f *FakeBackend) Finish(v backend.Voice) {
	f.SetState(v, backend.Idle)
}

// Process marks up to n queued buffers of v as played. It returns how many
// were moved.
func (f *FakeBackend) Process(v backend.Voice, n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	fv := f.voice(v)
	n = min(n, len(fv.queue))
	fv.processed = append(fv.processed, fv.queue[:n]...)
	fv.queue = fv.queue[n:]
	return n
}

// SetOffset sets the sub-buffer offset reported for v.
func (f *FakeBackend) SetOffset(v backend.Voice, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voice(v).offset = seconds
}

// Queued returns the buffers queued on v and not yet processed.
func (f *FakeBackend) Queued(v backend.Voice) []backend.Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.Buffer(nil), f.voice(v).queue...)
}

// Bound returns the buffer bound to v.
func (f *FakeBackend) Bound(v backend.Voice) backend.Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voice(v).bound
}

// Params returns the gain, pitch, pan and looping flag last set on v.
func (f *FakeBackend) Params(v backend.Voice) (gain, pitch, pan float32, looping bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fv := f.voice(v)
	return fv.gain, fv.pitch, fv.pan, fv.looping
}

// BufferData returns a copy of the content of b. ok is false once b has
// been deleted.
func (f *FakeBackend) BufferData(b backend.Buffer) (data []byte, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.buffers[b]
	return append([]byte(nil), d...), ok
}

// LiveBuffers returns the number of buffers not yet deleted.
func (f *FakeBackend) LiveBuffers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buffers)
}

// Active returns the number of voices that are playing or paused.
func (f *FakeBackend) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, fv := range f.voices {
		if fv.state != backend.Idle {
			n++
		}
	}
	return n
}

// Destroyed reports whether DestroyVoicePool was called.
func (f *FakeBackend) Destroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

var _ backend.Backend = (*FakeBackend)(nil)
