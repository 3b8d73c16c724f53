// SPDX-License-Identifier: EPL-2.0

package engine

// SoundHandle identifies one one-shot or looping playback. It names a
// generation of a voice assignment, not the voice: once the voice is handed
// to another playback the handle goes stale and every operation on it
// silently does nothing.
type SoundHandle int64

// InvalidHandle is returned when no voice could be obtained, or when the
// engine has no device.
const InvalidHandle SoundHandle = -1

// Valid reports whether h was ever issued. A valid handle may still be stale.
func (h SoundHandle) Valid() bool { return h > 0 }
