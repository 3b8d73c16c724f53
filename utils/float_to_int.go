// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 converts a sample in [-1, 1] to signed 16-bit, clamping
// anything outside that range.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1 from overflowing
	return int16(x * 32767.0)
}

// Int16ToFloat32 converts a signed 16-bit sample to [-1, 1).
func Int16ToFloat32(s int16) float32 {
	return float32(s) / 32768.0
}
