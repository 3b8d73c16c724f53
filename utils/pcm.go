// SPDX-License-Identifier: EPL-2.0

package utils

import "encoding/binary"

// AppendPCM16 appends samples to dst as signed 16-bit little-endian bytes.
func AppendPCM16(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

// AppendFloatPCM16 converts float samples to 16-bit and appends them to dst
// as little-endian bytes.
func AppendFloatPCM16(dst []byte, samples []float32) []byte {
	for _, x := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(Float32ToInt16(x)))
	}
	return dst
}

// PCM16At reads the i-th 16-bit little-endian sample of pcm.
func PCM16At(pcm []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(pcm[2*i:]))
}
