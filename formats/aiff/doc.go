// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes 16-bit PCM AIFF files with github.com/go-audio/aiff.
//
//	f, _ := os.Open("door.aiff")
//	src, err := aiff.Decoder{}.Decode(f)
//
// AIFF stores big-endian samples; the go-audio decoder takes care of the
// byte order, so the returned Source looks like any other.
package aiff
