// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis files with github.com/jfreymuth/oggvorbis.
//
//	f, _ := os.Open("ambience.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
//
// Vorbis decodes straight to float samples, so no conversion happens
// between the decoder and the Source.
package vorbis
