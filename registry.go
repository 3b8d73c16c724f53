// SPDX-License-Identifier: EPL-2.0

package audvoice

import (
	"github.com/ik5/audvoice/audio"
	"github.com/ik5/audvoice/formats/aiff"
	"github.com/ik5/audvoice/formats/mp3"
	"github.com/ik5/audvoice/formats/vorbis"
	"github.com/ik5/audvoice/formats/wav"
)

// DefaultRegistry returns a new registry with every built-in decoder.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("aif", aiff.Decoder{})
	return r
}
