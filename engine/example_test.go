// SPDX-License-Identifier: EPL-2.0

package engine_test

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/ik5/audvoice/backend/soft"
	"github.com/ik5/audvoice/engine"
)

func Example() {
	cfg := engine.DefaultConfig()
	cfg.Voices = 4

	mixer := soft.NewMixer(44100, &soft.NullDevice{})
	e, err := engine.New(mixer,
		engine.WithConfig(cfg),
		engine.WithLogger(log.New(io.Discard)),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer e.Close()

	// A tenth of a second of mono silence.
	clip, err := e.NewClip("click", make([]byte, 4410*2), 1, 44100)
	if err != nil {
		fmt.Println(err)
		return
	}

	h := e.Play(clip, 0.8)
	fmt.Println("valid:", h.Valid(), "free:", e.Stats().Free)

	e.Stop(h)
	e.Stop(h) // stale, ignored
	fmt.Println("free:", e.Stats().Free, "handles:", e.Stats().Handles)

	// Output:
	// valid: true free: 3
	// free: 4 handles: 0
}

func ExampleWithNoDevice() {
	e, _ := engine.New(nil, engine.WithLogger(log.New(io.Discard)))

	clip, _ := e.NewClip("click", make([]byte, 64), 1, 8000)
	h := e.Play(clip, 1)

	// Every call succeeds and does nothing.
	e.SetPan(h, -1)
	e.Stop(h)
	fmt.Println(e.NoDevice(), h.Valid())

	// Output: true false
}
