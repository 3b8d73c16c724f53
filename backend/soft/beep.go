// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// BeepDevice plays through the github.com/gopxl/beep/v2 speaker. The mixer
// is added to the speaker as a beep.Streamer.
//
// beep's speaker sits on top of oto, so a process uses either BeepDevice or
// OtoDevice, not both.
type BeepDevice struct {
	// Latency is the speaker buffer duration. Zero means 50ms.
	Latency time.Duration

	mu sync.Mutex
	s  *streamer
}

type streamer struct {
	m   *Mixer
	buf []float32
	// stopped is read under the speaker lock.
	stopped bool
}

func (s *streamer) Stream(samples [][2]float64) (int, bool) {
	if s.stopped {
		return 0, false
	}
	s.buf = s.m.Render(s.buf, len(samples))
	for i := range samples {
		samples[i][0] = float64(s.buf[2*i])
		samples[i][1] = float64(s.buf[2*i+1])
	}
	return len(samples), true
}

func (s *streamer) Err() error { return nil }

func (d *BeepDevice) Open(m *Mixer) error {
	latency := d.Latency
	if latency <= 0 {
		latency = 50 * time.Millisecond
	}
	sr := beep.SampleRate(m.SampleRate())

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sr, sr.N(latency))
		speakerRate = sr
	})
	if speakerErr != nil {
		return fmt.Errorf("beep speaker: %w", speakerErr)
	}
	if speakerRate != sr {
		return fmt.Errorf("beep speaker already running at %d Hz", speakerRate)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.s = &streamer{m: m}
	speaker.Play(d.s)
	return nil
}

func (d *BeepDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.s == nil {
		return nil
	}
	speaker.Lock()
	d.s.stopped = true
	speaker.Unlock()
	d.s = nil
	return nil
}
