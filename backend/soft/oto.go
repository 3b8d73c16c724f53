// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoErr  error
)

func otoContext(rate int, latency time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   latency,
		})
		if otoErr == nil {
			<-ready
			otoRate = rate
		}
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if otoRate != rate {
		return nil, fmt.Errorf("oto context already running at %d Hz", otoRate)
	}
	return otoCtx, nil
}

// OtoDevice plays through github.com/ebitengine/oto/v3. The mixer is the
// player's io.Reader.
type OtoDevice struct {
	// Latency is the driver buffer duration. Zero lets oto decide.
	Latency time.Duration

	mu     sync.Mutex
	player *oto.Player
}

func (d *OtoDevice) Open(m *Mixer) error {
	ctx, err := otoContext(m.SampleRate(), d.Latency)
	if err != nil {
		return fmt.Errorf("oto: %w", err)
	}
	if err := ctx.Resume(); err != nil {
		return fmt.Errorf("oto resume: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.player = ctx.NewPlayer(m)
	if d.Latency > 0 {
		// Keep the player's own buffer in line with the driver's.
		d.player.SetBufferSize(int(d.Latency.Seconds()*float64(m.SampleRate())) * 4)
	}
	d.player.Play()
	return nil
}

func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player == nil {
		return nil
	}
	err := d.player.Close()
	d.player = nil
	if err != nil {
		return fmt.Errorf("oto player: %w", err)
	}
	if err := otoCtx.Suspend(); err != nil {
		return fmt.Errorf("oto suspend: %w", err)
	}
	return nil
}
