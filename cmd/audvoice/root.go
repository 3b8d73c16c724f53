// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/ctrlc"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ik5/audvoice/backend/soft"
	"github.com/ik5/audvoice/engine"
)

var (
	voices      int
	sampleRate  int
	deviceName  string
	latency     time.Duration
	bufferSize  int
	bufferCount int
	volume      float32
	verbose     bool

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "audvoice",
	})
)

var rootCmd = &cobra.Command{
	Use:   "audvoice",
	Short: "Play audio files through a fixed pool of voices",
	Long: `audvoice drives the audvoice playback engine from the command line.

Clips are decoded fully and played on pooled voices; when every voice is
busy the oldest triggered clip is stopped to make room. Long files can be
streamed instead. Without a usable audio device the engine keeps running
silently.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	f := rootCmd.PersistentFlags()
	f.IntVar(&voices, "voices", engine.DefaultVoices, "number of voices in the pool")
	f.IntVar(&sampleRate, "rate", 44100, "output sample rate in Hz")
	f.StringVar(&deviceName, "device", "oto", "output device: oto, beep or null")
	f.DurationVar(&latency, "latency", 0, "output buffer duration (0 picks the device default)")
	f.IntVar(&bufferSize, "buffer-size", engine.DefaultStreamBufferSize, "stream buffer size in bytes")
	f.IntVar(&bufferCount, "buffer-count", engine.DefaultStreamBufferCount, "number of stream buffers")
	f.Float32Var(&volume, "volume", 1, "playback volume")
	f.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(playCmd, loopCmd, streamCmd, renderCmd, infoCmd)
}

func newDevice(name string) (soft.Device, error) {
	switch name {
	case "oto":
		return &soft.OtoDevice{Latency: latency}, nil
	case "beep":
		return &soft.BeepDevice{Latency: latency}, nil
	case "null":
		return &soft.NullDevice{}, nil
	default:
		return nil, fmt.Errorf("unknown device %q", name)
	}
}

func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Voices = voices
	cfg.StreamBufferSize = bufferSize
	cfg.StreamBufferCount = bufferCount
	return cfg
}

// newEngine opens the engine on a software mixer feeding dev.
func newEngine(dev soft.Device) (*engine.Engine, *soft.Mixer, error) {
	mixer := soft.NewMixer(sampleRate, dev, soft.WithLogger(logger))
	e, err := engine.New(mixer,
		engine.WithConfig(engineConfig()),
		engine.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	if e.NoDevice() {
		logger.Warn("no audio output, playing silently", "device", deviceName)
	}
	return e, mixer, nil
}

func openEngine() (*engine.Engine, error) {
	dev, err := newDevice(deviceName)
	if err != nil {
		return nil, err
	}
	e, _, err := newEngine(dev)
	return e, err
}

// waitFor runs task until it returns or the user interrupts. An interrupt
// is not an error.
func waitFor(ctx context.Context, task func() error) error {
	err := ctrlc.Default.Run(ctx, task)

	var sig ctrlc.ErrorCtrlC
	if errors.As(err, &sig) {
		logger.Info("interrupted")
		return nil
	}
	return err
}
