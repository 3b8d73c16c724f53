// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audvoice"
)

var (
	pitch float32
	pan   float32
)

var playCmd = &cobra.Command{
	Use:   "play FILE...",
	Short: "Play every file once, all at the same time",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		clips, err := audvoice.LoadClips(cmd.Context(), e, args)
		if err != nil {
			return err
		}

		var longest time.Duration
		for _, c := range clips {
			h := e.PlayWith(c, volume, pitch, pan)
			if !h.Valid() && !e.NoDevice() {
				logger.Warn("no voice left", "clip", c.Name())
				continue
			}
			logger.Info("playing", "clip", c.Name(), "duration", c.Duration(), "handle", h)
			longest = max(longest, time.Duration(float64(c.Duration())/float64(pitch)))
		}

		return waitFor(cmd.Context(), func() error {
			time.Sleep(longest)
			return nil
		})
	},
}

var loopCmd = &cobra.Command{
	Use:   "loop FILE",
	Short: "Loop a file until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		c, err := audvoice.LoadClip(e, args[0])
		if err != nil {
			return err
		}

		h := e.LoopWith(c, volume, pitch, pan)
		logger.Info("looping, press Ctrl-C to stop", "clip", c.Name(), "handle", h)

		return waitFor(cmd.Context(), func() error {
			<-cmd.Context().Done()
			return nil
		})
	},
}

func checkPitch(*cobra.Command, []string) error {
	if pitch <= 0 {
		return fmt.Errorf("--pitch must be positive, got %g", pitch)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{playCmd, loopCmd} {
		c.PreRunE = checkPitch
		c.Flags().Float32Var(&pitch, "pitch", 1, "playback speed, 1 is normal")
		c.Flags().Float32Var(&pan, "pan", 0, "stereo position of mono clips, -1 left to 1 right")
	}
}
