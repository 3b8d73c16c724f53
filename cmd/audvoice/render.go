// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audvoice"
	"github.com/ik5/audvoice/backend/soft"
	"github.com/ik5/audvoice/formats/wav"
	"github.com/ik5/audvoice/utils"
)

var (
	outPath     string
	maxDuration time.Duration
)

// renderFrames is how many frames are pulled from the mixer per step.
const renderFrames = 1024

var renderCmd = &cobra.Command{
	Use:   "render FILE...",
	Short: "Mix files offline into a stereo WAV file",
	Long: `render plays every file at once on a mixer with no output device and
writes the mix to a 16-bit stereo WAV file. It stops when every voice is
idle or after --max-duration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, mixer, err := newEngine(&soft.NullDevice{})
		if err != nil {
			return err
		}
		defer e.Close()

		clips, err := audvoice.LoadClips(cmd.Context(), e, args)
		if err != nil {
			return err
		}
		for _, c := range clips {
			e.PlayWith(c, volume, pitch, pan)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return err
		}

		frames, err := render(mixer, f, func() int { return e.Stats().Busy() }, int(maxDuration.Seconds()*float64(sampleRate)))
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("rendering %s: %w", outPath, err)
		}

		logger.Info("rendered", "file", outPath, "frames", frames,
			"duration", time.Duration(frames)*time.Second/time.Duration(sampleRate))
		return nil
	},
}

// render pulls the mix into w until no voice is busy or limit frames were
// written.
func render(mixer *soft.Mixer, ws io.WriteSeeker, busy func() int, limit int) (int, error) {
	w, err := wav.NewWriter(ws, mixer.SampleRate(), 2)
	if err != nil {
		return 0, err
	}

	raw := make([]byte, renderFrames*4)
	samples := make([]int16, renderFrames*2)
	written := 0

	for written < limit && busy() > 0 {
		n := min(renderFrames, limit-written)
		if _, err := mixer.Read(raw[:n*4]); err != nil {
			return written, errors.Join(err, w.Close())
		}
		for i := range n * 2 {
			samples[i] = utils.PCM16At(raw, i)
		}
		if err := w.WriteSamples(samples[:n*2]); err != nil {
			return written, errors.Join(err, w.Close())
		}
		written += n
	}

	return written, w.Close()
}

func init() {
	renderCmd.PreRunE = checkPitch
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "mix.wav", "output WAV file")
	renderCmd.Flags().DurationVar(&maxDuration, "max-duration", time.Minute, "longest mix to write")
	renderCmd.Flags().Float32Var(&pitch, "pitch", 1, "playback speed, 1 is normal")
	renderCmd.Flags().Float32Var(&pan, "pan", 0, "stereo position of mono clips")
}
