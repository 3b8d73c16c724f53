// SPDX-License-Identifier: EPL-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/ik5/audvoice"
)

var streamCmd = &cobra.Command{
	Use:   "stream FILE",
	Short: "Stream a file without decoding it up front",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		m, err := audvoice.OpenMusic(e, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		m.SetVolume(volume)
		m.Play()
		logger.Info("streaming", "file", args[0], "buffer", bufferSize, "buffers", bufferCount)

		err = waitFor(cmd.Context(), func() error {
			<-m.Done()
			return m.Err()
		})
		logger.Info("stopped", "position", m.Position())
		return err
	},
}
