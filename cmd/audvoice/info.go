// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ik5/audvoice"
	"github.com/ik5/audvoice/audio"
)

var (
	fileStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Width(10)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type fileInfo struct {
	format     string
	channels   int
	sampleRate int
	frames     int
}

func (fi fileInfo) duration() time.Duration {
	if fi.sampleRate == 0 {
		return 0
	}
	return time.Duration(fi.frames) * time.Second / time.Duration(fi.sampleRate)
}

func probe(reg *audio.Registry, path string) (fileInfo, error) {
	dec, err := reg.ForFile(path)
	if err != nil {
		return fileInfo{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return fileInfo{}, err
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return fileInfo{}, err
	}
	defer src.Close()

	pcm, err := audio.ReadPCM16(src, 0)
	if err != nil {
		return fileInfo{}, err
	}

	return fileInfo{
		format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		channels:   src.Channels(),
		sampleRate: src.SampleRate(),
		frames:     len(pcm) / 2 / src.Channels(),
	}, nil
}

func printInfo(w io.Writer, path string, fi fileInfo) {
	row := func(label string, value any) {
		fmt.Fprintln(w, "  "+labelStyle.Render(label)+valueStyle.Render(fmt.Sprint(value)))
	}

	fmt.Fprintln(w, fileStyle.Render(path))
	row("format", fi.format)
	row("channels", fi.channels)
	row("rate", fmt.Sprintf("%d Hz", fi.sampleRate))
	row("frames", fi.frames)
	row("duration", fi.duration().Round(time.Millisecond))
}

var infoCmd = &cobra.Command{
	Use:   "info FILE...",
	Short: "Show the format, layout and length of audio files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := audvoice.DefaultRegistry()
		out := cmd.OutOrStdout()

		var failed int
		for _, path := range args {
			fi, err := probe(reg, path)
			if err != nil {
				failed++
				fmt.Fprintln(out, fileStyle.Render(path))
				fmt.Fprintln(out, "  "+errStyle.Render(err.Error()))
				continue
			}
			printInfo(out, path, fi)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be read", failed, len(args))
		}
		return nil
	},
}
