package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/epub2tts/internal/pipeline"
	"github.com/dgnsrekt/epub2tts/internal/playback"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

var samplesCmd = &cobra.Command{
	Use:     "samples [VOICE...]",
	Short:   "Write a short sample for each voice",
	Long:    paragraph(fmt.Sprintf("\nWrite %s for every English voice, or for the voices given. Existing samples are kept.", keyword("<voice>_sample.wav"))),
	Example: paragraph("epub2tts samples\nepub2tts samples af_heart bm_george --play"),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		play, _ := cmd.Flags().GetBool("play")

		voices := args
		if len(voices) == 0 {
			voices = tts.SampleVoices()
		}
		for _, v := range voices {
			if err := checkVoice(v); err != nil {
				return err
			}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("unable to create %s: %w", dir, err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		synth, err := pipeline.OpenEngine(cfg, tts.HostProbe(), log.Default())
		if err != nil {
			return err
		}
		defer synth.Close() //nolint:errcheck

		samples, err := pipeline.Samples(ctx, synth, dir, voices, log.Default())
		for _, s := range samples {
			state := "created"
			if s.Skipped {
				state = "exists"
			}
			fmt.Printf("%-12s %s %s\n", s.Voice, s.Path, faint(state))
			if play && !s.Skipped {
				if err := playback.PlayFile(ctx, s.Path); err != nil {
					return err
				}
			}
		}
		return err
	},
}

func init() {
	samplesCmd.Flags().StringP("dir", "d", ".", "directory for the samples")
	samplesCmd.Flags().Bool("play", false, "play each new sample")
}
