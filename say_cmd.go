package main

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/epub2tts/internal/audio"
	"github.com/dgnsrekt/epub2tts/internal/pipeline"
	"github.com/dgnsrekt/epub2tts/internal/playback"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

var sayCmd = &cobra.Command{
	Use:   "say [FILE]",
	Short: "Read a text file (or the clipboard) into a WAV file",
	Long: paragraph(fmt.Sprintf("\n%s a single text file with the configured voice. The audio is written next to the file with a .wav extension.",
		keyword("Narrate"))),
	Example: paragraph("epub2tts say greeting.txt --voice am_michael\nepub2tts say --clipboard --play"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromClipboard, _ := cmd.Flags().GetBool("clipboard")
		play, _ := cmd.Flags().GetBool("play")
		dest, _ := cmd.Flags().GetString("output")

		if fromClipboard == (len(args) == 1) {
			return errors.New("give either a text file or --clipboard")
		}
		if len(args) == 1 && dest == "" {
			dest = pipeline.SayName(args[0])
		}
		if dest == "" && !play {
			return errors.New("nothing to do: use --output or --play with --clipboard")
		}
		if dest != "" {
			if err := confirmOverwrite(dest); err != nil {
				return err
			}
		}

		ctx, cancel := signalContext()
		defer cancel()

		synth, err := pipeline.OpenEngine(cfg, tts.HostProbe(), log.Default())
		if err != nil {
			return err
		}
		defer synth.Close() //nolint:errcheck

		log.Info("Generating audio", "voice", cfg.Voice, "speed", cfg.Speed)
		var b *audio.Buffer
		if fromClipboard {
			s, err := clipboard.ReadAll()
			if err != nil {
				return fmt.Errorf("unable to read clipboard: %w", err)
			}
			if b, err = pipeline.Speak(ctx, synth, cfg.Voice, cfg.Speed, s, cfg.ParagraphPause, log.Default()); err != nil {
				return err
			}
			if dest != "" {
				if err := audio.WriteFileAtomic(dest, b); err != nil {
					return err
				}
			}
		} else {
			if b, err = pipeline.SpeakFile(ctx, synth, cfg.Voice, cfg.Speed, args[0], dest, cfg.ParagraphPause, log.Default()); err != nil {
				return err
			}
		}
		if dest != "" {
			fmt.Printf("Audio saved to %s %s\n", dest, faint(b.Duration().String()))
		}

		if play {
			return playback.Play(ctx, b)
		}
		return nil
	},
}

func init() {
	sayCmd.Flags().Bool("clipboard", false, "read the text from the clipboard")
	sayCmd.Flags().Bool("play", false, "play the audio when done")
	sayCmd.Flags().StringP("output", "o", "", "WAV path (default: the text file with a .wav extension)")
}
