package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/epub2tts/internal/tts"
)

var voicesCmd = &cobra.Command{
	Use:     "voices [VOICE]",
	Short:   "List the narrator voices",
	Long:    paragraph(fmt.Sprintf("\nList the %s narrator voices, or check a single name.", keyword("Kokoro"))),
	Example: paragraph("epub2tts voices\nepub2tts voices bf_emma"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := checkVoice(args[0]); err != nil {
				return err
			}
			v, _ := tts.ParseVoice(args[0])
			fmt.Printf("%s %s, %s\n", keyword(v.Name), v.Language, gender(v))
			return nil
		}

		out, err := renderMarkdown(voicesMarkdown())
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

// checkVoice rejects names outside the catalog, suggesting close ones.
func checkVoice(name string) error {
	if tts.Known(name) {
		return nil
	}
	if _, err := tts.ParseVoice(name); err == nil {
		// Well formed but not in the catalog: leave it to the engine.
		return nil
	}
	return fmt.Errorf("%w: %q%s", tts.ErrUnknownVoice, name, suggestion(name))
}

func suggestion(name string) string {
	s := tts.Suggest(name, 3)
	if len(s) == 0 {
		return ""
	}
	return " (did you mean " + strings.Join(s, ", ") + "?)"
}

func gender(v tts.Voice) string {
	if v.Female {
		return "female"
	}
	return "male"
}

func voicesMarkdown() string {
	var b strings.Builder
	b.WriteString("# Voices\n\n| Voice | Language | Gender |\n|---|---|---|\n")
	for _, v := range tts.Voices() {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", v.Name, v.Language, gender(v))
	}
	fmt.Fprintf(&b, "\nThe default voice is `%s`.\n", tts.DefaultVoice)
	return b.String()
}

// renderMarkdown styles md for the terminal, or plainly when stdout is not
// one.
func renderMarkdown(md string) (string, error) {
	style := styles.AutoStyle
	width := 80
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		style = styles.NoTTYStyle
	} else if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = min(w, 120)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
