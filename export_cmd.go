package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/epub2tts/internal/book"
	"github.com/dgnsrekt/epub2tts/internal/text"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

var exportCmd = &cobra.Command{
	Use:   "export SOURCE",
	Short: "Write a book out as an editable text manuscript",
	Long: paragraph(fmt.Sprintf("\n%s the chapters of a book as plain text. Edit the result, drop chapters you don't want read, then convert the .txt file.",
		keyword("Export"))),
	Example: paragraph("epub2tts export book.epub\nepub2tts book.txt"),
	Args:    cobra.ExactArgs(1),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"epub", "md"}, cobra.ShellCompDirectiveFilterFileExt
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]
		dest, _ := cmd.Flags().GetString("output")
		if dest == "" {
			dest = strings.TrimSuffix(src, filepath.Ext(src)) + ".txt"
		}
		if filepath.Clean(dest) == filepath.Clean(src) {
			return fmt.Errorf("refusing to overwrite the source %s", src)
		}

		tok := text.TokenizerFor(tts.LanguageForVoice(cfg.Voice))
		doc, err := book.Load(src, book.Options{Tokenizer: tok, Logger: log.Default()})
		if err != nil {
			return err
		}
		if err := confirmOverwrite(dest); err != nil {
			return err
		}

		f, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("unable to create %s: %w", dest, err)
		}
		if err := book.WriteText(f, doc); err != nil {
			_ = f.Close()
			return fmt.Errorf("unable to write %s: %w", dest, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		log.Info("Exported", "chapters", len(doc.Readable()), "path", dest)
		fmt.Println("Wrote", dest)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "manuscript path (default: the source with a .txt extension)")
}
