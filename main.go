// Package main provides the entry point for the epub2tts CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/epub2tts/internal/config"
	"github.com/dgnsrekt/epub2tts/internal/mux"
	"github.com/dgnsrekt/epub2tts/internal/pipeline"
	"github.com/dgnsrekt/epub2tts/internal/tts"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	cfg        config.Config
	debug      bool
	assumeYes  bool
	noTitles   bool
	outputPath string
	coverPath  string

	rootCmd = &cobra.Command{
		Use:   "epub2tts [SOURCE]",
		Short: "Turn e-books into chaptered audiobooks",
		Long: paragraph(
			fmt.Sprintf("\nConvert an %s, plain-text or markdown book into an %s with chapter markers.",
				keyword("EPUB"), keyword("m4b audiobook")),
		),
		Example: paragraph("epub2tts book.epub\nepub2tts book.txt --voice bm_george --speed 1.1\nepub2tts book.epub --engine piper --cover front.jpg"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"epub", "txt", "md"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}
	if noTitles {
		viper.Set("titles", false)
	}

	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		if errors.Is(err, tts.ErrUnknownVoice) {
			return fmt.Errorf("%w%s", err, suggestion(viper.GetString("voice")))
		}
		return err
	}

	quiet := showProgress() && cmd.Name() == cmd.Root().Name()
	return configureLog(cfg.Log, debug, quiet)
}

// showProgress reports whether stderr can draw a progress bar.
func showProgress() bool {
	return term.IsTerminal(int(os.Stderr.Fd())) && !debug
}

var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirmOverwrite asks before replacing path. A non-interactive run without
// --yes refuses.
func confirmOverwrite(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if assumeYes {
		return nil
	}
	if !interactive() {
		return fmt.Errorf("%w: %s (use --yes to replace it)", mux.ErrDestinationExists, path)
	}
	ok, err := confirm(os.Stdin, os.Stderr, fmt.Sprintf("%s exists, overwrite?", path))
	if err != nil {
		return err
	}
	if !ok {
		return errDeclined
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// openEngine is replaced in tests.
var openEngine = pipeline.OpenEngine

func execute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	ctx, cancel := signalContext()
	defer cancel()

	conv := &pipeline.Converter{Config: cfg, Logger: log.Default()}
	job := pipeline.Job{Source: args[0], Output: outputPath, Cover: coverPath}
	// Nothing is created before the overwrite question is answered.
	if err := confirmOverwrite(conv.OutputPath(job)); err != nil {
		return err
	}
	job.Overwrite = true

	synth, err := openEngine(cfg, tts.HostProbe(), log.Default())
	if err != nil {
		return err
	}
	defer synth.Close() //nolint:errcheck
	conv.Synth = synth

	var po *progressObserver
	if showProgress() {
		po = newProgressObserver(os.Stderr)
		conv.Observer = po
	}

	res, err := conv.Run(ctx, job)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("Interrupted; finished chapters and paragraphs are kept for the next run")
		}
		return err
	}
	if po != nil {
		po.Done()
	}
	fmt.Println("Wrote", res.Output)
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		if errors.Is(err, errDeclined) {
			os.Exit(0)
		}
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	config.SetDefaults(viper.GetViper())
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	pf.StringP("voice", "v", tts.DefaultVoice, "narrator voice")
	pf.Float64P("speed", "s", tts.DefaultSpeed, "reading speed (0.5 to 2.0)")
	pf.StringP("engine", "e", string(tts.EngineExec), "synthesis engine: exec, piper, openai, edge or mock")
	pf.String("device", tts.DeviceAuto, "compute device: auto, cpu, cuda, xpu, mps or rocm")
	pf.Bool("cache", false, "reuse synthesized audio across runs")
	pf.BoolVar(&debug, "debug", false, "log debug output")
	pf.BoolVarP(&assumeYes, "yes", "y", false, "overwrite existing output without asking")

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "audiobook path (default \"<source> (<voice>).m4b\")")
	rootCmd.Flags().StringVar(&coverPath, "cover", "", "cover image (default: the EPUB's own cover)")
	rootCmd.Flags().StringP("workdir", "w", "", "directory for intermediate audio (default: current directory)")
	rootCmd.Flags().BoolVar(&noTitles, "no-titles", false, "do not read chapter titles")
	rootCmd.Flags().Bool("verify", false, "regenerate audio made with different settings")
	rootCmd.Flags().Bool("keep-chapters", false, "keep the chapter WAV files after muxing")

	// Config bindings
	_ = viper.BindPFlag("voice", pf.Lookup("voice"))
	_ = viper.BindPFlag("speed", pf.Lookup("speed"))
	_ = viper.BindPFlag("engine", pf.Lookup("engine"))
	_ = viper.BindPFlag("tts.device", pf.Lookup("device"))
	_ = viper.BindPFlag("cache.enabled", pf.Lookup("cache"))
	_ = viper.BindPFlag("workdir", rootCmd.Flags().Lookup("workdir"))
	_ = viper.BindPFlag("resume.verify", rootCmd.Flags().Lookup("verify"))
	_ = viper.BindPFlag("ffmpeg.keep_chapters", rootCmd.Flags().Lookup("keep-chapters"))

	rootCmd.AddCommand(configCmd, manCmd, exportCmd, sayCmd, samplesCmd, voicesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, config.AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, config.AppName)}, dirs...)
	}

	if c := os.Getenv("EPUB2TTS_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(config.AppName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(config.AppName)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], config.AppName+".yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
