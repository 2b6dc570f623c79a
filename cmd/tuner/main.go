package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/RyanBlaney/sonido-tuner/algorithms/tonal"
	"github.com/RyanBlaney/sonido-tuner/logging"
	"github.com/RyanBlaney/sonido-tuner/transcode"
	"github.com/RyanBlaney/sonido-tuner/tuning"
	"github.com/RyanBlaney/sonido-tuner/tuning/config"
)

var exampleUsage = strings.TrimSpace(`
  tuner listen --file strings.wav
  tuner listen --file take.flac --tuning "Open G" --tolerance 3
  tuner listen --file long.mp3 --config ./tuner.toml --watch
  tuner tunings
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

type listenOptions struct {
	file            string
	tuningName      string
	watch           bool
	selectString    int
	searchWindow    int
	releaseOnDetune bool
	session         config.SessionConfig
	decoder         *transcode.DecoderConfig
}

func main() {
	var cfgPath string
	var logLevel string

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:           "tuner",
		Short:         "Track a multi-string instrument tuning from recorded audio",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, ok := logging.ParseLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level %q", logLevel)
			}
			zl, err := zerolog.ParseLevel(level.String())
			if err != nil {
				return err
			}
			log = log.Level(zl)

			logger := logging.NewZerologLogger(log)
			logger.SetLevel(level)
			logging.SetGlobalLogger(logger)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.sonido-tuner/config.toml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newListenCommand(&cfgPath, &log))
	root.AddCommand(newTuningsCommand(&cfgPath))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("tuner")
		os.Exit(1)
	}
}

func newListenCommand(cfgPath *string, log *zerolog.Logger) *cobra.Command {
	opts := listenOptions{
		selectString: tuning.NoString,
		searchWindow: tuning.DefaultSearchWindowCents,
		session:      config.DefaultSessionConfig(),
		decoder:      transcode.DefaultDecoderConfig(),
	}

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run a tuning session over an audio file",
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			return runListen(cmd.Context(), *cfgPath, changed, opts, *log)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "audio file to analyse (any format ffmpeg reads)")
	cmd.Flags().StringVar(&opts.tuningName, "tuning", "", "tuning name (default: config default_tuning, then Standard)")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "reload tolerance, sensitivity and tunings when the config file changes")
	cmd.Flags().IntVar(&opts.session.ToleranceCents, "tolerance", opts.session.ToleranceCents, "in-tune tolerance in cents (0-8)")
	cmd.Flags().Float64Var(&opts.session.Sensitivity, "sensitivity", opts.session.Sensitivity, "microphone sensitivity (0.001-0.1)")
	cmd.Flags().IntVar(&opts.selectString, "select", opts.selectString, "also report every pitch against this string index")
	cmd.Flags().IntVar(&opts.searchWindow, "search-window", opts.searchWindow, "cents within which a pitch is attributed to a string")
	cmd.Flags().BoolVar(&opts.releaseOnDetune, "release-on-detune", false, "drop a string from the tuned set when it goes out of tune")
	cmd.Flags().IntVar(&opts.decoder.FrameSize, "frame-size", opts.decoder.FrameSize, "samples per analysis frame (power of two, 2048-16384)")
	cmd.Flags().IntVar(&opts.decoder.TargetSampleRate, "sample-rate", opts.decoder.TargetSampleRate, "decode sample rate in Hz")
	cmd.Flags().StringVar(&opts.decoder.FFmpegPath, "ffmpeg", opts.decoder.FFmpegPath, "path to ffmpeg")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		log.Info().Err(err).Msg("failed to mark file flag required")
	}

	return cmd
}

func newTuningsCommand(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tunings",
		Short: "List the available tunings",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, _, err := loadConfigFile(*cfgPath)
			if err != nil {
				return err
			}
			catalog := tuning.NewCatalog()
			if err := catalog.AddEntries(fc.Tunings); err != nil {
				return fmt.Errorf("config tunings: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, name := range catalog.Names() {
				def, err := catalog.Lookup(name)
				if err != nil {
					return err
				}
				strs := make([]string, len(def.Strings))
				for i, s := range def.Strings {
					strs[i] = fmt.Sprintf("%s %.2f", s.Note, s.Frequency)
				}
				fmt.Fprintf(out, "%-12s %s\n", def.Name, strings.Join(strs, ", "))
			}
			return nil
		},
	}
}

// loadConfigFile reads the config file if there is one. The returned path is
// empty when no file was found.
func loadConfigFile(cfgPath string) (config.FileConfig, string, error) {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = config.DefaultConfigPath()
	}
	if cfgFile == "" || !config.FileExists(cfgFile) {
		if cfgPath != "" {
			return config.FileConfig{}, "", fmt.Errorf("config file %s not found", cfgPath)
		}
		return config.FileConfig{}, "", nil
	}

	fc, err := config.LoadFileConfig(cfgFile)
	if err != nil {
		return config.FileConfig{}, "", fmt.Errorf("load config: %w", err)
	}
	return fc, cfgFile, nil
}

// resolveTuning picks the tuning named by --tuning, then the file's
// default_tuning, then Standard, from the presets plus the file's tunings.
func resolveTuning(fc config.FileConfig, pinned string) (tuning.Definition, error) {
	catalog := tuning.NewCatalog()
	if err := catalog.AddEntries(fc.Tunings); err != nil {
		return tuning.Definition{}, fmt.Errorf("config tunings: %w", err)
	}
	name := pinned
	if name == "" {
		name = fc.DefaultTuning
	}
	if name == "" {
		name = tuning.DefaultTuningName
	}
	return catalog.Lookup(name)
}

// retune applies a reloaded config file to a running session. The session
// is only reset when the resolved tuning differs from the active one; the
// string selection is restored when the new tuning still has that string.
func retune(session *tuning.Session, fc config.FileConfig, pinned string, selected int) (bool, error) {
	def, err := resolveTuning(fc, pinned)
	if err != nil {
		return false, err
	}
	current := session.Tuning()
	if current.Name == def.Name && slices.Equal(current.Strings, def.Strings) {
		return false, nil
	}
	if err := session.SetTuning(def); err != nil {
		return false, err
	}
	if selected != tuning.NoString && selected < def.NumStrings() {
		if err := session.SelectString(selected); err != nil {
			return true, err
		}
	}
	return true, nil
}

func runListen(ctx context.Context, cfgPath string, changed map[string]bool, opts listenOptions, log zerolog.Logger) error {
	fc, cfgFile, err := loadConfigFile(cfgPath)
	if err != nil {
		return err
	}

	sessionCfg := opts.session
	config.ApplyFileConfig(&sessionCfg, fc, changed)
	if err := sessionCfg.Validate(); err != nil {
		return err
	}

	def, err := resolveTuning(fc, opts.tuningName)
	if err != nil {
		return err
	}

	session := tuning.NewSession(
		tuning.WithSearchWindow(opts.searchWindow),
		tuning.WithReleaseOnDetune(opts.releaseOnDetune),
	)
	if err := session.Start(def, sessionCfg); err != nil {
		return err
	}
	defer session.Stop()

	if opts.selectString != tuning.NoString {
		if err := session.SelectString(opts.selectString); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cfgSrc config.Source = config.Static(sessionCfg)
	if opts.watch {
		if cfgFile == "" {
			return fmt.Errorf("--watch needs a config file")
		}
		watcher := config.NewWatcher(cfgFile,
			config.WithOverrides(sessionCfg, changed),
			config.WithReloadHook(func(fc config.FileConfig) {
				switched, err := retune(session, fc, opts.tuningName, opts.selectString)
				if err != nil {
					log.Warn().Err(err).Msg("reloaded tuning rejected, keeping the current one")
					return
				}
				if switched {
					log.Info().Str("tuning", session.Tuning().Name).Msg("tuning changed, progress cleared")
				}
			}),
		)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error().Err(err).Msg("config watcher stopped")
			}
		}()
		cfgSrc = watcher
	}

	decoder := transcode.NewDecoder(opts.decoder)
	if err := decoder.CheckAvailability(ctx); err != nil {
		return err
	}
	stream, err := decoder.OpenFile(ctx, opts.file)
	if err != nil {
		return err
	}
	defer stream.Close()

	log.Info().
		Str("file", opts.file).
		Str("tuning", def.Name).
		Int("tolerance_cents", sessionCfg.ToleranceCents).
		Float64("sensitivity", sessionCfg.Sensitivity).
		Msg("listening")

	tuner := tuning.NewTuner(tonal.NewPitchDetector(), session)
	frame := 0
	err = tuner.Run(ctx, stream, cfgSrc, func(out tuning.Output) {
		reportFrame(log, frame, out)
		frame++
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	final := session.Tuning()
	var missing []string
	for i, ok := range session.TunedStrings() {
		if !ok && i < final.NumStrings() {
			missing = append(missing, fmt.Sprintf("%d:%s", i, final.Strings[i].Note))
		}
	}
	event := log.Info().Int("frames", frame).Str("tuning", final.Name).Str("state", session.State().String())
	if len(missing) > 0 {
		event = event.Strs("untuned", missing)
	}
	event.Msg("session finished")
	return nil
}

// reportFrame logs one session output. Names come from the output itself
// because a watched config can switch the tuning mid-stream.
func reportFrame(log zerolog.Logger, frame int, out tuning.Output) {
	if out.Status != nil {
		log.Debug().
			Int("frame", frame).
			Float64("hz", out.Estimate.Frequency).
			Str("note", out.Status.Note).
			Str("string", fmt.Sprintf("%d:%s", out.DetectedString, out.Status.TargetNote)).
			Int("cents", out.Status.Cents).
			Bool("in_tune", out.Status.IsInTune).
			Msg("pitch")
	}
	if out.SelectedStatus != nil {
		log.Debug().
			Int("frame", frame).
			Str("target", out.SelectedStatus.TargetNote).
			Int("cents", out.SelectedStatus.Cents).
			Msg("selected string")
	}
	if out.JustInTune && out.Status != nil {
		log.Info().
			Int("frame", frame).
			Str("string", fmt.Sprintf("%d:%s", out.DetectedString, out.Status.TargetNote)).
			Float64("hz", out.Estimate.Frequency).
			Msg("in tune")
	}
	if out.SessionComplete {
		log.Info().Int("frame", frame).Msg("all strings tuned")
	}
}
