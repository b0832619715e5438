package pipeline

import (
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/Ayoola1o/lara/internal/audio"
	"github.com/Ayoola1o/lara/internal/config"
	"github.com/Ayoola1o/lara/internal/inference"
	"github.com/Ayoola1o/lara/internal/recognizer"
	"github.com/Ayoola1o/lara/internal/speech"
	"github.com/Ayoola1o/lara/internal/turn"
	"github.com/Ayoola1o/lara/internal/visualizer"
)

const spectrumBands = 24

// Deps are the process-level pieces Build does not own.
type Deps struct {
	Logger *slog.Logger
	Meter  Meter
	// Fs and DebugDir back debug artifacts. Fs defaults to the OS filesystem.
	Fs       afero.Fs
	DebugDir string
}

// Components are the turn collaborators built from one config.
// Recognizer and Synthesizer are nil when unavailable; the controller then
// reports the matching unsupported error.
type Components struct {
	Capture     *Microphone
	Recognizer  turn.Recognizer
	Inference   *inference.Client
	Synthesizer turn.Synthesizer
	Player      *audio.Player
	Analyzer    *visualizer.Analyzer
	Artifacts   *Artifacts

	closers []io.Closer
}

// Build assembles every collaborator. Backend misconfiguration is logged and
// left for the controller to surface per turn; only debug setup can fail.
func Build(cfg config.Config, deps Deps) (*Components, error) {
	logger := deps.Logger
	c := &Components{
		Player:   audio.NewPlayer("lara speech"),
		Analyzer: visualizer.New(spectrumBands),
	}

	if cfg.Debug.EnableAudioDump || cfg.Debug.EnableResponseDump {
		fs := deps.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		dir := deps.DebugDir
		if dir == "" {
			resolved, err := DefaultDebugDir()
			if err != nil {
				return nil, err
			}
			dir = resolved
		}
		c.Artifacts = NewArtifacts(fs, dir)
	}

	micOpts := MicrophoneOptions{Logger: logger, Taps: []Tap{c.Analyzer}, Meter: deps.Meter}
	if cfg.Debug.EnableAudioDump {
		micOpts.Debug = c.Artifacts
	}
	c.Capture = NewMicrophone(cfg.Audio, micOpts)

	recognizerDump, err := c.dumpFile(cfg.Debug.EnableResponseDump, "recognizer")
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	rec, err := recognizer.New(cfg, logger, recognizerDump)
	if err != nil {
		logWarn(logger, "speech recognition unavailable", err)
	} else {
		c.Recognizer = WrapRecognizer(rec, deps.Meter)
	}

	inferenceDump, err := c.dumpFile(cfg.Debug.EnableResponseDump, "inference")
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Inference = inference.New(inference.FromConfig(cfg.Inference), logger, inferenceDump)

	c.Synthesizer = BuildSynthesizer(cfg.Synthesis, c.Player, logger)
	return c, nil
}

// BuildSynthesizer returns speech.Silent when spoken replies are disabled and
// nil when no API key is available.
func BuildSynthesizer(cfg config.SynthesisConfig, player *audio.Player, logger *slog.Logger) turn.Synthesizer {
	if !cfg.Enable {
		return speech.Silent{}
	}
	speechCfg := speech.FromConfig(cfg)
	if speechCfg.APIKey == "" {
		logWarn(logger, "speech synthesis unavailable", errors.New("no api key (set "+cfg.ResolvedAPIKeyEnv()+")"))
		return nil
	}
	return speech.New(speechCfg, speech.PulsePlayer(player), logger)
}

// Options maps the components onto controller options.
func (c *Components) Options(logger *slog.Logger, recorder turn.Recorder, observers ...turn.Observer) turn.Options {
	return turn.Options{
		Logger:      logger,
		Capture:     c.Capture,
		Recognizer:  c.Recognizer,
		Inference:   c.Inference,
		Synthesizer: c.Synthesizer,
		Observers:   observers,
		Metrics:     recorder,
	}
}

// Close releases debug sinks.
func (c *Components) Close() error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Components) dumpFile(enabled bool, prefix string) (io.Writer, error) {
	if !enabled || c.Artifacts == nil {
		return nil, nil
	}
	file, _, err := c.Artifacts.Create(prefix, "jsonl")
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, file)
	return file, nil
}

func logWarn(logger *slog.Logger, msg string, err error) {
	if logger == nil {
		return
	}
	logger.Warn(msg, "error", err.Error())
}
