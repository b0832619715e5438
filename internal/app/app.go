package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Ayoola1o/lara/internal/audio"
	"github.com/Ayoola1o/lara/internal/cli"
	"github.com/Ayoola1o/lara/internal/config"
	"github.com/Ayoola1o/lara/internal/console"
	"github.com/Ayoola1o/lara/internal/doctor"
	"github.com/Ayoola1o/lara/internal/indicator"
	"github.com/Ayoola1o/lara/internal/inference"
	"github.com/Ayoola1o/lara/internal/ipc"
	"github.com/Ayoola1o/lara/internal/logging"
	"github.com/Ayoola1o/lara/internal/metrics"
	"github.com/Ayoola1o/lara/internal/output"
	"github.com/Ayoola1o/lara/internal/pipeline"
	"github.com/Ayoola1o/lara/internal/speech"
	"github.com/Ayoola1o/lara/internal/turn"
	"github.com/Ayoola1o/lara/internal/version"
)

const (
	forwardTimeout    = 220 * time.Millisecond
	acquireCheck      = 180 * time.Millisecond
	acquireRetries    = 8
	observerQueueSize = 32
	defaultBinaryName = "lara"
	noSessionHint     = "no active lara session (run \"lara talk\" first)"
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(defaultBinaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(defaultBinaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New(parsed.Debug)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandStart, cli.CommandStop, cli.CommandReset, cli.CommandToggle:
		return r.forwardOrFail(ctx, string(parsed.Command))
	case cli.CommandTalk:
		return r.commandTalk(ctx, cfgLoaded, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		)
	}

	return 0
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if !handled {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if resp.State == "" {
		resp.State = "idle"
	}
	fmt.Fprintln(r.Stdout, resp.State)
	if resp.Status != "" {
		fmt.Fprintf(r.Stdout, "status: %s\n", resp.Status)
	}
	if resp.User != "" {
		fmt.Fprintf(r.Stdout, "you: %s\n", resp.User)
	}
	if resp.Assistant != "" {
		fmt.Fprintf(r.Stdout, "lara: %s\n", resp.Assistant)
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: %s\n", noSessionHint)
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandTalk owns the control socket and runs one interactive session until
// the console quits or ctx is cancelled.
func (r Runner) commandTalk(ctx context.Context, loaded config.Loaded, logger *slog.Logger) int {
	cfg := loaded.Config

	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	listener, err := ipc.Acquire(ctx, socketPath, acquireCheck, acquireRetries)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	m := metrics.New()
	components, err := pipeline.Build(cfg, pipeline.Deps{Logger: logger, Meter: m})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = components.Close() }()

	talkCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	screen := console.New(r.Stdout, components.Analyzer)
	observers := []turn.Observer{
		screen,
		turn.Async(talkCtx, logger, indicator.New(cfg.Indicator, speech.PulsePlayer(audio.NewPlayer("lara cues")), logger), observerQueueSize),
	}
	if cfg.Output.CopyReply {
		observers = append(observers, turn.Async(talkCtx, logger, output.NewReplyCopier(cfg.Clipboard, logger), observerQueueSize))
	}

	controller := turn.NewController(components.Options(logger, m, observers...))

	runDone := make(chan error, 1)
	go func() { runDone <- controller.Run(talkCtx) }()

	serveDone := make(chan error, 1)
	go func() { serveDone <- ipc.Serve(talkCtx, listener, controller) }()

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		if !loaded.Exists {
			return
		}
		err := config.Watch(talkCtx, loaded.Path, logger, func(next config.Loaded) {
			components.Inference.Update(inference.FromConfig(next.Config.Inference))
		})
		if err != nil {
			logger.Warn("config watch unavailable", "error", err.Error())
		}
	}()

	consoleErr := screen.Run(talkCtx, r.Stdin, controller)

	cancel()
	runErr := <-runDone
	serveErr := <-serveDone
	<-watchDone

	if path := strings.TrimSpace(cfg.Metrics.Textfile); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			logger.Warn("metrics export failed", "path", path, "error", err.Error())
		}
	}

	if err := errors.Join(consoleErr, runErr, serveErr); err != nil && !errors.Is(err, turn.ErrStopped) {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("talk session failed", "error", err.Error())
		return 1
	}
	logger.Info("talk session finished")
	return 0
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if ipc.Unavailable(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}
