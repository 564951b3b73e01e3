package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/cli"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/coordinator"
	"github.com/rbright/hark/internal/doctor"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/logging"
	"github.com/rbright/hark/internal/metrics"
	"github.com/rbright/hark/internal/output"
	"github.com/rbright/hark/internal/recognizer/console"
	"github.com/rbright/hark/internal/version"
)

const (
	binaryName = "hark"

	forwardTimeout = 500 * time.Millisecond
	probeTimeout   = 180 * time.Millisecond
	acquireRetries = 8

	sessionPollInterval = 20 * time.Millisecond
)

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// ListDevices overrides PulseAudio discovery for devices and doctor.
	ListDevices audio.Lister
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	applyOverrides(&cfgLoaded.Config, parsed)

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	if parsed.Command.Remote() {
		return r.commandRemote(ctx, parsed.Command)
	}

	switch parsed.Command {
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	case cli.CommandDoctor:
		provider := console.New()
		defer provider.Close()
		report := doctor.Run(ctx, cfgLoaded, doctor.Deps{Provider: provider, ListDevices: r.ListDevices})
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// applyOverrides lets command-line phrases win over file and environment values.
func applyOverrides(cfg *config.Config, parsed cli.Parsed) {
	if parsed.ActivationPhrase != nil {
		cfg.Wake.ActivationPhrase = *parsed.ActivationPhrase
	}
	if parsed.StopPhrase != nil {
		cfg.Wake.StopPhrase = *parsed.StopPhrase
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	list := r.ListDevices
	if list == nil {
		list = audio.ListDevices
	}

	devices, err := list(ctx)
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
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandRemote(ctx context.Context, command cli.Command) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, err := ipc.Forward(ctx, socketPath, string(command), forwardTimeout)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if command == cli.CommandTranscript {
		if resp.Transcript != "" {
			fmt.Fprintln(r.Stdout, resp.Transcript)
		}
		return 0
	}
	fmt.Fprintln(r.Stdout, formatStatus(resp))
	if resp.LastError != "" {
		fmt.Fprintf(r.Stdout, "error: %s\n", resp.LastError)
	}
	return 0
}

func coordinatorOptions(cfg config.Config) coordinator.Options {
	return coordinator.Options{
		ActivationPhrase:    cfg.Wake.ActivationPhrase,
		StopPhrase:          cfg.Wake.StopPhrase,
		Language:            cfg.Recognition.Language,
		HandoffDelay:        cfg.Timing.HandoffDelay(),
		RestartDelay:        cfg.Timing.BurstRestartDelay(),
		FlushInterimOnEnd:   cfg.Recognition.FlushInterimOnEnd,
		ErrorOverridesPhase: cfg.Status.ErrorOverridesPhase,
	}
}

// commandRun drives a coordinator from stdin until EOF or cancellation, then prints
// the merged transcript.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	var control net.Listener
	if socketPath, err := ipc.RuntimeSocketPath(); err != nil {
		logger.Warn("control socket disabled", "error", err.Error())
	} else {
		control, err = ipc.Acquire(ctx, socketPath, probeTimeout, acquireRetries)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() {
			_ = control.Close()
			_ = os.Remove(socketPath)
		}()
	}

	provider := console.New()
	defer provider.Close()

	registry := prometheus.NewRegistry()
	presenter := indicator.NewConsole(r.Stdout)
	committer := output.NewCommitter(cfg.Output.Command, cfg.Output.Timeout(), logger)
	coord := coordinator.New(provider, coordinatorOptions(cfg), coordinator.Observers(
		presenter,
		coordinator.NewLogObserver(logger),
		metrics.New(registry),
		committer,
	))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return coord.Run(gctx)
	})
	if listen := strings.TrimSpace(cfg.Metrics.Listen); listen != "" {
		server := metrics.NewServer(listen, registry, logger)
		g.Go(func() error {
			if err := server.Serve(gctx); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	if committer.Enabled() {
		g.Go(func() error {
			return committer.Run(gctx)
		})
	}
	if control != nil {
		g.Go(func() error {
			return ipc.Serve(gctx, control, controlHandler(coord))
		})
	}
	g.Go(func() error {
		defer cancel()
		return r.driveInput(gctx, input{
			coord:     coord,
			provider:  provider,
			presenter: presenter,
			logger:    logger,
			settle:    cfg.Timing.HandoffDelay() + cfg.Timing.BurstRestartDelay() + time.Second,
		})
	})

	err := g.Wait()
	committer.Drain(context.WithoutCancel(ctx))

	logger.Info("run complete", "segments", coord.MergedCount())
	if text := coord.MergedText(); text != "" {
		fmt.Fprintln(r.Stdout, text)
	}

	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// input routes stdin lines to the coordinator and the console backend.
type input struct {
	coord     *coordinator.Coordinator
	provider  *console.Provider
	presenter *indicator.Console
	logger    *slog.Logger

	// settle bounds how long a line waits for a session to start listening.
	settle time.Duration
}

// driveInput starts listening, then routes each stdin line to the coordinator or the
// console backend. EOF stops the coordinator.
func (r Runner) driveInput(ctx context.Context, in input) error {
	if err := in.coord.Start(ctx); err != nil {
		if errors.Is(err, coordinator.ErrClosed) || ctx.Err() != nil {
			return nil
		}
		in.presenter.Printf("! start: %v\n", err)
	}

	lines := readLines(ctx, r.Stdin, in.logger)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := in.coord.Stop(ctx); err != nil && !errors.Is(err, coordinator.ErrClosed) && ctx.Err() == nil {
					in.logger.Warn("stop at end of input failed", "error", err.Error())
				}
				return nil
			}
			if err := in.handleLine(ctx, line); err != nil {
				if errors.Is(err, coordinator.ErrClosed) || ctx.Err() != nil {
					return nil
				}
				in.presenter.Printf("! %v\n", err)
			}
		}
	}
}

func (in input) handleLine(ctx context.Context, line string) error {
	trimmed := strings.TrimSpace(line)
	switch trimmed {
	case "":
		return nil
	case "/start":
		return in.coord.Start(ctx)
	case "/stop":
		return in.coord.Stop(ctx)
	case "/reset":
		return in.coord.Reset(ctx)
	case "/status":
		state := snapshot(in.coord)
		in.presenter.Printf("status: %s\n", formatStatus(state))
		if state.LastError != "" {
			in.presenter.Printf("error: %s\n", state.LastError)
		}
		return nil
	}

	if strings.HasPrefix(trimmed, "/") {
		return fmt.Errorf("unknown command %s", trimmed)
	}
	return in.feed(ctx, trimmed)
}

// feed hands text to the console backend once the coordinator has handled earlier
// input and a session is listening.
func (in input) feed(ctx context.Context, text string) error {
	if err := in.coord.Settle(ctx); err != nil {
		return err
	}
	if err := in.awaitSession(ctx); err != nil {
		return err
	}
	if in.provider.Feed(text) == 0 {
		in.logger.Warn("input dropped, no recognition session accepted it", "text", text)
	}
	return nil
}

// awaitSession blocks until the backend has a running session, the coordinator is
// idle, or the settle window passes.
func (in input) awaitSession(ctx context.Context) error {
	deadline := time.NewTimer(in.settle)
	defer deadline.Stop()
	ticker := time.NewTicker(sessionPollInterval)
	defer ticker.Stop()

	for {
		if in.coord.Phase() == fsm.PhaseIdle {
			return nil
		}
		select {
		case <-in.provider.Ready():
			return nil
		case <-deadline.C:
			return nil
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// controlHandler serves remote commands against coord and answers with the
// resulting state.
func controlHandler(coord *coordinator.Coordinator) ipc.Handler {
	return ipc.HandlerFunc(func(ctx context.Context, req ipc.Request) ipc.Response {
		var err error
		switch req.Command {
		case ipc.CommandStatus, ipc.CommandTranscript:
		case ipc.CommandStart:
			err = coord.Start(ctx)
		case ipc.CommandStop:
			err = coord.Stop(ctx)
		case ipc.CommandReset:
			err = coord.Reset(ctx)
		default:
			return ipc.Response{Error: fmt.Sprintf("unknown command %q", req.Command)}
		}
		if err != nil {
			return ipc.Response{Error: err.Error()}
		}

		resp := snapshot(coord)
		if req.Command == ipc.CommandTranscript {
			resp.Transcript = coord.MergedText()
		}
		return resp
	})
}

func snapshot(coord *coordinator.Coordinator) ipc.Response {
	activation, transcription := coord.Listening()
	return ipc.Response{
		OK:            true,
		Status:        string(coord.Status()),
		Activation:    activation,
		Transcription: transcription,
		LastError:     coord.Error(),
	}
}

func formatStatus(resp ipc.Response) string {
	return fmt.Sprintf("%s (activation=%t transcription=%t)", resp.Status, resp.Activation, resp.Transcription)
}

// readLines streams r line by line. The channel closes at EOF, on a read error, or
// once ctx is done.
func readLines(ctx context.Context, r io.Reader, logger *slog.Logger) <-chan string {
	lines := make(chan string)
	if r == nil {
		close(lines)
		return lines
	}

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Error("read input failed", "error", err.Error())
		}
	}()
	return lines
}

