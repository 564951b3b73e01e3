// Package doctor runs runtime readiness diagnostics for config, recognition, and audio.
package doctor

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/recognizer"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Deps are the live collaborators probed by Run. Nil fields fall back to the
// unsupported recognizer and the PulseAudio device lister.
type Deps struct {
	Provider    recognizer.Provider
	ListDevices audio.Lister
}

// Run executes config/recognition/audio checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, deps Deps) Report {
	if deps.Provider == nil {
		deps.Provider = recognizer.Unsupported{}
	}
	if deps.ListDevices == nil {
		deps.ListDevices = audio.ListDevices
	}

	cfg := loaded.Config
	checks := []Check{
		checkConfig(loaded),
		checkPhrases(cfg.Wake),
		{Name: "recognition.language", Pass: true, Message: cfg.Recognition.Language},
		checkRecognizer(deps.Provider),
		checkAudio(ctx, deps.ListDevices, cfg.Audio.Input),
	}
	if len(cfg.Output.Command) > 0 {
		checks = append(checks, checkOutput(cfg.Output.Command))
	}
	if strings.TrimSpace(cfg.Metrics.Listen) != "" {
		checks = append(checks, checkListen(cfg.Metrics.Listen))
	}
	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("%q not found; using defaults", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 && loaded.Exists {
		message = fmt.Sprintf("%s (%d warning(s))", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkPhrases fails when either phrase is empty, since an empty phrase matches all speech.
func checkPhrases(wake config.WakeConfig) Check {
	activation := strings.TrimSpace(wake.ActivationPhrase)
	stop := strings.TrimSpace(wake.StopPhrase)
	switch {
	case activation == "":
		return Check{Name: "wake.phrases", Pass: false, Message: "activation phrase is empty"}
	case stop == "":
		return Check{Name: "wake.phrases", Pass: false, Message: "stop phrase is empty"}
	}
	return Check{
		Name:    "wake.phrases",
		Pass:    true,
		Message: fmt.Sprintf("wake on %q, stop on %q", activation, stop),
	}
}

func checkRecognizer(provider recognizer.Provider) Check {
	if !provider.Supported() {
		return Check{Name: "recognizer", Pass: false, Message: recognizer.ErrUnsupported.Error()}
	}
	return Check{Name: "recognizer", Pass: true, Message: "recognition backend available"}
}

func checkAudio(ctx context.Context, list audio.Lister, input string) Check {
	devices, err := list(ctx)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	dev, err := audio.Resolve(devices, input)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	return Check{Name: "audio.device", Pass: true, Message: fmt.Sprintf("selected %q", dev.ID)}
}

func checkOutput(argv []string) Check {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return Check{Name: "output.command", Pass: false, Message: err.Error()}
	}
	return Check{Name: "output.command", Pass: true, Message: path}
}

// checkListen verifies the metrics address can be bound right now.
func checkListen(addr string) Check {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return Check{Name: "metrics.listen", Pass: false, Message: err.Error()}
	}
	_ = ln.Close()
	return Check{Name: "metrics.listen", Pass: true, Message: fmt.Sprintf("%s is free", addr)}
}
