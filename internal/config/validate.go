package config

import (
	"fmt"
	"net"
	"strings"
)

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Recognition.Language) == "" {
		return nil, fmt.Errorf("recognition.language must not be empty")
	}
	if cfg.Timing.HandoffDelayMS < 0 {
		return nil, fmt.Errorf("timing.handoff_delay_ms must be >= 0")
	}
	if cfg.Timing.BurstRestartDelayMS < 0 {
		return nil, fmt.Errorf("timing.burst_restart_delay_ms must be >= 0")
	}
	if cfg.Output.TimeoutMS <= 0 {
		return nil, fmt.Errorf("output.timeout_ms must be > 0")
	}
	if len(cfg.Output.Command) > 0 && strings.TrimSpace(cfg.Output.Command[0]) == "" {
		return nil, fmt.Errorf("output.command must start with a program name")
	}
	if _, ok := logLevels[strings.ToLower(strings.TrimSpace(cfg.Log.Level))]; !ok {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if listen := strings.TrimSpace(cfg.Metrics.Listen); listen != "" {
		if _, _, err := net.SplitHostPort(listen); err != nil {
			return nil, fmt.Errorf("metrics.listen must be host:port: %w", err)
		}
	}

	activation := strings.ToLower(strings.TrimSpace(cfg.Wake.ActivationPhrase))
	stop := strings.ToLower(strings.TrimSpace(cfg.Wake.StopPhrase))
	if activation == "" {
		warnings = append(warnings, Warning{Message: "wake.activation_phrase is empty; any recognized speech starts transcription"})
	}
	if stop == "" {
		warnings = append(warnings, Warning{Message: "wake.stop_phrase is empty; transcription stops after the first segment"})
	}
	if activation != "" && stop != "" && (strings.Contains(activation, stop) || strings.Contains(stop, activation)) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("wake phrases %q and %q overlap", cfg.Wake.ActivationPhrase, cfg.Wake.StopPhrase)})
	}
	if cfg.Timing.HandoffDelayMS == 0 {
		warnings = append(warnings, Warning{Message: "timing.handoff_delay_ms is 0; sessions may contend for the input device"})
	}

	return warnings, nil
}
