package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileName is the optional dotenv file read from the config file's directory.
const EnvFileName = "hark.env"

type lookupFunc func(string) (string, bool)

// ApplyEnv overlays HARK_* environment variables onto cfg.
func ApplyEnv(cfg *Config) {
	applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *Config, lookup lookupFunc) {
	overrideString(lookup, &cfg.Wake.ActivationPhrase, "HARK_WAKE_ACTIVATION_PHRASE")
	overrideString(lookup, &cfg.Wake.StopPhrase, "HARK_WAKE_STOP_PHRASE")
	overrideString(lookup, &cfg.Recognition.Language, "HARK_RECOGNITION_LANGUAGE")
	overrideBool(lookup, &cfg.Recognition.FlushInterimOnEnd, "HARK_RECOGNITION_FLUSH_INTERIM_ON_END")
	overrideInt(lookup, &cfg.Timing.HandoffDelayMS, "HARK_TIMING_HANDOFF_DELAY_MS")
	overrideInt(lookup, &cfg.Timing.BurstRestartDelayMS, "HARK_TIMING_BURST_RESTART_DELAY_MS")
	overrideBool(lookup, &cfg.Status.ErrorOverridesPhase, "HARK_STATUS_ERROR_OVERRIDES_PHASE")
	overrideString(lookup, &cfg.Audio.Input, "HARK_AUDIO_INPUT")
	overrideInt(lookup, &cfg.Output.TimeoutMS, "HARK_OUTPUT_TIMEOUT_MS")
	overrideString(lookup, &cfg.Metrics.Listen, "HARK_METRICS_LISTEN")
	overrideString(lookup, &cfg.Log.Level, "HARK_LOG_LEVEL")
}

// readEnvFile parses a dotenv file without touching the process environment.
// A missing file yields no values.
func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file %q: %w", path, err)
	}
	return values, nil
}

// layeredLookup prefers the process environment over file values.
func layeredLookup(file map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if value, ok := os.LookupEnv(key); ok {
			return value, true
		}
		value, ok := file[key]
		return value, ok
	}
}

func overrideString(lookup lookupFunc, target *string, envKey string) {
	if value, ok := lookup(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(lookup lookupFunc, target *int, envKey string) {
	if value, ok := lookup(envKey); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(lookup lookupFunc, target *bool, envKey string) {
	if value, ok := lookup(envKey); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}
