package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.yaml"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "hark", "config.yaml"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "hark", "config.yaml"), resolved)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingYAMLParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
wake:
  activation_phrase: "ok hark"
  stop_phrase: "that's all"
recognition:
  language: de-DE
  flush_interim_on_end: true
timing:
  handoff_delay_ms: 250
status:
  error_overrides_phase: true
output:
  command: ["wl-copy", "--trim-newline"]
metrics:
  listen: "127.0.0.1:9464"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Empty(t, loaded.Warnings)

	cfg := loaded.Config
	require.Equal(t, "ok hark", cfg.Wake.ActivationPhrase)
	require.Equal(t, "that's all", cfg.Wake.StopPhrase)
	require.Equal(t, "de-DE", cfg.Recognition.Language)
	require.True(t, cfg.Recognition.FlushInterimOnEnd)
	require.Equal(t, 250*time.Millisecond, cfg.Timing.HandoffDelay())
	require.Equal(t, time.Second, cfg.Timing.BurstRestartDelay())
	require.True(t, cfg.Status.ErrorOverridesPhase)
	require.Equal(t, []string{"wl-copy", "--trim-newline"}, cfg.Output.Command)
	require.Equal(t, 2*time.Second, cfg.Output.Timeout())
	require.Equal(t, "127.0.0.1:9464", cfg.Metrics.Listen)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wake:\n  activation_phrase: from file\n"), 0o600))

	t.Setenv("HARK_WAKE_ACTIVATION_PHRASE", "from env")
	t.Setenv("HARK_TIMING_BURST_RESTART_DELAY_MS", "2500")
	t.Setenv("HARK_STATUS_ERROR_OVERRIDES_PHASE", "true")
	t.Setenv("HARK_LOG_LEVEL", "debug")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from env", loaded.Config.Wake.ActivationPhrase)
	require.Equal(t, 2500, loaded.Config.Timing.BurstRestartDelayMS)
	require.True(t, loaded.Config.Status.ErrorOverridesPhase)
	require.Equal(t, "debug", loaded.Config.Log.Level)
}

func TestLoadReadsEnvFileBesideConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wake:\n  stop_phrase: from file\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFileName), []byte(
		"HARK_WAKE_STOP_PHRASE=from env file\nHARK_RECOGNITION_LANGUAGE=it-IT\n",
	), 0o600))
	t.Setenv("HARK_RECOGNITION_LANGUAGE", "pt-BR")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, EnvFileName), loaded.EnvFile)
	require.Equal(t, "from env file", loaded.Config.Wake.StopPhrase)
	require.Equal(t, "pt-BR", loaded.Config.Recognition.Language)
}

func TestLoadWithoutEnvFile(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Empty(t, loaded.EnvFile)
}

func TestLoadEnvOverridesDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HARK_RECOGNITION_LANGUAGE", "fr-FR")

	loaded, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, "fr-FR", loaded.Config.Recognition.Language)
}

func TestLoadRejectsInvalidEnvOverride(t *testing.T) {
	t.Setenv("HARK_TIMING_HANDOFF_DELAY_MS", "-5")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "timing.handoff_delay_ms")
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wake: [not, a, mapping"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wake:\n  activation_phrse: typo\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "activation_phrse")
}

func TestParseEmptyContentKeepsBase(t *testing.T) {
	cfg, warnings, err := Parse("", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "empty")
}

func TestApplyEnvIgnoresBlankAndMalformedValues(t *testing.T) {
	t.Setenv("HARK_WAKE_ACTIVATION_PHRASE", "   ")
	t.Setenv("HARK_TIMING_HANDOFF_DELAY_MS", "soon")
	t.Setenv("HARK_RECOGNITION_FLUSH_INTERIM_ON_END", "yes please")
	t.Setenv("HARK_AUDIO_INPUT", "usb")

	cfg := Default()
	ApplyEnv(&cfg)
	require.Equal(t, "hey computer", cfg.Wake.ActivationPhrase)
	require.Equal(t, 500, cfg.Timing.HandoffDelayMS)
	require.False(t, cfg.Recognition.FlushInterimOnEnd)
	require.Equal(t, "usb", cfg.Audio.Input)
}
