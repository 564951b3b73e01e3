// Package config resolves, parses, validates, and defaults hark configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by hark.
type Config struct {
	Wake        WakeConfig        `yaml:"wake"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Timing      TimingConfig      `yaml:"timing"`
	Status      StatusConfig      `yaml:"status"`
	Audio       AudioConfig       `yaml:"audio"`
	Output      OutputConfig      `yaml:"output"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Log         LogConfig         `yaml:"log"`
}

// WakeConfig holds the phrases that switch between listening and transcribing.
type WakeConfig struct {
	ActivationPhrase string `yaml:"activation_phrase"`
	StopPhrase       string `yaml:"stop_phrase"`
}

// RecognitionConfig controls options passed to the recognition backend.
type RecognitionConfig struct {
	Language          string `yaml:"language"`
	FlushInterimOnEnd bool   `yaml:"flush_interim_on_end"`
}

// TimingConfig controls the settling delays between recognition sessions.
type TimingConfig struct {
	HandoffDelayMS      int `yaml:"handoff_delay_ms"`
	BurstRestartDelayMS int `yaml:"burst_restart_delay_ms"`
}

// HandoffDelay returns the handoff delay as a duration.
func (t TimingConfig) HandoffDelay() time.Duration {
	return time.Duration(t.HandoffDelayMS) * time.Millisecond
}

// BurstRestartDelay returns the restart delay as a duration.
func (t TimingConfig) BurstRestartDelay() time.Duration {
	return time.Duration(t.BurstRestartDelayMS) * time.Millisecond
}

// StatusConfig controls how errors surface in the reported status.
type StatusConfig struct {
	ErrorOverridesPhase bool `yaml:"error_overrides_phase"`
}

// AudioConfig names the preferred capture device checked by doctor.
type AudioConfig struct {
	Input string `yaml:"input"`
}

// OutputConfig names the command that receives each finished transcription burst
// on stdin. An empty Command disables it.
type OutputConfig struct {
	Command []string `yaml:"command"`

	// TimeoutMS bounds a single command run.
	TimeoutMS int `yaml:"timeout_ms"`
}

// Timeout returns the command timeout as a duration.
func (o OutputConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutMS) * time.Millisecond
}

// MetricsConfig controls the optional Prometheus listener.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig controls runtime log verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
