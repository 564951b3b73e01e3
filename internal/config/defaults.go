package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Wake: WakeConfig{
			ActivationPhrase: "hey computer",
			StopPhrase:       "stop listening",
		},
		Recognition: RecognitionConfig{
			Language:          "en-US",
			FlushInterimOnEnd: false,
		},
		Timing: TimingConfig{
			HandoffDelayMS:      500,
			BurstRestartDelayMS: 1000,
		},
		Audio:  AudioConfig{Input: "default"},
		Output: OutputConfig{TimeoutMS: 2000},
		Log:    LogConfig{Level: "info"},
	}
}
