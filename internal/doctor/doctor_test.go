package doctor

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/recognizer/recognizertest"
	"github.com/stretchr/testify/require"
)

func devicesOK(context.Context) ([]audio.Device, error) {
	return []audio.Device{{ID: "mic-1", Description: "USB Mic", Available: true, Default: true}}, nil
}

func loadedDefaults() config.Loaded {
	return config.Loaded{Path: "/tmp/hark/config.yaml", Config: config.Default(), Exists: true}
}

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestRunAllChecksPass(t *testing.T) {
	report := Run(context.Background(), loadedDefaults(), Deps{
		Provider:    recognizertest.NewProvider(),
		ListDevices: devicesOK,
	})

	require.True(t, report.OK(), report.String())
	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.Equal(t, []string{"config", "wake.phrases", "recognition.language", "recognizer", "audio.device"}, names)
	require.Contains(t, report.String(), `selected "mic-1"`)
}

func TestRunDefaultsToUnsupportedRecognizer(t *testing.T) {
	report := Run(context.Background(), loadedDefaults(), Deps{ListDevices: devicesOK})

	require.False(t, report.OK())
	require.Contains(t, report.String(), "[FAIL] recognizer")
}

func TestRunReportsAudioFailures(t *testing.T) {
	report := Run(context.Background(), loadedDefaults(), Deps{
		Provider: recognizertest.NewProvider(),
		ListDevices: func(context.Context) ([]audio.Device, error) {
			return nil, errors.New("connect pulse server: refused")
		},
	})
	require.False(t, report.OK())
	require.Contains(t, report.String(), "[FAIL] audio.device: connect pulse server")

	loaded := loadedDefaults()
	loaded.Config.Audio.Input = "missing"
	report = Run(context.Background(), loaded, Deps{Provider: recognizertest.NewProvider(), ListDevices: devicesOK})
	require.Contains(t, report.String(), "did not match")
}

func TestCheckConfigMessages(t *testing.T) {
	missing := checkConfig(config.Loaded{Path: "/x.yaml"})
	require.True(t, missing.Pass)
	require.Contains(t, missing.Message, "using defaults")

	warned := checkConfig(config.Loaded{Path: "/x.yaml", Exists: true, Warnings: []config.Warning{{Message: "w"}}})
	require.Contains(t, warned.Message, "1 warning(s)")
}

func TestCheckPhrases(t *testing.T) {
	require.False(t, checkPhrases(config.WakeConfig{StopPhrase: "bye"}).Pass)
	require.False(t, checkPhrases(config.WakeConfig{ActivationPhrase: "hi"}).Pass)

	ok := checkPhrases(config.WakeConfig{ActivationPhrase: " hi ", StopPhrase: "bye"})
	require.True(t, ok.Pass)
	require.Equal(t, `wake on "hi", stop on "bye"`, ok.Message)
}

func TestCheckListen(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	busy := checkListen(addr)
	require.False(t, busy.Pass)

	require.NoError(t, ln.Close())
	free := checkListen(addr)
	require.True(t, free.Pass, free.Message)
}

func TestRunIncludesMetricsCheckWhenConfigured(t *testing.T) {
	loaded := loadedDefaults()
	loaded.Config.Metrics.Listen = "127.0.0.1:0"

	report := Run(context.Background(), loaded, Deps{Provider: recognizertest.NewProvider(), ListDevices: devicesOK})
	last := report.Checks[len(report.Checks)-1]
	require.Equal(t, "metrics.listen", last.Name)
	require.True(t, last.Pass, last.Message)
}

func TestRunChecksOutputCommandWhenConfigured(t *testing.T) {
	loaded := loadedDefaults()
	loaded.Config.Output.Command = []string{"definitely-not-a-hark-command", "--flag"}

	report := Run(context.Background(), loaded, Deps{Provider: recognizertest.NewProvider(), ListDevices: devicesOK})
	require.False(t, report.OK())
	require.Contains(t, report.String(), "[FAIL] output.command")

	loaded.Config.Output.Command = []string{"sh"}
	report = Run(context.Background(), loaded, Deps{Provider: recognizertest.NewProvider(), ListDevices: devicesOK})
	require.True(t, report.OK(), report.String())
}
