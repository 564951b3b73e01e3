package indicator

import (
	"bytes"
	"testing"

	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/transcript"
	"github.com/stretchr/testify/require"
)

func TestConsoleRendersPhaseChanges(t *testing.T) {
	useEnglish(t)
	var out bytes.Buffer
	c := NewConsole(&out)

	c.PhaseChanged(fsm.PhaseIdle, fsm.PhaseWaitingForWake)
	c.PhaseChanged(fsm.PhaseWaitingForWake, fsm.PhaseTranscribing)
	c.PhaseChanged(fsm.PhaseTranscribing, fsm.PhaseIdle)

	require.Equal(t,
		"[waiting] Listening for wake phrase…\n[active] Transcribing…\n[idle] Stopped\n",
		out.String(),
	)
}

func TestConsoleRendersSegmentsAndErrors(t *testing.T) {
	useEnglish(t)
	var out bytes.Buffer
	c := NewConsole(&out)

	c.SegmentMerged(transcript.Segment{Text: "hello world", IsFinal: true})
	c.SegmentMerged(transcript.Segment{Text: "half a", IsFinal: false})
	c.SegmentDropped(transcript.Segment{Text: "dup"})
	c.AdapterError("activation", " no-speech ")
	c.AdapterError("transcription", "")

	require.Equal(t,
		"> hello world\n~ half a\n! Speech recognition error (activation): no-speech\n! Speech recognition error (transcription)\n",
		out.String(),
	)
}

func TestNewConsoleNilWriterDiscards(t *testing.T) {
	c := NewConsole(nil)
	require.NotPanics(t, func() {
		c.Printf("status: %s\n", "idle")
		c.PhaseChanged(fsm.PhaseIdle, fsm.PhaseWaitingForWake)
	})
}

func useEnglish(t *testing.T) {
	t.Helper()
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "en_US.UTF-8")
}
