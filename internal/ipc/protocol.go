// Package ipc is the local control channel between a running hark instance and
// one-shot CLI invocations: newline-delimited JSON over a unix socket.
package ipc

// Commands accepted by a running instance.
const (
	CommandStatus     = "status"
	CommandStart      = "start"
	CommandStop       = "stop"
	CommandReset      = "reset"
	CommandTranscript = "transcript"
)

type Request struct {
	Command string `json:"command"`
}

// Response carries the coordinator state observed after the command ran.
type Response struct {
	OK            bool   `json:"ok"`
	Status        string `json:"status,omitempty"`
	Activation    bool   `json:"activation_listening,omitempty"`
	Transcription bool   `json:"transcription_listening,omitempty"`
	Transcript    string `json:"transcript,omitempty"`
	LastError     string `json:"last_error,omitempty"`
	Error         string `json:"error,omitempty"`
}
