// Package cli parses hark command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun        Command = "run"
	CommandStatus     Command = "status"
	CommandStart      Command = "start"
	CommandStop       Command = "stop"
	CommandReset      Command = "reset"
	CommandTranscript Command = "transcript"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:        {},
	CommandStatus:     {},
	CommandStart:      {},
	CommandStop:       {},
	CommandReset:      {},
	CommandTranscript: {},
	CommandDevices:    {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
}

// Remote reports whether cmd is forwarded to a running instance.
func (c Command) Remote() bool {
	switch c {
	case CommandStatus, CommandStart, CommandStop, CommandReset, CommandTranscript:
		return true
	default:
		return false
	}
}

// Parsed is the argument vector reduced to one command plus global overrides.
// Phrase overrides are nil when the flag was not given, so an explicit empty
// phrase is distinguishable from no override.
type Parsed struct {
	Command          Command
	ConfigPath       string
	ActivationPhrase *string
	StopPhrase       *string
	ShowHelp         bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	value := func(i *int, flag string) (string, error) {
		*i++
		if *i >= len(args) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--wake":
			phrase, err := value(&i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.ActivationPhrase = &phrase
		case "--sleep":
			phrase, err := value(&i, arg)
			if err != nil {
				return Parsed{}, err
			}
			parsed.StopPhrase = &phrase
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--wake PHRASE] [--sleep PHRASE] <command>

Commands:
  run         Listen for the wake phrase and transcribe until the stop phrase
  status      Print the status of the running instance
  start       Start listening in the running instance
  stop        Stop listening in the running instance
  reset       Clear the running instance's transcript
  transcript  Print the running instance's merged transcript
  devices     List available input devices
  doctor      Run configuration and environment checks
  version     Print version information
  help        Show this help

While running, each input line is one recognized utterance:
  text      final result
  ~text     interim result
  /start    start listening        /stop     stop listening
  /reset    clear the transcript   /status   print status
End of input prints the merged transcript and exits.

A running instance accepts remote commands on $XDG_RUNTIME_DIR/hark.sock.

Flags:
  --config PATH    Config file path (default: $XDG_CONFIG_HOME/hark/config.yaml)
  --wake PHRASE    Override wake.activation_phrase
  --sleep PHRASE   Override wake.stop_phrase
  -h, --help       Show help
  --version        Show version
`, binaryName)
}
