package fsm

import "fmt"

type Phase string

type Event string

const (
	PhaseIdle           Phase = "idle"
	PhaseWaitingForWake Phase = "waiting-for-wake"
	PhaseTranscribing   Phase = "transcribing"
)

const (
	EventStart Event = "start"
	EventWake  Event = "wake"
	EventSleep Event = "sleep"
	EventStop  Event = "stop"
)

// Transition returns the phase reached by applying event to current.
func Transition(current Phase, event Event) (Phase, error) {
	switch current {
	case PhaseIdle:
		switch event {
		case EventStart:
			return PhaseWaitingForWake, nil
		case EventStop:
			return PhaseIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseWaitingForWake:
		switch event {
		case EventWake:
			return PhaseTranscribing, nil
		case EventStop:
			return PhaseIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case PhaseTranscribing:
		switch event {
		case EventSleep:
			return PhaseWaitingForWake, nil
		case EventStop:
			return PhaseIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown phase %q", current)
	}
}

func invalidTransition(phase Phase, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", phase, event)
}
