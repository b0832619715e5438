// Package fsm defines the conversational turn states and their legal transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
	StateThinking   State = "thinking"
	StateSpeaking   State = "speaking"
	StateError      State = "error"
)

const (
	EventStart     Event = "start"
	EventStop      Event = "stop"
	EventFinalized Event = "finalized"
	EventEmpty     Event = "empty"
	EventResponded Event = "responded"
	EventSpoken    Event = "spoken"
	EventFail      Event = "fail"
	EventRecover   Event = "recover"
	EventReset     Event = "reset"
)

// Transition returns the state reached by applying event to current.
//
// EventFail is accepted from every non-idle state and EventReset from every
// state; everything else follows the happy path table.
func Transition(current State, event Event) (State, error) {
	switch event {
	case EventReset:
		if !Known(current) {
			return current, fmt.Errorf("unknown state %q", current)
		}
		return StateIdle, nil
	case EventFail:
		if current == StateIdle {
			return current, invalidTransition(current, event)
		}
		if !Known(current) {
			return current, fmt.Errorf("unknown state %q", current)
		}
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateFinalizing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFinalizing:
		switch event {
		case EventFinalized:
			return StateThinking, nil
		case EventEmpty:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateThinking:
		switch event {
		case EventResponded:
			return StateSpeaking, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSpeaking:
		switch event {
		case EventSpoken:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventRecover:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

// Known reports whether s is one of the declared states.
func Known(s State) bool {
	switch s {
	case StateIdle, StateRecording, StateFinalizing, StateThinking, StateSpeaking, StateError:
		return true
	default:
		return false
	}
}

// Busy reports whether a turn is past capture but not yet finished.
func Busy(s State) bool {
	return s == StateFinalizing || s == StateThinking || s == StateSpeaking
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
