package turn

import "github.com/Ayoola1o/lara/internal/fsm"

type statusMessages struct {
	requesting string
	listening  string
	processing string
	thinking   string
	speaking   string
	ready      string
	noSpeech   string
}

var defaultMessages = statusMessages{
	requesting: "Requesting microphone access...",
	listening:  "Listening...",
	processing: "Processing speech...",
	thinking:   "Thinking...",
	speaking:   "Speaking...",
	ready:      "Ready.",
	noSpeech:   "No speech detected. Try again.",
}

// Status projects controller state and turn data onto the single line shown to the user.
//
// An error message wins over everything, a notice is only shown while idle,
// otherwise the phase message is used.
func Status(state fsm.State, t Turn) string {
	return defaultMessages.status(state, t)
}

func (m statusMessages) status(state fsm.State, t Turn) string {
	if t.ErrorMessage != "" {
		return t.ErrorMessage
	}
	if state == fsm.StateIdle && t.Notice != "" {
		return t.Notice
	}

	switch state {
	case fsm.StateRecording:
		if t.Listening {
			return m.listening
		}
		return m.requesting
	case fsm.StateFinalizing:
		return m.processing
	case fsm.StateThinking:
		return m.thinking
	case fsm.StateSpeaking:
		return m.speaking
	default:
		return m.ready
	}
}
