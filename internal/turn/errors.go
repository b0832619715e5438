package turn

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBusy                   = errors.New("turn in progress")
	ErrPermissionDenied       = errors.New("microphone permission denied")
	ErrDevice                 = errors.New("audio device unavailable")
	ErrRecognitionUnsupported = errors.New("speech recognition unsupported")
	ErrRecognition            = errors.New("speech recognition failed")
	ErrEmptyTranscript        = errors.New("empty transcript")
	ErrNetwork                = errors.New("inference network failure")
	ErrBackend                = errors.New("inference backend failure")
	ErrSynthesisUnsupported   = errors.New("speech synthesis unsupported")
	ErrSynthesis              = errors.New("speech synthesis failed")
	ErrStopped                = errors.New("controller stopped")
)

// UserMessage converts a turn failure into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Microphone access denied. Allow microphone access and try again."
	case errors.Is(err, ErrDevice):
		return withDetail("No usable microphone found", err, ErrDevice)
	case errors.Is(err, ErrRecognitionUnsupported):
		return "Speech recognition is not available. Check the recognizer settings."
	case errors.Is(err, ErrRecognition):
		return withDetail("Speech recognition error", err, ErrRecognition)
	case errors.Is(err, ErrNetwork):
		return "Could not connect to the assistant. Check your connection and try again."
	case errors.Is(err, ErrBackend):
		return withDetail("The assistant returned an error", err, ErrBackend)
	case errors.Is(err, ErrSynthesisUnsupported):
		return "Speech output is not available. The reply is shown as text."
	case errors.Is(err, ErrSynthesis):
		return withDetail("Speech output error", err, ErrSynthesis)
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

// withDetail appends the text that follows the sentinel in err, if any.
func withDetail(prefix string, err error, sentinel error) string {
	detail := strings.TrimSpace(strings.TrimPrefix(err.Error(), sentinel.Error()))
	detail = strings.TrimSpace(strings.TrimPrefix(detail, ":"))
	if detail == "" {
		return prefix + "."
	}
	return prefix + ": " + detail
}
