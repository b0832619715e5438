package audio

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAccessDenied reports that the sound server refused the client.
	ErrAccessDenied = errors.New("audio server access denied")
	// ErrNoDevice reports that no usable input source could be resolved.
	ErrNoDevice = errors.New("no usable audio input")
)

// classifyConnectError tags pulse connection failures so callers can tell a
// refused permission apart from a missing server or device.
func classifyConnectError(op string, err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "access denied") || strings.Contains(msg, "permission denied") {
		return fmt.Errorf("%s: %w: %w", op, ErrAccessDenied, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
