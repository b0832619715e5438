// Package ipc carries lara commands from one-shot CLI invocations to the
// talk session that owns the runtime socket.
package ipc

import (
	"errors"
	"fmt"
	"strings"
)

// Commands understood by a running talk session.
const (
	CommandStatus = "status"
	CommandStart  = "start"
	CommandStop   = "stop"
	CommandToggle = "toggle"
	CommandReset  = "reset"
)

// ErrUnknownCommand is returned for commands a talk session does not serve.
var ErrUnknownCommand = errors.New("unknown lara command")

var commands = map[string]bool{
	CommandStatus: true,
	CommandStart:  true,
	CommandStop:   true,
	CommandToggle: true,
	CommandReset:  true,
}

// Request is one newline-delimited JSON command.
type Request struct {
	Command string `json:"command"`
}

// Normalize returns the request with its command trimmed and lowercased,
// or ErrUnknownCommand when nothing serves it.
func (r Request) Normalize() (Request, error) {
	name := strings.ToLower(strings.TrimSpace(r.Command))
	if !commands[name] {
		return r, fmt.Errorf("%w %q", ErrUnknownCommand, r.Command)
	}
	return Request{Command: name}, nil
}

// Response carries the controller view after a command was applied.
type Response struct {
	OK        bool   `json:"ok"`
	State     string `json:"state,omitempty"`
	Status    string `json:"status,omitempty"`
	User      string `json:"user,omitempty"`
	Assistant string `json:"assistant,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

func failure(format string, args ...any) Response {
	return Response{OK: false, Error: fmt.Sprintf(format, args...)}
}
