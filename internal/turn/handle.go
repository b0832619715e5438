package turn

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ayoola1o/lara/internal/ipc"
)

// Handle serves IPC commands for the running talk session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	var (
		err     error
		message string
	)

	switch req.Command {
	case ipc.CommandStatus:
		message = "status"
	case ipc.CommandStart:
		err = c.Start(ctx)
		message = "start requested"
	case ipc.CommandStop:
		err = c.Stop(ctx)
		message = "stop requested"
	case ipc.CommandToggle:
		err = c.Toggle(ctx)
		message = "toggle requested"
	case ipc.CommandReset:
		err = c.Reset(ctx)
		message = "reset requested"
	default:
		snap := c.Snapshot()
		return ipc.Response{OK: false, State: string(snap.State), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}

	snap := c.Snapshot()
	resp := ipc.Response{
		OK:        err == nil,
		State:     string(snap.State),
		Status:    snap.Status,
		User:      snap.Turn.UserText,
		Assistant: snap.Turn.AssistantText,
		Message:   message,
	}
	if err != nil {
		resp.Message = ""
		if errors.Is(err, ErrBusy) {
			resp.Error = fmt.Sprintf("cannot %s from state %s", req.Command, snap.State)
		} else {
			resp.Error = err.Error()
		}
	}
	return resp
}
