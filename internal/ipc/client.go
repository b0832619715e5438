package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"
)

// DefaultTimeout bounds a forwarded command when the caller passes none.
const DefaultTimeout = 250 * time.Millisecond

// Send forwards one command to the talk session listening on path and
// returns its reply. Unknown commands fail before anything is dialed.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	req, err := req.Normalize()
	if err != nil {
		return Response{}, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Alive reports whether a talk session answers status on path. A missing
// socket or one nobody listens on is not alive; any other failure is
// inconclusive and returned.
func Alive(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Send(ctx, path, Request{Command: CommandStatus}, timeout)
	if err == nil {
		return true, nil
	}
	if Unavailable(err) {
		return false, nil
	}
	return false, fmt.Errorf("check talk session: %w", err)
}

// Unavailable reports dial failures meaning no talk session is running.
func Unavailable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		strings.Contains(err.Error(), "no such file or directory")
}
