package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SocketName is the talk session socket inside XDG_RUNTIME_DIR.
const SocketName = "lara.sock"

// sun_path holds 108 bytes including the terminator.
const maxSocketPath = 107

var ErrAlreadyRunning = errors.New("lara talk session already running")

// RuntimeSocketPath locates the talk session socket.
func RuntimeSocketPath() (string, error) {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, SocketName), nil
}

// Acquire claims path for a new talk session. A socket left behind by a
// dead session is unlinked and retried; a live one yields ErrAlreadyRunning.
// The socket is never unlinked when its owner cannot be determined.
func Acquire(ctx context.Context, path string, checkTimeout time.Duration, retries int) (net.Listener, error) {
	if len(path) > maxSocketPath {
		return nil, fmt.Errorf("socket path %s is longer than %d bytes", path, maxSocketPath)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	for attempt := 0; attempt <= retries; attempt++ {
		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return listener, nil
		}
		if !isAddrInUse(err) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, checkErr := Alive(ctx, path, checkTimeout)
		if alive {
			return nil, ErrAlreadyRunning
		}
		if checkErr != nil {
			return nil, fmt.Errorf("existing socket %s: %w", path, checkErr)
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}

		if attempt < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(25*(attempt+1)) * time.Millisecond):
			}
		}
	}

	return nil, fmt.Errorf("acquire socket %s: gave up after %d retries", path, retries)
}

func isAddrInUse(err error) bool {
	return err != nil && strings.Contains(err.Error(), "address already in use")
}
