package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = "/org/freedesktop/Notifications"
	notifyIface = "org.freedesktop.Notifications"

	defaultDesktopAppName = "lara-indicator"

	urgencyNormal   = 1
	urgencyCritical = 2
)

// desktopNotifier keeps a single replaceable notification on the session
// bus, so every phase of a turn rewrites the same bubble.
type desktopNotifier struct {
	appName string

	mu sync.Mutex
	id uint32
}

func newDesktopNotifier(appName string) *desktopNotifier {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		appName = defaultDesktopAppName
	}
	return &desktopNotifier{appName: appName}
}

// show replaces the current notification, or opens one when none is up.
// The lock is held across the call so replace IDs never race.
func (d *desktopNotifier) show(ctx context.Context, summary string, urgency int, timeoutMS int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	out, err := busctl(ctx, "Notify", "susssasa{sv}i",
		d.appName,
		strconv.FormatUint(uint64(d.id), 10),
		"",
		summary,
		"",
		// no actions, one urgency hint
		"0",
		"1", "urgency", "y", strconv.Itoa(urgency),
		strconv.Itoa(timeoutMS),
	)
	if err != nil {
		return fmt.Errorf("desktop notify: %w", err)
	}
	id, err := parseNotificationID(out)
	if err != nil {
		return err
	}
	d.id = id
	return nil
}

// dismiss closes the tracked notification. It is a no-op when none is up.
func (d *desktopNotifier) dismiss(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.id == 0 {
		return nil
	}
	id := d.id
	d.id = 0
	if _, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss %d: %w", id, err)
	}
	return nil
}

func (d *desktopNotifier) current() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// busctl calls one method of the notification service on the user bus.
func busctl(ctx context.Context, method string, signature string, args ...string) (string, error) {
	argv := append([]string{"--user", "call", notifyDest, notifyPath, notifyIface, method, signature}, args...)
	out, err := exec.CommandContext(ctx, "busctl", argv...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed == "" {
			return "", err
		}
		return "", fmt.Errorf("%w (%s)", err, trimmed)
	}
	return trimmed, nil
}

// parseNotificationID reads busctl's "u <id>" reply.
func parseNotificationID(out string) (uint32, error) {
	fields := strings.Fields(out)
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify: unexpected reply %q", out)
	}
	value, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify: parse id %q: %w", fields[1], err)
	}
	return uint32(value), nil
}
