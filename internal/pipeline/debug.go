package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/Ayoola1o/lara/internal/audio"
)

// Artifacts creates timestamped debug files under one directory.
type Artifacts struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// NewArtifacts roots debug output at dir on fs.
func NewArtifacts(fs afero.Fs, dir string) *Artifacts {
	return &Artifacts{fs: fs, dir: dir, now: time.Now}
}

// DefaultDebugDir returns $XDG_STATE_HOME/lara/debug with the usual fallback.
func DefaultDebugDir() (string, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(stateDir, "lara", "debug"), nil
}

// Dir returns the artifact directory.
func (a *Artifacts) Dir() string {
	return a.dir
}

// Create opens a new artifact file named prefix-timestamp.extension.
func (a *Artifacts) Create(prefix string, extension string) (io.WriteCloser, string, error) {
	if err := a.fs.MkdirAll(a.dir, 0o700); err != nil {
		return nil, "", fmt.Errorf("create debug dir: %w", err)
	}
	path := a.path(prefix, extension)
	file, err := a.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, "", fmt.Errorf("open debug file %q: %w", path, err)
	}
	return file, path, nil
}

// WriteAudio stores pcm as a WAV artifact. Empty pcm writes nothing.
func (a *Artifacts) WriteAudio(pcm []byte, sampleRate int) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}
	if err := a.fs.MkdirAll(a.dir, 0o700); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}
	path := a.path("audio", "wav")
	if err := audio.WriteWAV(a.fs, path, pcm, sampleRate); err != nil {
		return "", err
	}
	return path, nil
}

func (a *Artifacts) path(prefix string, extension string) string {
	timestamp := a.now().Format("20060102-150405.000")
	return filepath.Join(a.dir, fmt.Sprintf("%s-%s.%s", prefix, timestamp, extension))
}

// resolveStateDir returns XDG_STATE_HOME or its ~/.local/state fallback.
func resolveStateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state: %w", err)
	}
	return filepath.Join(home, ".local", "state"), nil
}
