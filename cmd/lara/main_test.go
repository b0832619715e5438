package main

import (
	"errors"
	"os"
	"os/exec"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMainVersion(t *testing.T) {
	output, err := runLara(t, "version")
	require.NoError(t, err, string(output))
	require.Contains(t, string(output), "lara")
}

func TestMainHelpListsTalk(t *testing.T) {
	output, err := runLara(t, "--help")
	require.NoError(t, err, string(output))
	require.Contains(t, string(output), "Usage:")
	require.Contains(t, string(output), "talk")
}

func TestMainUnknownCommandExitsWithUsageCode(t *testing.T) {
	output, err := runLara(t, "not-a-command")

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "expected exit error, got %v", err)
	require.Equal(t, 2, exitErr.ExitCode())
	require.Contains(t, string(output), "unknown command")
}

// TestLaraProcess re-enters main when spawned by runLara.
func TestLaraProcess(t *testing.T) {
	if os.Getenv("LARA_TEST_PROCESS") != "1" {
		return
	}

	args := []string{"lara"}
	if i := slices.Index(os.Args, "--"); i >= 0 {
		args = append(args, os.Args[i+1:]...)
	}
	os.Args = args

	main()
}

func runLara(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	cmd := exec.Command(os.Args[0], append([]string{"-test.run=^TestLaraProcess$", "--"}, args...)...)
	cmd.Env = append(os.Environ(), "LARA_TEST_PROCESS=1")
	return cmd.CombinedOutput()
}
