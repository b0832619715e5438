package doctor

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ayoola1o/lara/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-bin", "--arg"}, "clipboard_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "clipboard_cmd command is available")
}

func TestCheckConfig(t *testing.T) {
	check := checkConfig(config.Loaded{Path: "/x/config.jsonc"})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "using defaults")

	check = checkConfig(config.Loaded{Path: "/x/config.jsonc", Exists: true, Warnings: []config.Warning{{Message: "unknown key"}}})
	require.Equal(t, `loaded "/x/config.jsonc" with 1 warning(s)`, check.Message)
}

func TestDialTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "speech.googleapis.com:443", want: "speech.googleapis.com:443"},
		{in: "wss://api.deepgram.com/v1/listen", want: "api.deepgram.com:443"},
		{in: "ws://localhost/v1/listen", want: "localhost:80"},
		{in: "ws://localhost:8080/v1/listen", want: "localhost:8080"},
		{in: "localhost", wantErr: true},
		{in: "ftp://host/path", wantErr: true},
	}
	for _, tc := range tests {
		got, err := dialTarget(tc.in)
		if tc.wantErr {
			require.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		require.Equal(t, tc.want, got)
	}
}

func TestCheckRecognizerReachableEndpoint(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	cfg := config.Default().Recognizer
	cfg.Backend = config.BackendDeepgram
	cfg.APIKeyEnv = "LARA_TEST_DG_KEY"
	cfg.Endpoint = "ws://" + listener.Addr().String() + "/v1/listen"
	t.Setenv("LARA_TEST_DG_KEY", "dg-key")

	checks := checkRecognizer(context.Background(), cfg)
	require.Len(t, checks, 2)
	require.True(t, checks[0].Pass)
	require.True(t, checks[1].Pass, checks[1].Message)
	require.Contains(t, checks[1].Message, "deepgram reachable")
}

func TestCheckRecognizerMissingKeyAndBadEndpoint(t *testing.T) {
	cfg := config.Default().Recognizer
	cfg.Backend = config.BackendDeepgram
	cfg.APIKeyEnv = "LARA_TEST_DG_KEY"
	cfg.Endpoint = "not a host"
	t.Setenv("LARA_TEST_DG_KEY", "")

	checks := checkRecognizer(context.Background(), cfg)
	require.False(t, checks[0].Pass)
	require.Contains(t, checks[0].Message, "LARA_TEST_DG_KEY is empty")
	require.False(t, checks[1].Pass)
}

func TestCheckInferenceListsModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-mini","object":"model"}]}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default().Inference
	cfg.BaseURL = server.URL + "/v1"
	cfg.APIKeyEnv = "LARA_TEST_LLM_KEY"
	cfg.Model = "gpt-4o-mini"
	t.Setenv("LARA_TEST_LLM_KEY", "sk-test")

	check := checkInference(context.Background(), cfg)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, `model "gpt-4o-mini" available`)

	cfg.Model = "other"
	check = checkInference(context.Background(), cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, `"other" not listed`)
}

func TestCheckInferenceFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.Default().Inference
	cfg.BaseURL = server.URL
	cfg.APIKeyEnv = "LARA_TEST_LLM_KEY"

	t.Setenv("LARA_TEST_LLM_KEY", "")
	check := checkInference(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "LARA_TEST_LLM_KEY is empty")

	t.Setenv("LARA_TEST_LLM_KEY", "sk-bad")
	check = checkInference(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "list models")

	cfg.Provider = config.ProviderCustom
	cfg.BaseURL = ""
	check = checkInference(context.Background(), cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "base_url is empty")
}

func TestCheckSynthesis(t *testing.T) {
	cfg := config.Default().Synthesis
	cfg.Enable = false
	require.True(t, checkSynthesis(cfg).Pass)

	cfg.Enable = true
	cfg.APIKeyEnv = "LARA_TEST_TTS_KEY"
	t.Setenv("LARA_TEST_TTS_KEY", "")
	require.False(t, checkSynthesis(cfg).Pass)

	t.Setenv("LARA_TEST_TTS_KEY", "sk")
	check := checkSynthesis(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, `voice "alloy"`)
}

func TestRunIncludesIndicatorAndClipboardChecks(t *testing.T) {
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "hyprctl"), []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "fake-copy"), []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Output.CopyReply = true
	cfg.Clipboard = config.CommandConfig{Raw: "fake-copy", Argv: []string{"fake-copy"}}
	cfg.Indicator.Enable = true
	cfg.Indicator.Backend = "hypr"
	cfg.Recognizer.Endpoint = "127.0.0.1:1"
	cfg.Inference.Provider = config.ProviderCustom
	cfg.Inference.BaseURL = ""
	cfg.Synthesis.Enable = false

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Exists: true, Config: cfg})
	require.False(t, report.OK())

	byName := map[string]Check{}
	for _, check := range report.Checks {
		byName[check.Name] = check
	}
	require.True(t, byName["XDG_RUNTIME_DIR"].Pass)
	require.True(t, byName["fake-copy"].Pass)
	require.True(t, byName["hyprctl"].Pass)
	require.False(t, byName["audio.device"].Pass)
	require.False(t, byName["recognizer.endpoint"].Pass)
	require.False(t, byName["inference"].Pass)
	require.True(t, byName["synthesis"].Pass)
}
