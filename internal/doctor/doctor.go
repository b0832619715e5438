// Package doctor runs readiness diagnostics for config, audio, and the
// recognizer, inference, and synthesis backends.
package doctor

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Ayoola1o/lara/internal/audio"
	"github.com/Ayoola1o/lara/internal/config"
)

const checkTimeout = 3 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "control socket directory available", "XDG_RUNTIME_DIR is empty; start/stop/toggle cannot reach the session"))

	if cfg.Output.CopyReply {
		checks = append(checks, checkCommand(cfg.Clipboard.Argv, "clipboard_cmd"))
	}
	if cfg.Indicator.Enable {
		if strings.EqualFold(strings.TrimSpace(cfg.Indicator.Backend), "desktop") {
			checks = append(checks, checkBinary("busctl", "desktop notifications"))
		} else {
			checks = append(checks, checkBinary("hyprctl", "Hyprland notifications"))
		}
	}

	checks = append(checks, checkAudioSelection(ctx, cfg))
	checks = append(checks, checkRecognizer(ctx, cfg.Recognizer)...)
	checks = append(checks, checkInference(ctx, cfg.Inference))
	checks = append(checks, checkSynthesis(cfg.Synthesis))

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("no file at %q, using defaults", loaded.Path)}
	}
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if n := len(loaded.Warnings); n > 0 {
		message = fmt.Sprintf("%s with %d warning(s)", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %s", audio.Describe(selection.Device))
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkRecognizer validates credentials and dials the recognizer endpoint.
func checkRecognizer(ctx context.Context, cfg config.RecognizerConfig) []Check {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = config.BackendGoogle
	}

	var creds Check
	switch env := cfg.ResolvedAPIKeyEnv(); {
	case env != "":
		creds = checkKey("recognizer.credentials", env)
	case strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")) != "":
		creds = Check{Name: "recognizer.credentials", Pass: true, Message: "using GOOGLE_APPLICATION_CREDENTIALS"}
	default:
		creds = Check{Name: "recognizer.credentials", Pass: true, Message: "using application default credentials"}
	}

	endpoint := cfg.ResolvedEndpoint()
	hostport, err := dialTarget(endpoint)
	if err != nil {
		return []Check{creds, {Name: "recognizer.endpoint", Pass: false, Message: err.Error()}}
	}
	return []Check{creds, checkTCP(ctx, "recognizer.endpoint", backend, hostport)}
}

// dialTarget turns a gRPC host:port or a websocket URL into host:port.
func dialTarget(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.Contains(endpoint, "://") {
		if _, _, err := net.SplitHostPort(endpoint); err != nil {
			return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
		return endpoint, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	switch u.Scheme {
	case "ws", "http":
		return net.JoinHostPort(u.Hostname(), "80"), nil
	case "wss", "https":
		return net.JoinHostPort(u.Hostname(), "443"), nil
	default:
		return "", fmt.Errorf("invalid endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
}

func checkTCP(ctx context.Context, name string, backend string, hostport string) Check {
	dialer := net.Dialer{Timeout: checkTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", hostport)
	if err != nil {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s unreachable at %s: %v", backend, hostport, err)}
	}
	_ = conn.Close()
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s reachable at %s", backend, hostport)}
}

func checkKey(name string, env string) Check {
	if strings.TrimSpace(os.Getenv(env)) == "" {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("%s is empty", env)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("%s is set", env)}
}

// checkInference lists models to prove the key and base URL work together.
func checkInference(ctx context.Context, cfg config.InferenceConfig) Check {
	base := cfg.ResolvedBaseURL()
	if base == "" {
		return Check{Name: "inference", Pass: false, Message: "inference.base_url is empty"}
	}

	env := cfg.ResolvedAPIKeyEnv()
	key := ""
	if env != "" {
		key = strings.TrimSpace(os.Getenv(env))
		if key == "" {
			return Check{Name: "inference", Pass: false, Message: fmt.Sprintf("%s is empty", env)}
		}
	}

	clientConfig := openai.DefaultConfig(key)
	clientConfig.BaseURL = strings.TrimRight(base, "/")
	client := openai.NewClientWithConfig(clientConfig)

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	models, err := client.ListModels(ctx)
	if err != nil {
		return Check{Name: "inference", Pass: false, Message: fmt.Sprintf("list models at %s: %v", base, err)}
	}

	model := cfg.ResolvedModel()
	for _, m := range models.Models {
		if m.ID == model {
			return Check{Name: "inference", Pass: true, Message: fmt.Sprintf("model %q available at %s", model, base)}
		}
	}
	return Check{Name: "inference", Pass: true, Message: fmt.Sprintf("reachable at %s (%d models, %q not listed)", base, len(models.Models), model)}
}

func checkSynthesis(cfg config.SynthesisConfig) Check {
	if !cfg.Enable {
		return Check{Name: "synthesis", Pass: true, Message: "disabled; replies are shown as text"}
	}
	check := checkKey("synthesis", cfg.ResolvedAPIKeyEnv())
	if check.Pass {
		check.Message = fmt.Sprintf("voice %q via %s", cfg.Voice, cfg.ResolvedBaseURL())
	}
	return check
}
