// Package recognizer streams microphone audio to a speech recognition backend
// and reports interim and final hypotheses as transcript segments.
package recognizer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Ayoola1o/lara/internal/config"
	"github.com/Ayoola1o/lara/internal/turn"
)

const (
	defaultDialTimeout  = 3 * time.Second
	defaultDrainTimeout = 10 * time.Second
	sampleRateHertz     = 16000
)

// Phrase is one vocabulary boost phrase in request-ready form.
type Phrase struct {
	Text  string
	Boost float32
}

// New builds the configured recognizer backend. dump, when non-nil, receives
// every backend response as one JSON line.
func New(cfg config.Config, logger *slog.Logger, dump io.Writer) (turn.Recognizer, error) {
	speechPhrases, _, err := config.BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, fmt.Errorf("build speech contexts: %w", err)
	}
	phrases := make([]Phrase, 0, len(speechPhrases))
	for _, p := range speechPhrases {
		phrases = append(phrases, Phrase{Text: p.Phrase, Boost: p.Boost})
	}

	rc := cfg.Recognizer
	drain := time.Duration(rc.FinalizeTimeoutMS) * time.Millisecond
	apiKey := ""
	if env := rc.ResolvedAPIKeyEnv(); env != "" {
		apiKey = strings.TrimSpace(os.Getenv(env))
	}

	switch rc.Backend {
	case config.BackendGoogle, "":
		return NewGoogle(GoogleConfig{
			Endpoint:             rc.ResolvedEndpoint(),
			Insecure:             rc.Insecure,
			APIKey:               apiKey,
			LanguageCode:         rc.LanguageCode,
			Model:                rc.ResolvedModel(),
			AutomaticPunctuation: rc.AutomaticPunctuation,
			Phrases:              phrases,
			DrainTimeout:         drain,
			Dump:                 dump,
		}, logger), nil
	case config.BackendDeepgram:
		if apiKey == "" {
			return nil, fmt.Errorf("deepgram api key is empty (set %s)", rc.ResolvedAPIKeyEnv())
		}
		return NewDeepgram(DeepgramConfig{
			URL:          rc.ResolvedEndpoint(),
			APIKey:       apiKey,
			LanguageCode: rc.LanguageCode,
			Model:        rc.ResolvedModel(),
			Punctuate:    rc.AutomaticPunctuation,
			Phrases:      phrases,
			DrainTimeout: drain,
			Dump:         dump,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported recognizer backend %q", rc.Backend)
	}
}

func languageOrDefault(code string) string {
	if code = strings.TrimSpace(code); code != "" {
		return code
	}
	return "en-US"
}
