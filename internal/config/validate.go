package config

import (
	"fmt"
	"sort"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	switch cfg.Recognizer.Backend {
	case BackendGoogle, BackendDeepgram:
	case "":
		return nil, fmt.Errorf("recognizer.backend must not be empty")
	default:
		return nil, fmt.Errorf("recognizer.backend must be one of: google, deepgram")
	}
	if strings.TrimSpace(cfg.Recognizer.LanguageCode) == "" {
		return nil, fmt.Errorf("recognizer.language_code must not be empty")
	}
	if cfg.Recognizer.FinalizeTimeoutMS <= 0 {
		return nil, fmt.Errorf("recognizer.finalize_timeout_ms must be > 0")
	}
	if cfg.Recognizer.Insecure && strings.TrimSpace(cfg.Recognizer.Endpoint) == "" {
		return nil, fmt.Errorf("recognizer.insecure requires recognizer.endpoint")
	}

	switch cfg.Inference.Provider {
	case ProviderOpenAI, ProviderGroq:
	case ProviderCustom:
		if strings.TrimSpace(cfg.Inference.BaseURL) == "" {
			return nil, fmt.Errorf("inference.base_url must be set when inference.provider=custom")
		}
	default:
		return nil, fmt.Errorf("inference.provider must be one of: openai, groq, custom")
	}
	if cfg.Inference.Temperature < 0 || cfg.Inference.Temperature > 2 {
		return nil, fmt.Errorf("inference.temperature must be between 0 and 2")
	}
	if cfg.Inference.MaxTokens <= 0 {
		return nil, fmt.Errorf("inference.max_tokens must be > 0")
	}
	if cfg.Inference.TimeoutMS <= 0 {
		return nil, fmt.Errorf("inference.timeout_ms must be > 0")
	}
	if strings.TrimSpace(cfg.Inference.SystemPrompt) == "" {
		warnings = append(warnings, Warning{Message: "inference.system_prompt is empty; replies may not be suited for speech"})
	}

	if cfg.Synthesis.Enable {
		if strings.TrimSpace(cfg.Synthesis.Model) == "" {
			return nil, fmt.Errorf("synthesis.model must not be empty when synthesis.enable=true")
		}
		if strings.TrimSpace(cfg.Synthesis.Voice) == "" {
			return nil, fmt.Errorf("synthesis.voice must not be empty when synthesis.enable=true")
		}
		if cfg.Synthesis.Speed < 0.25 || cfg.Synthesis.Speed > 4 {
			return nil, fmt.Errorf("synthesis.speed must be between 0.25 and 4")
		}
		if cfg.Synthesis.SampleRate <= 0 {
			return nil, fmt.Errorf("synthesis.sample_rate must be > 0")
		}
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}
	if cfg.Output.CopyReply && len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty when output.copy_reply=true")
	}

	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

// BuildSpeechPhrases merges enabled vocab sets into deterministic recognizer phrase payloads.
func BuildSpeechPhrases(cfg Config) ([]SpeechPhrase, []Warning, error) {
	enabledSets := cfg.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	type candidate struct {
		boost float64
		from  string
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]candidate)

	for _, name := range enabledSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			if existing, exists := selected[phrase]; exists {
				if set.Boost > existing.boost {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, existing.from, name, set.Boost)})
					selected[phrase] = candidate{boost: set.Boost, from: name}
				}
				continue
			}
			selected[phrase] = candidate{boost: set.Boost, from: name}
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]SpeechPhrase, 0, len(selected))
	for phrase, c := range selected {
		phrases = append(phrases, SpeechPhrase{Phrase: phrase, Boost: float32(c.boost)})
	}

	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Phrase == phrases[j].Phrase {
			return phrases[i].Boost < phrases[j].Boost
		}
		return phrases[i].Phrase < phrases[j].Phrase
	})

	return phrases, warnings, nil
}
