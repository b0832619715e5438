package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// filePayload mirrors the on-disk schema. Pointer fields distinguish unset
// keys from zero values so defaults survive partial files.
type filePayload struct {
	Audio      *payloadAudio      `json:"audio" toml:"audio"`
	Recognizer *payloadRecognizer `json:"recognizer" toml:"recognizer"`
	Inference  *payloadInference  `json:"inference" toml:"inference"`
	Synthesis  *payloadSynthesis  `json:"synthesis" toml:"synthesis"`
	Indicator  *payloadIndicator  `json:"indicator" toml:"indicator"`
	Output     *payloadOutput     `json:"output" toml:"output"`

	ClipboardCmd *string         `json:"clipboard_cmd" toml:"clipboard_cmd"`
	Vocab        *payloadVocab   `json:"vocab" toml:"vocab"`
	Metrics      *payloadMetrics `json:"metrics" toml:"metrics"`
	Debug        *payloadDebug   `json:"debug" toml:"debug"`
}

type payloadAudio struct {
	Input    *string `json:"input" toml:"input"`
	Fallback *string `json:"fallback" toml:"fallback"`
}

type payloadRecognizer struct {
	Backend              *string `json:"backend" toml:"backend"`
	LanguageCode         *string `json:"language_code" toml:"language_code"`
	Model                *string `json:"model" toml:"model"`
	Endpoint             *string `json:"endpoint" toml:"endpoint"`
	Insecure             *bool   `json:"insecure" toml:"insecure"`
	APIKeyEnv            *string `json:"api_key_env" toml:"api_key_env"`
	AutomaticPunctuation *bool   `json:"automatic_punctuation" toml:"automatic_punctuation"`
	FinalizeTimeoutMS    *int    `json:"finalize_timeout_ms" toml:"finalize_timeout_ms"`
}

type payloadInference struct {
	Provider     *string  `json:"provider" toml:"provider"`
	BaseURL      *string  `json:"base_url" toml:"base_url"`
	Model        *string  `json:"model" toml:"model"`
	APIKeyEnv    *string  `json:"api_key_env" toml:"api_key_env"`
	SystemPrompt *string  `json:"system_prompt" toml:"system_prompt"`
	Temperature  *float64 `json:"temperature" toml:"temperature"`
	MaxTokens    *int     `json:"max_tokens" toml:"max_tokens"`
	TimeoutMS    *int     `json:"timeout_ms" toml:"timeout_ms"`
}

type payloadSynthesis struct {
	Enable     *bool    `json:"enable" toml:"enable"`
	BaseURL    *string  `json:"base_url" toml:"base_url"`
	APIKeyEnv  *string  `json:"api_key_env" toml:"api_key_env"`
	Model      *string  `json:"model" toml:"model"`
	Voice      *string  `json:"voice" toml:"voice"`
	Speed      *float64 `json:"speed" toml:"speed"`
	SampleRate *int     `json:"sample_rate" toml:"sample_rate"`
}

type payloadIndicator struct {
	Enable         *bool   `json:"enable" toml:"enable"`
	Backend        *string `json:"backend" toml:"backend"`
	DesktopAppName *string `json:"desktop_app_name" toml:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable" toml:"sound_enable"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms" toml:"error_timeout_ms"`
}

type payloadOutput struct {
	CopyReply *bool `json:"copy_reply" toml:"copy_reply"`
}

type payloadVocab struct {
	Global     *stringList                `json:"global" toml:"global"`
	MaxPhrases *int                       `json:"max_phrases" toml:"max_phrases"`
	Sets       map[string]payloadVocabSet `json:"sets" toml:"sets"`
}

type payloadVocabSet struct {
	Boost   *float64 `json:"boost" toml:"boost"`
	Phrases []string `json:"phrases" toml:"phrases"`
}

type payloadMetrics struct {
	Textfile *string `json:"textfile" toml:"textfile"`
}

type payloadDebug struct {
	AudioDump    *bool `json:"audio_dump" toml:"audio_dump"`
	ResponseDump *bool `json:"response_dump" toml:"response_dump"`
}

// stringList accepts either a list of strings or one comma-delimited string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = splitCommaList(single)
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func (l *stringList) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case string:
		*l = splitCommaList(v)
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string array or comma-delimited string")
			}
			out = append(out, s)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("expected string array or comma-delimited string")
	}
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

func (payload filePayload) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if r := payload.Recognizer; r != nil {
		if r.Backend != nil {
			cfg.Recognizer.Backend = strings.ToLower(strings.TrimSpace(*r.Backend))
		}
		if r.LanguageCode != nil {
			cfg.Recognizer.LanguageCode = *r.LanguageCode
		}
		if r.Model != nil {
			cfg.Recognizer.Model = strings.TrimSpace(*r.Model)
		}
		if r.Endpoint != nil {
			cfg.Recognizer.Endpoint = strings.TrimSpace(*r.Endpoint)
		}
		if r.Insecure != nil {
			cfg.Recognizer.Insecure = *r.Insecure
		}
		if r.APIKeyEnv != nil {
			cfg.Recognizer.APIKeyEnv = strings.TrimSpace(*r.APIKeyEnv)
		}
		if r.AutomaticPunctuation != nil {
			cfg.Recognizer.AutomaticPunctuation = *r.AutomaticPunctuation
		}
		if r.FinalizeTimeoutMS != nil {
			cfg.Recognizer.FinalizeTimeoutMS = *r.FinalizeTimeoutMS
		}
	}

	if i := payload.Inference; i != nil {
		if i.Provider != nil {
			cfg.Inference.Provider = strings.ToLower(strings.TrimSpace(*i.Provider))
		}
		if i.BaseURL != nil {
			cfg.Inference.BaseURL = strings.TrimSpace(*i.BaseURL)
		}
		if i.Model != nil {
			cfg.Inference.Model = strings.TrimSpace(*i.Model)
		}
		if i.APIKeyEnv != nil {
			cfg.Inference.APIKeyEnv = strings.TrimSpace(*i.APIKeyEnv)
		}
		if i.SystemPrompt != nil {
			cfg.Inference.SystemPrompt = *i.SystemPrompt
		}
		if i.Temperature != nil {
			cfg.Inference.Temperature = *i.Temperature
		}
		if i.MaxTokens != nil {
			cfg.Inference.MaxTokens = *i.MaxTokens
		}
		if i.TimeoutMS != nil {
			cfg.Inference.TimeoutMS = *i.TimeoutMS
		}
	}

	if s := payload.Synthesis; s != nil {
		if s.Enable != nil {
			cfg.Synthesis.Enable = *s.Enable
		}
		if s.BaseURL != nil {
			cfg.Synthesis.BaseURL = strings.TrimSpace(*s.BaseURL)
		}
		if s.APIKeyEnv != nil {
			cfg.Synthesis.APIKeyEnv = strings.TrimSpace(*s.APIKeyEnv)
		}
		if s.Model != nil {
			cfg.Synthesis.Model = strings.TrimSpace(*s.Model)
		}
		if s.Voice != nil {
			cfg.Synthesis.Voice = strings.TrimSpace(*s.Voice)
		}
		if s.Speed != nil {
			cfg.Synthesis.Speed = *s.Speed
		}
		if s.SampleRate != nil {
			cfg.Synthesis.SampleRate = *s.SampleRate
		}
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.Backend != nil {
			cfg.Indicator.Backend = strings.TrimSpace(*payload.Indicator.Backend)
		}
		if payload.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*payload.Indicator.DesktopAppName)
		}
		if payload.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *payload.Indicator.SoundEnable
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.Output != nil && payload.Output.CopyReply != nil {
		cfg.Output.CopyReply = *payload.Output.CopyReply
	}

	if payload.ClipboardCmd != nil {
		cmd, err := parseCommand(*payload.ClipboardCmd)
		if err != nil {
			return nil, fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = cmd
	}

	if payload.Vocab != nil {
		if payload.Vocab.Global != nil {
			cfg.Vocab.GlobalSets = cfg.Vocab.GlobalSets[:0]
			for _, name := range *payload.Vocab.Global {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				cfg.Vocab.GlobalSets = append(cfg.Vocab.GlobalSets, name)
			}
		}
		if payload.Vocab.MaxPhrases != nil {
			cfg.Vocab.MaxPhrases = *payload.Vocab.MaxPhrases
		}
		for name, set := range payload.Vocab.Sets {
			trimmedName := strings.TrimSpace(name)
			if trimmedName == "" {
				return nil, fmt.Errorf("vocab.sets contains an empty set name")
			}

			entry := VocabSet{Name: trimmedName, Phrases: append([]string(nil), set.Phrases...)}
			if set.Boost != nil {
				entry.Boost = *set.Boost
			}
			cfg.Vocab.Sets[trimmedName] = entry
		}
	}

	if payload.Metrics != nil && payload.Metrics.Textfile != nil {
		cfg.Metrics.Textfile = strings.TrimSpace(*payload.Metrics.Textfile)
	}

	if payload.Debug != nil {
		if payload.Debug.AudioDump != nil {
			cfg.Debug.EnableAudioDump = *payload.Debug.AudioDump
		}
		if payload.Debug.ResponseDump != nil {
			cfg.Debug.EnableResponseDump = *payload.Debug.ResponseDump
		}
	}

	if cfg.Synthesis.Enable && cfg.Inference.Provider == ProviderGroq && payload.Synthesis == nil {
		warnings = append(warnings, Warning{Message: "synthesis uses the OpenAI speech endpoint; set synthesis.api_key_env if OPENAI_API_KEY is not available"})
	}

	return warnings, nil
}
