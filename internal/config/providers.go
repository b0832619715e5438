package config

import "strings"

const (
	BackendGoogle   = "google"
	BackendDeepgram = "deepgram"

	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderCustom = "custom"
)

const (
	openAIBaseURL   = "https://api.openai.com/v1"
	groqBaseURL     = "https://api.groq.com/openai/v1"
	deepgramBaseURL = "wss://api.deepgram.com/v1/listen"
	googleEndpoint  = "speech.googleapis.com:443"
)

// ResolvedEndpoint returns the configured endpoint or the backend default.
func (r RecognizerConfig) ResolvedEndpoint() string {
	if endpoint := strings.TrimSpace(r.Endpoint); endpoint != "" {
		return endpoint
	}
	if r.Backend == BackendDeepgram {
		return deepgramBaseURL
	}
	return googleEndpoint
}

// ResolvedModel returns the configured model or the backend default.
func (r RecognizerConfig) ResolvedModel() string {
	if model := strings.TrimSpace(r.Model); model != "" {
		return model
	}
	if r.Backend == BackendDeepgram {
		return "nova-2"
	}
	return "latest_short"
}

// ResolvedAPIKeyEnv names the environment variable holding the recognizer key.
// Google falls back to application default credentials when it is unset.
func (r RecognizerConfig) ResolvedAPIKeyEnv() string {
	if env := strings.TrimSpace(r.APIKeyEnv); env != "" {
		return env
	}
	if r.Backend == BackendDeepgram {
		return "DEEPGRAM_API_KEY"
	}
	return ""
}

// ResolvedBaseURL returns the chat completion base URL for the provider.
func (i InferenceConfig) ResolvedBaseURL() string {
	if base := strings.TrimSpace(i.BaseURL); base != "" {
		return base
	}
	switch i.Provider {
	case ProviderGroq:
		return groqBaseURL
	case ProviderOpenAI:
		return openAIBaseURL
	default:
		return ""
	}
}

// ResolvedModel returns the configured model or the provider default.
func (i InferenceConfig) ResolvedModel() string {
	if model := strings.TrimSpace(i.Model); model != "" {
		return model
	}
	switch i.Provider {
	case ProviderGroq:
		return "llama-3.3-70b-versatile"
	default:
		return "gpt-4o-mini"
	}
}

// ResolvedAPIKeyEnv names the environment variable holding the provider key.
func (i InferenceConfig) ResolvedAPIKeyEnv() string {
	if env := strings.TrimSpace(i.APIKeyEnv); env != "" {
		return env
	}
	switch i.Provider {
	case ProviderGroq:
		return "GROQ_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// ResolvedBaseURL returns the speech endpoint base URL.
func (s SynthesisConfig) ResolvedBaseURL() string {
	if base := strings.TrimSpace(s.BaseURL); base != "" {
		return base
	}
	return openAIBaseURL
}

// ResolvedAPIKeyEnv names the environment variable holding the speech key.
func (s SynthesisConfig) ResolvedAPIKeyEnv() string {
	if env := strings.TrimSpace(s.APIKeyEnv); env != "" {
		return env
	}
	return "OPENAI_API_KEY"
}
