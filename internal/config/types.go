// Package config resolves, parses, validates, and defaults lara configuration.
package config

// Config is the fully materialized runtime configuration used by lara.
type Config struct {
	Audio      AudioConfig
	Recognizer RecognizerConfig
	Inference  InferenceConfig
	Synthesis  SynthesisConfig
	Indicator  IndicatorConfig
	Output     OutputConfig
	Clipboard  CommandConfig
	Vocab      VocabConfig
	Metrics    MetricsConfig
	Debug      DebugConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// RecognizerConfig selects and tunes the streaming speech-to-text backend.
type RecognizerConfig struct {
	Backend              string
	LanguageCode         string
	Model                string
	Endpoint             string
	Insecure             bool
	APIKeyEnv            string
	AutomaticPunctuation bool
	// FinalizeTimeoutMS bounds how long a stopped recognition stream may flush
	// before it is cut off.
	FinalizeTimeoutMS int
}

// InferenceConfig controls the chat completion request made for each turn.
type InferenceConfig struct {
	Provider     string
	BaseURL      string
	Model        string
	APIKeyEnv    string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	TimeoutMS    int
}

// SynthesisConfig controls spoken replies.
type SynthesisConfig struct {
	Enable     bool
	BaseURL    string
	APIKeyEnv  string
	Model      string
	Voice      string
	Speed      float64
	SampleRate int
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	ErrorTimeoutMS int
}

// OutputConfig controls what happens with assistant replies besides speaking them.
type OutputConfig struct {
	CopyReply bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// VocabConfig controls enabled speech phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	Textfile string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump    bool
	EnableResponseDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to recognizer adapters.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
