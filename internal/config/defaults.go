package config

const defaultSystemPrompt = "You are a helpful voice assistant. Answer in one to three short sentences of plain speech. Do not use markdown, lists, or emoji."

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Recognizer: RecognizerConfig{
			Backend:              BackendGoogle,
			LanguageCode:         "en-US",
			AutomaticPunctuation: true,
			FinalizeTimeoutMS:    2000,
		},
		Inference: InferenceConfig{
			Provider:     ProviderOpenAI,
			SystemPrompt: defaultSystemPrompt,
			Temperature:  0.7,
			MaxTokens:    256,
			TimeoutMS:    30000,
		},
		Synthesis: SynthesisConfig{
			Enable:     true,
			Model:      "tts-1",
			Voice:      "alloy",
			Speed:      1.0,
			SampleRate: 24000,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "lara-indicator",
			SoundEnable:    true,
			ErrorTimeoutMS: 2400,
		},
		Output:    OutputConfig{CopyReply: false},
		Clipboard: mustParseCommand(clipboard),
		Vocab: VocabConfig{
			GlobalSets: nil,
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		Debug: DebugConfig{},
	}
}
