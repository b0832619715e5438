package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTOMLConfig(t *testing.T) {
	input := `
# lara config
clipboard_cmd = "wl-copy"

[audio]
input = "Elgato"

[recognizer]
backend = "deepgram"
model = "nova-3"

[inference]
provider = "groq"
temperature = 0.4

[output]
copy_reply = true

[vocab]
global = "core, team"

[vocab.sets.core]
boost = 14.0
phrases = ["Lara", "Hyprland"]

[vocab.sets.team]
boost = 18.0
phrases = ["Lara", "Riva"]
`

	cfg, warnings, err := Parse(input, Default())
	require.NoError(t, err)
	require.Equal(t, "Elgato", cfg.Audio.Input)
	require.Equal(t, BackendDeepgram, cfg.Recognizer.Backend)
	require.Equal(t, "DEEPGRAM_API_KEY", cfg.Recognizer.ResolvedAPIKeyEnv())
	require.Equal(t, "wss://api.deepgram.com/v1/listen", cfg.Recognizer.ResolvedEndpoint())
	require.Equal(t, ProviderGroq, cfg.Inference.Provider)
	require.Equal(t, "https://api.groq.com/openai/v1", cfg.Inference.ResolvedBaseURL())
	require.Equal(t, "GROQ_API_KEY", cfg.Inference.ResolvedAPIKeyEnv())
	require.Equal(t, 0.4, cfg.Inference.Temperature)
	require.True(t, cfg.Output.CopyReply)
	require.Equal(t, []string{"wl-copy"}, cfg.Clipboard.Argv)
	require.Equal(t, []string{"core", "team"}, cfg.Vocab.GlobalSets)
	require.NotEmpty(t, warnings)

	phrases, _, err := BuildSpeechPhrases(cfg)
	require.NoError(t, err)
	require.Len(t, phrases, 3)
	for _, p := range phrases {
		if p.Phrase == "Lara" {
			require.Equal(t, float32(18), p.Boost)
		}
	}
}

func TestParseTOMLGlobalAsArray(t *testing.T) {
	cfg, _, err := Parse(`
[vocab]
global = ["core"]

[vocab.sets.core]
phrases = ["one"]
`, Default())
	require.NoError(t, err)
	require.Equal(t, []string{"core"}, cfg.Vocab.GlobalSets)
}

func TestParseTOMLUnknownKeyFails(t *testing.T) {
	_, _, err := Parse("[paste]\nenable = true\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown key")
	require.Contains(t, err.Error(), "paste")
}

func TestParseTOMLLineNumberOnError(t *testing.T) {
	_, _, err := Parse("\n\nthis is bad", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseTOMLValidationRuns(t *testing.T) {
	_, _, err := Parse("[inference]\nprovider = \"custom\"\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "inference.base_url")
}

func TestParseEmptyContentUsesBase(t *testing.T) {
	cfg, _, err := Parse("   \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestStringListUnmarshalTOML(t *testing.T) {
	var list stringList
	require.NoError(t, list.UnmarshalTOML("a, b"))
	require.Equal(t, []string{"a", "b"}, []string(list))

	require.NoError(t, list.UnmarshalTOML([]any{"x", "y"}))
	require.Equal(t, []string{"x", "y"}, []string(list))

	require.Error(t, list.UnmarshalTOML([]any{"x", 1}))
	require.Error(t, list.UnmarshalTOML(12))
}
