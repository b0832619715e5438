package config

import "strings"

// Parse reads configuration content as JSONC or TOML.
//
// JSONC is selected when the first non-whitespace character is `{`.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		return parseJSONC(content, base)
	}
	return parseTOML(content, base)
}

// finish applies a decoded payload onto base and validates the result.
func finish(payload filePayload, base Config) (Config, []Warning, error) {
	cfg := cloneConfig(base)
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

// cloneConfig copies the reference-typed fields so applyTo never mutates base.
func cloneConfig(base Config) Config {
	cfg := base
	cfg.Clipboard.Argv = append([]string(nil), base.Clipboard.Argv...)
	cfg.Vocab.GlobalSets = append([]string(nil), base.Vocab.GlobalSets...)
	cfg.Vocab.Sets = make(map[string]VocabSet, len(base.Vocab.Sets))
	for name, set := range base.Vocab.Sets {
		cfg.Vocab.Sets[name] = set
	}
	return cfg
}
