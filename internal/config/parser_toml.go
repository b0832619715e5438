package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

func parseTOML(content string, base Config) (Config, []Warning, error) {
	var payload filePayload
	md, err := toml.Decode(content, &payload)
	if err != nil {
		var parseErr toml.ParseError
		if errors.As(err, &parseErr) {
			return Config{}, nil, fmt.Errorf("line %d: %w", parseErr.Position.Line, err)
		}
		return Config{}, nil, err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return Config{}, nil, fmt.Errorf("unknown key %s", strings.Join(keys, ", "))
	}

	return finish(payload, base)
}
