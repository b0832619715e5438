package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Words that only mean something to a shell. Commands are exec'd directly,
// so seeing one unquoted is always a configuration mistake.
var shellOperators = map[string]bool{
	"|": true, "||": true, "&": true, "&&": true, ";": true,
	">": true, ">>": true, "<": true, "2>": true, "2>&1": true,
}

type word struct {
	text   string
	quoted bool
}

// parseCommand turns a configured command line such as clipboard_cmd into
// argv. Quotes and backslashes group words, "" yields an empty argument, a
// leading "#" disables the command, and an unquoted program may start with
// ~ or $VAR.
func parseCommand(raw string) (CommandConfig, error) {
	words, err := splitWords(raw)
	if err != nil {
		return CommandConfig{}, err
	}
	if len(words) == 0 {
		return CommandConfig{Raw: raw}, nil
	}

	argv := make([]string, 0, len(words))
	for i, w := range words {
		if !w.quoted && shellOperators[w.text] {
			return CommandConfig{}, fmt.Errorf("shell operator %q is not supported; wrap the pipeline in sh -c", w.text)
		}
		if i == 0 && !w.quoted {
			w.text = expandProgram(w.text)
		}
		argv = append(argv, w.text)
	}
	if argv[0] == "" {
		return CommandConfig{}, fmt.Errorf("empty program in command %q", raw)
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

func mustParseCommand(raw string) CommandConfig {
	cmd, err := parseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}

func splitWords(input string) ([]word, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		words   []word
		current strings.Builder
		started bool
		quoted  bool
		quote   rune
		escape  bool
	)

	flush := func() {
		if !started {
			return
		}
		words = append(words, word{text: current.String(), quoted: quoted})
		current.Reset()
		started, quoted = false, false
	}

	for _, r := range input {
		switch {
		case escape:
			current.WriteRune(r)
			escape = false
		case r == '\\' && quote != '\'':
			escape, started, quoted = true, true, true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote, started, quoted = r, true, true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if escape {
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}

	flush()
	return words, nil
}

func expandProgram(program string) string {
	if program == "~" || strings.HasPrefix(program, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			program = filepath.Join(home, strings.TrimPrefix(program, "~"))
		}
	}
	return os.ExpandEnv(program)
}
