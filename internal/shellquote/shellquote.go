// Package shellquote splits and quotes command lines the way a POSIX shell
// would, without running one.
package shellquote

import (
	"errors"
	"strings"
)

// ErrUnterminated reports an opening quote without its closing partner.
var ErrUnterminated = errors.New("unterminated quote")

// Quote wraps s in single quotes, escaping any internal single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteIfNeeded quotes strings that are likely to be interpreted by a shell.
func QuoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t#[]()|!\"'$;&<>*?\\") {
		return Quote(s)
	}
	return s
}

// Join quotes each argument as needed and joins them with spaces.
func Join(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		parts[i] = QuoteIfNeeded(a)
	}
	return strings.Join(parts, " ")
}

// Split breaks a command line into arguments. Single quotes keep their
// content literally; double quotes allow backslash escapes of \ " and $;
// outside quotes a backslash escapes the next character.
func Split(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			if quote == '"' && r != '\\' && r != '"' && r != '$' {
				cur.WriteRune('\\')
			}
			cur.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inArg = true
		case quote == '"':
			if r == '"' {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t' || r == '\n':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 || escaped {
		return nil, ErrUnterminated
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
