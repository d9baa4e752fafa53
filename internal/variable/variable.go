// Package variable recognizes variable expressions of the form ${name} and
// substitutes them inside arbitrary strings.
package variable

import (
	"fmt"
	"strings"
)

const (
	// Prefix opens a variable expression.
	Prefix = "${"
	// Suffix closes a variable expression.
	Suffix = "}"
)

// Resolver looks up the value of a variable by its bare name.
type Resolver func(name string) (string, error)

// IsVariableName reports whether token is a complete variable expression
// such as "${user}".
func IsVariableName(token string) bool {
	if token == "" {
		return false
	}
	return strings.HasPrefix(token, Prefix) && strings.HasSuffix(token, Suffix)
}

// CutOffVariablesPrefix strips the ${...} decoration from a variable
// expression. Anything that is not a variable expression is returned as is.
func CutOffVariablesPrefix(token string) string {
	if IsVariableName(token) {
		return token[len(Prefix) : len(token)-len(Suffix)]
	}
	return token
}

// ReplaceVariablesInString replaces every ${name} occurrence in s with the
// value returned by resolve. With enableQuoting the substituted values are
// wrapped in single quotes, which is how nested function parameters are
// protected from further parsing.
func ReplaceVariablesInString(s string, resolve Resolver, enableQuoting bool) (string, error) {
	if !strings.Contains(s, Prefix) {
		return s, nil
	}

	var b strings.Builder
	rest := s
	for {
		start := strings.Index(rest, Prefix)
		if start < 0 {
			b.WriteString(rest)
			break
		}

		end := strings.Index(rest[start+len(Prefix):], Suffix)
		if end < 0 {
			return "", fmt.Errorf("missing closing %q for variable expression in %q", Suffix, s)
		}
		end += start + len(Prefix)

		name := rest[start+len(Prefix) : end]
		value, err := resolve(name)
		if err != nil {
			return "", err
		}

		b.WriteString(rest[:start])
		if enableQuoting {
			b.WriteString("'" + value + "'")
		} else {
			b.WriteString(value)
		}
		rest = rest[end+len(Suffix):]
	}

	return b.String(), nil
}

// ExtractNames returns the variable names referenced in s, in order of
// appearance and without duplicates.
func ExtractNames(s string) []string {
	var names []string
	seen := make(map[string]bool)

	rest := s
	for {
		start := strings.Index(rest, Prefix)
		if start < 0 {
			return names
		}
		end := strings.Index(rest[start+len(Prefix):], Suffix)
		if end < 0 {
			return names
		}
		end += start + len(Prefix)

		name := rest[start+len(Prefix) : end]
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		rest = rest[end+len(Suffix):]
	}
}
