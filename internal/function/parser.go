package function

import (
	"strings"
)

// ParseParameters splits a raw parameter string on commas that are not
// enclosed in single quotes. Surrounding whitespace is dropped and quoted
// parameters lose their quotes, so "'Hello ', world" yields
// ["Hello ", "world"].
func ParseParameters(raw string) ([]string, error) {
	params := []string{}
	if strings.TrimSpace(raw) == "" {
		return params, nil
	}

	var current strings.Builder
	inQuote := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			current.WriteByte(c)
		case c == ',' && !inQuote:
			params = append(params, unquote(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if inQuote {
		return nil, usageError("unbalanced quotes in parameters %q", raw)
	}
	params = append(params, unquote(current.String()))

	return params, nil
}

func unquote(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= 2 && strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'") {
		return token[1 : len(token)-1]
	}
	return token
}

// ReplaceFunctionsInString evaluates every function call embedded in s and
// substitutes its result. With enableQuoting each result is wrapped in single
// quotes. Text that merely looks like a prefix without a call is kept.
func (r *Registry) ReplaceFunctionsInString(s string, enableQuoting bool, resolveParams func(string) (string, error)) (string, error) {
	libs := r.Libraries()
	if !containsAnyPrefix(s, libs) {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		lib := prefixAt(s, i, libs)
		if lib == nil {
			b.WriteByte(s[i])
			i++
			continue
		}

		end, ok := callEnd(s, i+len(lib.Prefix))
		if !ok {
			b.WriteByte(s[i])
			i++
			continue
		}

		value, err := r.Resolve(s[i:end], resolveParams)
		if err != nil {
			return "", err
		}
		if enableQuoting {
			b.WriteString("'" + value + "'")
		} else {
			b.WriteString(value)
		}
		i = end
	}

	return b.String(), nil
}

func containsAnyPrefix(s string, libs []*Library) bool {
	for _, lib := range libs {
		if strings.Contains(s, lib.Prefix) {
			return true
		}
	}
	return false
}

func prefixAt(s string, i int, libs []*Library) *Library {
	if i > 0 && isIdentChar(s[i-1]) {
		return nil
	}
	for _, lib := range libs {
		if strings.HasPrefix(s[i:], lib.Prefix) {
			return lib
		}
	}
	return nil
}

// callEnd returns the index just past the closing bracket of the call whose
// function name starts at start.
func callEnd(s string, start int) (int, bool) {
	j := start
	for j < len(s) && isIdentChar(s[j]) {
		j++
	}
	if j == start || j >= len(s) || s[j] != '(' {
		return 0, false
	}

	depth := 0
	inQuote := false
	for k := j; k < len(s); k++ {
		switch c := s[k]; {
		case c == '\'':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return k + 1, true
			}
		}
	}
	return 0, false
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
