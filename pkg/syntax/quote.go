package syntax

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Quote renders s as a double-quoted JavaScript string literal. JSON string
// syntax is a subset of JavaScript string syntax, and encoding/json already
// escapes U+2028 and U+2029.
func Quote(s string) string {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	// Encoding a string cannot fail.
	_ = enc.Encode(s) //nolint:errcheck // see above

	return strings.TrimSuffix(buf.String(), "\n")
}

// Unquote strips the surrounding quotes of a string literal and any stray
// spaces or tabs. Escape sequences are left untouched.
func Unquote(literal string) string {
	s := strings.Trim(literal, " \t")

	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = s[1 : len(s)-1]
		}
	}

	return strings.Trim(s, " \t")
}
