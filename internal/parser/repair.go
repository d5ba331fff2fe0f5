package parser

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

var errNotObject = errors.New("not a JSON object")

// unmarshalLenient tries a strict parse, then one parse after light repair.
func unmarshalLenient(s string, dest interface{}) error {
	err := json.Unmarshal([]byte(s), dest)
	if err == nil {
		return nil
	}
	repaired := repairJSON(s)
	if repaired == s {
		return err
	}
	return json.Unmarshal([]byte(repaired), dest)
}

// repairJSON drops trailing commas, strips control characters and escapes
// raw newlines and tabs inside string literals.
func repairJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	inString := false
	escaped := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			switch {
			case escaped:
				escaped = false
				b.WriteRune(r)
			case r == '\\':
				escaped = true
				b.WriteRune(r)
			case r == '"':
				inString = false
				b.WriteRune(r)
			case r == '\n':
				b.WriteString(`\n`)
			case r == '\r':
				b.WriteString(`\r`)
			case r == '\t':
				b.WriteString(`\t`)
			case r < 0x20 || r == 0x7f:
				// dropped
			default:
				b.WriteRune(r)
			}
			continue
		}

		switch {
		case r == '"':
			inString = true
			b.WriteRune(r)
		case r == ',':
			// a trailing comma goes together with the whitespace before the bracket
			if j := skipSpace(runes, i+1); j < len(runes) && (runes[j] == ']' || runes[j] == '}') {
				i = j - 1
				continue
			}
			b.WriteRune(r)
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}
