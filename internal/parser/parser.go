// Package parser turns model-generated text into raw recommendations.
//
// The input is whatever a generative provider returned: a bare JSON array,
// an array inside a fenced code block, an object wrapping the array under
// some conventional key, or any of those with prose around it and minor
// syntax damage. ParseAIResponse never fails; text it cannot recover yields
// an empty list.
package parser

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"flickpick-discovery-service/internal/model"

	"github.com/rs/zerolog/log"
)

var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")

// wrapperKeys are tried in order when the response is an object.
var wrapperKeys = []string{
	"recommendations",
	"results",
	"items",
	"data",
	"movies",
	"shows",
	"titles",
	"suggestions",
	"list",
}

const maxUnwrapDepth = 3

// ParseAIResponse extracts every usable recommendation from text.
func ParseAIResponse(text string) []model.RawRecommendation {
	elements, ok := extractElements(text)
	if !ok {
		log.Warn().Int("size", len(text)).Msg("AI response could not be parsed")
		return []model.RawRecommendation{}
	}

	recs := make([]model.RawRecommendation, 0, len(elements))
	for _, el := range elements {
		if rec, ok := normalizeElement(el); ok {
			recs = append(recs, rec)
		}
	}

	if dropped := len(elements) - len(recs); dropped > 0 {
		log.Debug().Int("kept", len(recs)).Int("dropped", dropped).Msg("AI response items dropped")
	}
	return recs
}

// extractElements runs the ordered recovery attempts and stops at the first
// one that yields an array.
func extractElements(text string) ([]json.RawMessage, bool) {
	body := stripFence(strings.TrimSpace(text))
	if body == "" {
		return nil, false
	}

	if strings.HasPrefix(body, "[") {
		if els, ok := decodeArray(body); ok {
			return els, true
		}
	}
	if strings.HasPrefix(body, "{") {
		if els, ok := decodeObject(body, 0); ok {
			return els, true
		}
	}
	// prose around the payload: try whichever bracket opens first
	obj, arr := strings.IndexByte(body, '{'), strings.IndexByte(body, '[')
	if obj >= 0 && (arr < 0 || obj < arr) {
		if els, ok := scanSpans(body, '{', '}', func(span string) ([]json.RawMessage, bool) {
			return decodeObject(span, 0)
		}); ok {
			return els, true
		}
	}
	return scanSpans(body, '[', ']', decodeArray)
}

// maxSpanAttempts bounds scanSpans on long prose full of brackets
const maxSpanAttempts = 8

// scanSpans decodes successive bracketed spans until one yields objects or
// strings, so an aside like "[updated]" or "[1]" before the payload is skipped.
func scanSpans(s string, open, close byte, decode func(string) ([]json.RawMessage, bool)) ([]json.RawMessage, bool) {
	for attempt := 0; attempt < maxSpanAttempts; attempt++ {
		span, ok := firstSpan(s, open, close)
		if !ok {
			break
		}
		if els, ok := decode(span); ok && hasCandidates(els) {
			return els, true
		}
		s = s[strings.IndexByte(s, open)+1:]
	}
	return nil, false
}

func stripFence(text string) string {
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	// an unterminated fence still carries a usable body
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], "[{") {
			text = text[nl+1:]
		}
	}
	return strings.TrimSpace(text)
}

func decodeArray(s string) ([]json.RawMessage, bool) {
	var els []json.RawMessage
	if err := unmarshalLenient(s, &els); err != nil {
		return nil, false
	}
	return els, true
}

func decodeObject(s string, depth int) ([]json.RawMessage, bool) {
	var raw json.RawMessage
	if err := unmarshalLenient(s, &raw); err != nil {
		return nil, false
	}
	return unwrap(raw, depth)
}

// unwrap finds the recommendation array inside an object: first by
// conventional wrapper key, then by the first array-valued property.
func unwrap(raw json.RawMessage, depth int) ([]json.RawMessage, bool) {
	if depth > maxUnwrapDepth {
		return nil, false
	}
	fields, err := orderedFields(raw)
	if err != nil {
		return nil, false
	}

	for _, key := range wrapperKeys {
		for _, f := range fields {
			if !strings.EqualFold(f.key, key) {
				continue
			}
			if els, ok := asArray(f.value); ok {
				return els, true
			}
			if isObject(f.value) {
				if els, ok := unwrap(f.value, depth+1); ok {
					return els, true
				}
			}
		}
	}

	for _, f := range fields {
		if els, ok := asArray(f.value); ok {
			return els, true
		}
	}

	return nil, false
}

type field struct {
	key   string
	value json.RawMessage
}

// orderedFields decodes a JSON object keeping its key order.
func orderedFields(raw json.RawMessage) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	var fields []field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, field{key: key, value: value})
	}
	return fields, nil
}

func asArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var els []json.RawMessage
	if err := json.Unmarshal(trimmed, &els); err != nil {
		return nil, false
	}
	return els, true
}

func hasCandidates(els []json.RawMessage) bool {
	for _, el := range els {
		trimmed := bytes.TrimSpace(el)
		if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '"') {
			return true
		}
	}
	return false
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// firstSpan returns the first balanced open...close span, skipping
// brackets inside string literals. An unbalanced span runs to the last
// closing bracket.
func firstSpan(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	end := strings.LastIndexByte(s, close)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
