// Package contact turns the heterogeneous stored contact representations
// (JSON arrays, delimited text, single scalars, bare numbers) into clean,
// de-duplicated email and phone lists.
package contact

import (
	"encoding/json"
	"strconv"
	"strings"
)

// sentinels are placeholder values that mean "no data" and are removed at
// every stage. Matched case-insensitively after trimming.
var sentinels = map[string]bool{
	"":                   true,
	"null":               true,
	"none":               true,
	"no data":            true,
	"no email found":     true,
	"no phone available": true,
}

func isSentinel(s string) bool {
	return sentinels[strings.ToLower(strings.TrimSpace(s))]
}

// ParseEmails extracts a canonical email list from any stored shape.
// It never fails: unparseable input yields an empty, non-nil slice.
func ParseEmails(raw any) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, v := range flatten(raw) {
		v = strings.TrimSpace(v)
		if isSentinel(v) || !strings.Contains(v, "@") {
			continue
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ParsePhones extracts a canonical formatted phone list from any stored
// shape. Same contract as ParseEmails: never fails, never returns nil.
func ParsePhones(raw any) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, v := range flatten(raw) {
		v = strings.TrimSpace(v)
		if isSentinel(v) {
			continue
		}
		formatted, ok := FormatPhone(v)
		if !ok {
			continue
		}
		if !seen[formatted] {
			seen[formatted] = true
			out = append(out, formatted)
		}
	}
	return out
}

// flatten reduces any stored representation to a flat list of strings.
// Arrays are walked recursively since upstream scrapers occasionally nest
// them; numbers are rendered without scientific notation.
func flatten(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		var out []string
		for _, el := range v {
			out = append(out, flatten(el)...)
		}
		return out
	case json.Number:
		return []string{v.String()}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case float32:
		return []string{strconv.FormatFloat(float64(v), 'f', -1, 32)}
	case int:
		return []string{strconv.Itoa(v)}
	case int64:
		return []string{strconv.FormatInt(v, 10)}
	case uint64:
		return []string{strconv.FormatUint(v, 10)}
	case string:
		return flattenString(v)
	default:
		return nil
	}
}

// flattenString tries JSON first (arrays and quoted scalars show up as
// text in several store columns), then falls back to comma/newline
// splitting. Numbers are decoded with UseNumber so phone values larger
// than 2^53 keep every digit.
func flattenString(s string) []string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "\"") {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var parsed any
		if err := dec.Decode(&parsed); err == nil {
			if s, isString := parsed.(string); isString {
				return []string{s}
			}
			return flatten(parsed)
		}
	}

	split := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ';'
	})
	out := make([]string, 0, len(split))
	for _, part := range split {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
