package propertydata

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// Placeholder substrings the provider uses where real data is missing.
// Matching is case-insensitive substring containment.
var placeholders = []string{
	"NOT AVAILABLE",
	"AVAILABLE FROM DATA SOURCE",
}

// Candidate field paths into property[0], tried in order; the first
// non-empty, non-placeholder value wins. The provider has shipped owner
// data under several shapes over time.
var (
	ownerNamePaths = [][]string{
		{"assessment", "owner", "owner1", "fullname"},
		{"assessment", "owner", "owner1", "fullName"},
		{"assessment", "owner", "owner1", "lastname"},
		{"owner", "owner1", "fullname"},
		{"owner", "owner1", "fullName"},
	}
	mailingAddressPaths = [][]string{
		{"assessment", "owner", "mailingaddressoneline"},
		{"assessment", "owner", "mailingAddressOneLine"},
		{"assessment", "owner", "owner1", "mailingaddressoneline"},
		{"owner", "mailingaddressoneline"},
		{"owner", "mailingAddressOneLine"},
	}
)

// parseResponse interprets a 200 body. "SuccessWithoutResult" and a zero
// total are terminal no-match outcomes, not errors.
func parseResponse(body []byte) (*Result, error) {
	var envelope struct {
		Status struct {
			Msg   string `json:"msg"`
			Total int    `json:"total"`
		} `json:"status"`
		Property []map[string]any `json:"property"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "propertydata: parse response")
	}

	res := &Result{Raw: json.RawMessage(body)}

	if strings.EqualFold(envelope.Status.Msg, "SuccessWithoutResult") ||
		envelope.Status.Total == 0 || len(envelope.Property) == 0 {
		return res, nil
	}

	first := envelope.Property[0]
	res.Found = true
	res.OwnerName = firstUsable(first, ownerNamePaths)
	res.MailingAddress = firstUsable(first, mailingAddressPaths)
	return res, nil
}

func firstUsable(m map[string]any, paths [][]string) string {
	for _, path := range paths {
		if v := lookupPath(m, path); usable(v) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// lookupPath walks nested objects by key, case-insensitively at each hop.
func lookupPath(m map[string]any, path []string) string {
	cur := any(m)
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		next, ok := lookupKey(obj, key)
		if !ok {
			return ""
		}
		cur = next
	}
	s, _ := cur.(string)
	return s
}

func lookupKey(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func usable(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	upper := strings.ToUpper(v)
	for _, p := range placeholders {
		if strings.Contains(upper, p) {
			return false
		}
	}
	return true
}
