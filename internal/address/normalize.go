// Package address canonicalizes free-text property addresses for fuzzy
// matching and for the two-part form the external providers expect.
package address

import (
	"regexp"
	"strings"
)

// Normalized is the comparable form of a free-text address. It is derived
// per request and never persisted; the original text stays on the query.
type Normalized struct {
	StreetNumber string
	StreetToken  string // first significant street word, abbreviation-normalized
	City         string
	State        string // 2-letter, upper-cased
	Zip          string // 5-digit or empty
	Raw          string
}

// streetTypeAbbr maps full street-type words to the canonical short form.
// Both directions are comparable: short forms map to themselves.
var streetTypeAbbr = map[string]string{
	"avenue": "ave", "ave": "ave",
	"street": "st", "st": "st",
	"road": "rd", "rd": "rd",
	"drive": "dr", "dr": "dr",
	"boulevard": "blvd", "blvd": "blvd",
	"lane": "ln", "ln": "ln",
	"place": "pl", "pl": "pl",
	"court": "ct", "ct": "ct",
	"circle": "cir", "cir": "cir",
}

// directionals are skipped when locating the street-name token.
var directionals = map[string]bool{
	"n": true, "north": true,
	"s": true, "south": true,
	"e": true, "east": true,
	"w": true, "west": true,
}

// stateAbbrs is the set of US state (and DC) postal abbreviations.
var stateAbbrs = map[string]bool{
	"al": true, "ak": true, "az": true, "ar": true, "ca": true, "co": true,
	"ct": true, "de": true, "fl": true, "ga": true, "hi": true, "id": true,
	"il": true, "in": true, "ia": true, "ks": true, "ky": true, "la": true,
	"me": true, "md": true, "ma": true, "mi": true, "mn": true, "ms": true,
	"mo": true, "mt": true, "ne": true, "nv": true, "nh": true, "nj": true,
	"nm": true, "ny": true, "nc": true, "nd": true, "oh": true, "ok": true,
	"or": true, "pa": true, "ri": true, "sc": true, "sd": true, "tn": true,
	"tx": true, "ut": true, "vt": true, "va": true, "wa": true, "wv": true,
	"wi": true, "wy": true, "dc": true,
}

// isStateToken reports whether tok looks like a state abbreviation. Without
// a trailing ZIP the check is stricter: street-type shorthands that collide
// with state codes ("Ct", "La") are rejected since a bare 2-letter tail is
// far more often a street type than a state.
func isStateToken(tok string, zipFollows bool) bool {
	lower := strings.ToLower(tok)
	if !stateAbbrs[lower] {
		return false
	}
	if zipFollows {
		return true
	}
	if _, streetType := streetTypeAbbr[lower]; streetType {
		return false
	}
	return !directionals[lower]
}

var (
	leadingNumberRe = regexp.MustCompile(`^(\d+)\b`)
	multiSpaceRe    = regexp.MustCompile(`\s{2,}`)
	punctRe         = regexp.MustCompile(`[.,#]`)
	zipRe           = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	ordinalRe       = regexp.MustCompile(`(?i)\b(\d+)\s?(st|nd|rd|th)\b`)
)

// CanonicalToken returns the comparison form of a single address word:
// lower-cased, ordinal-collapsed, street types abbreviated.
func CanonicalToken(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if abbr, ok := streetTypeAbbr[w]; ok {
		return abbr
	}
	return w
}

// NormalizeOrdinals collapses ordinal street segments ("63Rd", "63 RD",
// "63rd") to the lower-case no-space form ("63rd").
func NormalizeOrdinals(s string) string {
	return ordinalRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := ordinalRe.FindStringSubmatch(m)
		return sub[1] + strings.ToLower(sub[2])
	})
}

// cleanLine lower-cases, strips punctuation, and collapses whitespace.
func cleanLine(s string) string {
	s = strings.ToLower(s)
	s = punctRe.ReplaceAllString(s, " ")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeForMatching canonicalizes an address into its comparable parts.
// It is deterministic and never fails: garbled input yields best-effort
// fields, with absence signaled by empty strings.
func NormalizeForMatching(raw string) Normalized {
	n := Normalized{Raw: raw}

	line := cleanLine(NormalizeOrdinals(raw))
	if line == "" {
		return n
	}

	if m := leadingNumberRe.FindStringSubmatch(line); m != nil {
		n.StreetNumber = m[1]
		line = strings.TrimSpace(line[len(m[1]):])
	}

	words := strings.Fields(line)
	for i, w := range words {
		if i == 0 && directionals[w] && len(words) > 1 {
			continue
		}
		n.StreetToken = CanonicalToken(w)
		break
	}

	n.City, n.State, n.Zip = tailComponents(words)
	return n
}

// tailComponents scans tokens from the right for a ZIP, then a state token
// immediately before it, then a city token before that.
func tailComponents(words []string) (city, state, zip string) {
	i := len(words) - 1
	if i < 0 {
		return "", "", ""
	}
	if zipRe.MatchString(words[i]) {
		zip = words[i][:5]
		i--
	}
	if i >= 1 && isStateToken(words[i], zip != "") {
		state = strings.ToUpper(words[i])
		i--
		if i >= 1 {
			city = words[i]
		}
	}
	return city, state, zip
}

// Comparable returns the whole-line comparison form of an address: ordinal
// segments collapsed, punctuation stripped, lower-cased, single-spaced.
// Suitable for substring containment checks between two addresses.
func Comparable(raw string) string {
	return cleanLine(NormalizeOrdinals(raw))
}

// Tokens returns the significant comparison words of an address: length > 2
// once canonicalized, with directional and street-type stop words removed.
func Tokens(raw string) []string {
	line := cleanLine(NormalizeOrdinals(raw))
	var out []string
	for _, w := range strings.Fields(line) {
		t := CanonicalToken(w)
		if len(t) <= 2 || StopWord(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// StopWord reports whether a canonical token carries no matching signal
// (directionals and street types).
func StopWord(tok string) bool {
	if directionals[tok] {
		return true
	}
	if _, ok := streetTypeAbbr[tok]; ok {
		return true
	}
	switch tok {
	case "apt", "unit", "ste", "suite":
		return true
	}
	return false
}

// ContainsWord reports whether text contains needle bounded by
// non-alphanumeric characters or string edges. Both arguments should
// already be lower-cased.
func ContainsWord(text, needle string) bool {
	if needle == "" || text == "" {
		return false
	}
	start := 0
	for {
		idx := strings.Index(text[start:], needle)
		if idx < 0 {
			return false
		}
		abs := start + idx
		end := abs + len(needle)
		leftOK := abs == 0 || !isAlphaNum(text[abs-1])
		rightOK := end == len(text) || !isAlphaNum(text[end])
		if leftOK && rightOK {
			return true
		}
		start = abs + 1
	}
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
