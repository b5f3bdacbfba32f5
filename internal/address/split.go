package address

import (
	"strings"
)

// ProviderAddress is the two-part form the external property APIs accept:
// Address1 is the street line, Address2 is "City, STATE ZIP". An empty
// Address2 signals that no city/state could be determined — callers treat
// that as a validation failure, not a default.
type ProviderAddress struct {
	Address1 string
	Address2 string
}

// DefaultAnchorCities is the last-resort city keyword list used when an
// address has no comma and no recognizable state/zip tail.
var DefaultAnchorCities = []string{"Chicago"}

// SplitForProvider splits a free-text address into the provider-ready
// two-part form. It tries, in order: comma-separated segments, a
// right-to-left scan for zip/state/city tokens, a known anchor-city
// substring, and finally the whole string as Address1 with an empty
// Address2. It never fails; ambiguity shows up as an empty Address2.
func SplitForProvider(raw string, anchorCities ...string) ProviderAddress {
	if len(anchorCities) == 0 {
		anchorCities = DefaultAnchorCities
	}

	line := strings.TrimSpace(NormalizeOrdinals(raw))
	if line == "" {
		return ProviderAddress{}
	}

	if strings.Contains(line, ",") {
		return splitOnCommas(line)
	}
	if pa, ok := splitOnTail(line); ok {
		return pa
	}
	if pa, ok := splitOnAnchor(line, anchorCities); ok {
		return pa
	}
	return ProviderAddress{Address1: abbreviateStreetTypes(line)}
}

// splitOnCommas handles "Street[, extra], City, State[, ZIP]" shapes,
// consuming state and zip from the right.
func splitOnCommas(line string) ProviderAddress {
	var segs []string
	for _, s := range strings.Split(line, ",") {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 1 {
		return ProviderAddress{Address1: abbreviateStreetTypes(segs[0])}
	}

	var city, state, zip string

	// The last segment may hold any of "ZIP", "STATE ZIP", or "City STATE ZIP".
	last := strings.Fields(segs[len(segs)-1])
	segs = segs[:len(segs)-1]
	if n := len(last); n > 0 && zipRe.MatchString(last[n-1]) {
		zip = last[n-1][:5]
		last = last[:n-1]
	}
	if n := len(last); n > 0 && isStateToken(last[n-1], zip != "") {
		state = strings.ToUpper(last[n-1])
		last = last[:n-1]
	}
	if len(last) > 0 {
		city = strings.Join(last, " ")
	}

	// "Street, City, IL, 62704": state sat in its own segment before the zip.
	if state == "" && len(segs) > 1 {
		if tail := segs[len(segs)-1]; isStateToken(tail, zip != "") {
			state = strings.ToUpper(tail)
			segs = segs[:len(segs)-1]
		}
	}
	if city == "" && len(segs) > 1 {
		city = segs[len(segs)-1]
		segs = segs[:len(segs)-1]
	}

	return assemble(strings.Join(segs, ", "), city, state, zip)
}

// splitOnTail handles comma-free "123 Main St Chicago IL 60601" shapes by
// scanning tokens from the right for zip, state, then city.
func splitOnTail(line string) (ProviderAddress, bool) {
	words := strings.Fields(line)
	i := len(words) - 1

	var city, state, zip string
	if i >= 0 && zipRe.MatchString(words[i]) {
		zip = words[i][:5]
		i--
	}
	if i >= 1 && isStateToken(words[i], zip != "") {
		state = strings.ToUpper(words[i])
		i--
	}
	if state == "" {
		return ProviderAddress{}, false
	}
	if i >= 1 {
		city = words[i]
		i--
	}
	return assemble(strings.Join(words[:i+1], " "), city, state, zip), true
}

// splitOnAnchor splits the line at a known city keyword.
func splitOnAnchor(line string, anchors []string) (ProviderAddress, bool) {
	lower := strings.ToLower(line)
	for _, anchor := range anchors {
		a := strings.ToLower(anchor)
		idx := strings.Index(lower, a)
		if idx <= 0 {
			continue
		}
		street := strings.TrimSpace(line[:idx])
		rest := strings.TrimSpace(line[idx:])
		if street == "" || rest == "" {
			continue
		}
		return ProviderAddress{
			Address1: abbreviateStreetTypes(street),
			Address2: rest,
		}, true
	}
	return ProviderAddress{}, false
}

func assemble(street, city, state, zip string) ProviderAddress {
	pa := ProviderAddress{Address1: abbreviateStreetTypes(street)}

	var b strings.Builder
	if city != "" {
		b.WriteString(city)
	}
	if state != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(state)
	}
	if zip != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(zip)
	}
	pa.Address2 = b.String()
	return pa
}

// abbreviateStreetTypes rewrites full street-type words to their short form
// ("Avenue" -> "Ave"), preserving the leading-letter case of the original.
func abbreviateStreetTypes(street string) string {
	words := strings.Fields(street)
	for i, w := range words {
		lower := strings.ToLower(w)
		abbr, ok := streetTypeAbbr[lower]
		if !ok || lower == abbr {
			continue
		}
		if w[0] >= 'A' && w[0] <= 'Z' {
			words[i] = strings.ToUpper(abbr[:1]) + abbr[1:]
		} else {
			words[i] = abbr
		}
	}
	return strings.Join(words, " ")
}
