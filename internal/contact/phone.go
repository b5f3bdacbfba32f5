package contact

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// minPhoneDigits is the fewest digits a value can carry and still be
// treated as a phone number once non-digit characters are stripped.
const minPhoneDigits = 7

const phoneRegion = "US"

// FormatPhone renders a raw phone value in canonical display form:
// 10 digits as "(NNN) NNN-NNNN", 11 digits with a leading 1 as
// "+1 (NNN) NNN-NNNN". Other lengths are validated with libphonenumber
// and pass through formatted internationally when valid; otherwise
// already-punctuated input passes through unchanged and bare input is
// reduced to its digits. ok is false when the value is not a phone at all.
func FormatPhone(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	digits := stripNonDigits(raw)
	if len(digits) < minPhoneDigits {
		return "", false
	}

	switch {
	case len(digits) == 10:
		return "(" + digits[0:3] + ") " + digits[3:6] + "-" + digits[6:10], true
	case len(digits) == 11 && digits[0] == '1':
		d := digits[1:]
		return "+1 (" + d[0:3] + ") " + d[3:6] + "-" + d[6:10], true
	}

	// Not a NANP shape. Let libphonenumber have a look before deciding
	// how to pass the value through.
	if num, err := phonenumbers.Parse(raw, phoneRegion); err == nil && phonenumbers.IsValidNumber(num) {
		return phonenumbers.Format(num, phonenumbers.INTERNATIONAL), true
	}
	if looksFormatted(raw) {
		return raw, true
	}
	return digits, true
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// looksFormatted reports whether the value already carries phone
// punctuation worth preserving.
func looksFormatted(s string) bool {
	return strings.ContainsAny(s, "()+-. ")
}
