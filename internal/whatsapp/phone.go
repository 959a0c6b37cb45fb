package whatsapp

import "strings"

// FormatPhone canonicalizes a recipient for the Cloud API: digits only, with the
// country code prepended exactly once.
//
// A trailing ".0" left by numeric spreadsheet cells is dropped, then every
// non-digit. FormatPhone(FormatPhone(p)) == FormatPhone(p).
func FormatPhone(raw, countryCode string) string {
	p := strings.TrimSpace(raw)
	p = strings.TrimSuffix(p, ".0")
	p = strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, p)

	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, countryCode) {
		p = countryCode + p
	}
	return p
}
