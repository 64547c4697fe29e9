package registration

import (
	"fmt"
	"strings"
	"time"
)

// Normalizer canonicalizes claimed identity fields before comparison. Every
// normalizer is total: malformed input normalizes to the empty string, which
// can never match anything.
type Normalizer struct {
	// CountryCode replaces a leading "0" when canonicalizing phone numbers.
	// The upstream deployment assumes UK numbers, so "44" is the default.
	CountryCode string
}

func NewNormalizer(countryCode string) *Normalizer {
	if countryCode == "" {
		countryCode = "44"
	}
	return &Normalizer{CountryCode: countryCode}
}

func (n *Normalizer) Email(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (n *Normalizer) Name(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (n *Normalizer) EmployeeID(id string) string {
	return strings.TrimSpace(id)
}

func (n *Normalizer) Passcode(passcode string) string {
	return strings.TrimSpace(passcode)
}

func (n *Normalizer) Postcode(postcode string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(postcode), " ", ""))
}

// Phone canonicalizes to an E.164-like form: digits only, leading "0"
// replaced by the configured country code, "+" prefixed. Already-normalized
// input passes through unchanged.
func (n *Normalizer) Phone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	s := digits.String()
	if s == "" {
		return ""
	}

	if strings.HasPrefix(s, "0") {
		s = n.CountryCode + s[1:]
	}

	return "+" + s
}

var dateLayouts = []string{
	"2/1/2006",
	"2006-1-2",
	"2 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"02.01.2006",
}

// Date canonicalizes DD/MM/YYYY, YYYY-MM-DD and a handful of long calendar
// forms to "YYYY-MM-DD". Unparseable input yields "".
func (n *Normalizer) Date(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
		}
	}

	return ""
}
