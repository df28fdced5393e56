package roster

import (
	"fmt"
	"regexp"
	"strings"
)

// PhoneKey derives the identity key a phone number is matched on.
type PhoneKey func(phone string) string

var phoneDigitsRe = regexp.MustCompile(`\d+`)

// ExactPhone matches phones byte for byte, so "(11) 98765-4321" and "11987654321"
// are two different clients.
func ExactPhone(phone string) string {
	return phone
}

// NormalizedPhone keeps digits only, so formatting differences collapse to one client.
func NormalizedPhone(phone string) string {
	return strings.Join(phoneDigitsRe.FindAllString(phone, -1), "")
}

const (
	MatchExact      = "exact"
	MatchNormalized = "normalized"
)

// PhoneKeyFor resolves the PHONE_MATCH setting.
func PhoneKeyFor(mode string) (PhoneKey, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", MatchExact:
		return ExactPhone, nil
	case MatchNormalized:
		return NormalizedPhone, nil
	default:
		return nil, fmt.Errorf("roster: unknown phone match mode %q", mode)
	}
}
