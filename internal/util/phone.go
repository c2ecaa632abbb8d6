package util

import (
	"regexp"
	"strings"
)

// JIDSuffix is the domain suffix of a WhatsApp-addressable identifier.
const JIDSuffix = "@s.whatsapp.net"

// DefaultCountryCode is the Brazilian DDI.
const DefaultCountryCode = "55"

var nonDigit = regexp.MustCompile(`\D+`)

// digits strips formatting and a leading country code if already present.
func digits(raw, countryCode string) string {
	s := nonDigit.ReplaceAllString(strings.TrimSpace(raw), "")
	if strings.HasPrefix(s, countryCode) {
		s = s[len(countryCode):]
	}
	return s
}

// FormatPhoneJID normalizes a raw phone number into the canonical WhatsApp
// JID. Brazilian numbers are special-cased: a 10-digit number (DDD + legacy
// 8-digit) gets the mobile prefix digit 9 inserted after the DDD; an
// 11-digit number already carries it.
func FormatPhoneJID(raw, countryCode string) string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	n := digits(raw, countryCode)

	if countryCode == DefaultCountryCode {
		switch len(n) {
		case 11:
			return countryCode + n + JIDSuffix
		case 10:
			return countryCode + n[:2] + "9" + n[2:] + JIDSuffix
		}
	}

	return countryCode + n + JIDSuffix
}

// PhoneJIDVariations returns every candidate JID a raw number may resolve
// to. Brazilian mobile numbers are ambiguous between the 10-digit legacy and
// the 11-digit modern form, so both the with-9 and without-9 candidates are
// produced and the caller probes each against the gateway's existence check.
// Probing only one form silently misses roughly half of stored contacts.
func PhoneJIDVariations(raw, countryCode string) []string {
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	n := digits(raw, countryCode)

	if countryCode == DefaultCountryCode && len(n) >= 10 {
		ddd, rest := n[:2], n[2:]
		bare := rest
		if strings.HasPrefix(rest, "9") {
			bare = rest[1:]
		}
		return []string{
			countryCode + ddd + "9" + bare + JIDSuffix,
			countryCode + ddd + bare + JIDSuffix,
		}
	}

	return []string{countryCode + n + JIDSuffix}
}
