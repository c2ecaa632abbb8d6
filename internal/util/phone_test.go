package util

import (
	"reflect"
	"testing"
)

func TestFormatPhoneJID(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"eleven digits passthrough", "11987654321", "5511987654321@s.whatsapp.net"},
		{"ten digits gains mobile nine", "1187654321", "5511987654321@s.whatsapp.net"},
		{"already has country code", "5511987654321", "5511987654321@s.whatsapp.net"},
		{"formatted input", "(11) 98765-4321", "5511987654321@s.whatsapp.net"},
		{"whitespace", "  11 98765 4321  ", "5511987654321@s.whatsapp.net"},
		{"odd length passthrough", "123456789", "55123456789@s.whatsapp.net"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatPhoneJID(tc.raw, "55"); got != tc.want {
				t.Fatalf("FormatPhoneJID(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestFormatPhoneJIDDefaultCountryCode(t *testing.T) {
	if got := FormatPhoneJID("1187654321", ""); got != "5511987654321@s.whatsapp.net" {
		t.Fatalf("empty country code should default to 55, got %q", got)
	}
}

func TestFormatPhoneJIDNonBrazilian(t *testing.T) {
	// no 9-insertion outside the Brazilian DDI
	if got := FormatPhoneJID("2025550123", "1"); got != "12025550123@s.whatsapp.net" {
		t.Fatalf("got %q", got)
	}
}

func TestPhoneJIDVariations(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{
			"eleven digit produces both forms",
			"11987654321",
			[]string{"5511987654321@s.whatsapp.net", "551187654321@s.whatsapp.net"},
		},
		{
			"ten digit produces both forms",
			"1187654321",
			[]string{"5511987654321@s.whatsapp.net", "551187654321@s.whatsapp.net"},
		},
		{
			"with country code prefix",
			"5511987654321",
			[]string{"5511987654321@s.whatsapp.net", "551187654321@s.whatsapp.net"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PhoneJIDVariations(tc.raw, "55")
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("PhoneJIDVariations(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestPhoneJIDVariationsWith9FormFirst(t *testing.T) {
	// the with-9 candidate is probed first; verification takes the first
	// confirmed variation as canonical
	got := PhoneJIDVariations("2187654321", "55")
	if len(got) != 2 {
		t.Fatalf("want 2 variations, got %v", got)
	}
	if got[0] != "5521987654321@s.whatsapp.net" {
		t.Fatalf("with-9 form must come first, got %v", got)
	}
}

func TestPhoneJIDVariationsShortNumberSingle(t *testing.T) {
	got := PhoneJIDVariations("12345", "55")
	if len(got) != 1 || got[0] != "5512345@s.whatsapp.net" {
		t.Fatalf("short numbers get a single candidate, got %v", got)
	}
}

func TestPhoneJIDVariationsNonBrazilian(t *testing.T) {
	got := PhoneJIDVariations("2025550123", "1")
	if len(got) != 1 || got[0] != "12025550123@s.whatsapp.net" {
		t.Fatalf("non-Brazilian numbers get a single candidate, got %v", got)
	}
}
