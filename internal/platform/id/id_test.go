package id

import (
	"encoding/base32"
	"strings"
	"testing"
)

func decodeID(t *testing.T, value string) []byte {
	t.Helper()
	raw, err := encoding.DecodeString(strings.ToUpper(value))
	if err != nil {
		t.Fatalf("decode %q: %v", value, err)
	}
	return raw
}

func TestNewIDIsLowercaseUUIDv4(t *testing.T) {
	value, err := NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if !Valid(value) {
		t.Fatalf("Valid(%q) = false, want true", value)
	}
	raw := decodeID(t, value)
	if len(raw) != 16 {
		t.Fatalf("decoded length = %d, want 16", len(raw))
	}
	if version := raw[6] >> 4; version != 4 {
		t.Fatalf("version = %d, want 4", version)
	}
	if variant := raw[8] & 0xC0; variant != 0x80 {
		t.Fatalf("variant = 0x%X, want 0x80", variant)
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]bool, 64)
	for i := 0; i < 64; i++ {
		value, err := NewID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		if seen[value] {
			t.Fatalf("duplicate id %q", value)
		}
		seen[value] = true
	}
}

func TestValid(t *testing.T) {
	padded := base32.StdEncoding.EncodeToString(make([]byte, 16))
	tests := []struct {
		value string
		want  bool
	}{
		{value: "aaaaaaaaaaaaaaaaaaaaaaaaaa", want: true},
		{value: "", want: false},
		{value: "AAAAAAAAAAAAAAAAAAAAAAAAAA", want: false},
		{value: "aaaaaaaaaaaaaaaaaaaaaaaaa", want: false},
		{value: "aaaaaaaaaaaaaaaaaaaaaaaaa1", want: false},
		{value: strings.ToLower(padded), want: false},
		{value: "lead-1", want: false},
	}
	for _, tc := range tests {
		if got := Valid(tc.value); got != tc.want {
			t.Fatalf("Valid(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
