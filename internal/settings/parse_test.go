package settings

import (
	"encoding/json"
	"testing"
)

func TestParseBool(t *testing.T) {
	cases := []struct {
		raw   string
		value bool
		ok    bool
	}{
		{`true`, true, true},
		{`false`, false, true},
		{`"yes"`, true, true},
		{`"off"`, false, true},
		{`1`, true, true},
		{`0`, false, true},
		{`"maybe"`, false, false},
		{`2`, false, false},
		{``, false, false},
	}
	for _, tc := range cases {
		value, ok := ParseBool(json.RawMessage(tc.raw))
		if value != tc.value || ok != tc.ok {
			t.Fatalf("ParseBool(%q) = %v,%v, expected %v,%v", tc.raw, value, ok, tc.value, tc.ok)
		}
	}
}

func TestParseNonNegativeInt(t *testing.T) {
	cases := []struct {
		raw   string
		value int
		ok    bool
	}{
		{`30`, 30, true},
		{`0`, 0, true},
		{`"45"`, 45, true},
		{`60.0`, 60, true},
		{`-1`, -1, false},
		{`"-5"`, -5, false},
		{`1.5`, 0, false},
		{`"abc"`, 0, false},
		{``, 0, false},
	}
	for _, tc := range cases {
		value, ok := ParseNonNegativeInt(json.RawMessage(tc.raw))
		if value != tc.value || ok != tc.ok {
			t.Fatalf("ParseNonNegativeInt(%q) = %d,%v, expected %d,%v", tc.raw, value, ok, tc.value, tc.ok)
		}
	}
}

func TestParseString(t *testing.T) {
	if value, ok := ParseString(json.RawMessage(`" redis:6379 "`)); !ok || value != "redis:6379" {
		t.Fatalf("expected trimmed string, got %q,%v", value, ok)
	}
	if _, ok := ParseString(json.RawMessage(`42`)); ok {
		t.Fatalf("expected number rejected as string")
	}
}
