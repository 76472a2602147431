package phone

import (
	"strings"
	"testing"
)

func TestNormalizeAR(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		areaCode string
		want     string
		ok       bool
	}{
		{"full international", "+54-9-387-4475398", "387", "+5493874475398", true},
		{"country without mobile prefix", "+54-387-4509527", "387", "+5493874509527", true},
		{"bare ten digits", "3874875200", "387", "+5493874875200", true},
		{"hyphenated area", "3624-262302", "387", "+5493624262302", true},
		{"local mobile with 15", "154475398", "387", "+5493874475398", true},
		{"bare local number", "4250995", "387", "+5493874250995", true},
		{"leading zero area", "0343-4890284", "387", "+5493434890284", true},
		{"too short", "12345", "387", "", false},
		{"nine digit remainder", "123456789", "387", "", false},
		{"no digits", "Email", "387", "", false},
		{"empty", "", "387", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeAR(tc.input, tc.areaCode)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNormalizeARIdempotent(t *testing.T) {
	inputs := []string{
		"+54-9-387-4475398",
		"3874875200",
		"154475398",
		"0343-4890284",
	}

	for _, input := range inputs {
		first, ok := NormalizeAR(input, "387")
		if !ok {
			t.Fatalf("expected %q to normalize", input)
		}
		second, ok := NormalizeAR(first, "387")
		if !ok {
			t.Fatalf("expected %q to re-normalize", first)
		}
		if first != second {
			t.Fatalf("expected idempotent result for %q: %q != %q", input, first, second)
		}
	}
}

func TestNormalizeARShape(t *testing.T) {
	inputs := []string{
		"+54-9-387-4475398",
		"3874875200",
		"4250995",
		"154475398",
	}

	for _, input := range inputs {
		got, ok := NormalizeAR(input, "387")
		if !ok {
			t.Fatalf("expected %q to normalize", input)
		}
		if !strings.HasPrefix(got, "+549") {
			t.Fatalf("expected +549 prefix, got %q", got)
		}
		if len(got) != 14 { // "+" plus 13 digits
			t.Fatalf("expected 13 digits after +, got %q (%d chars)", got, len(got))
		}
	}

	// Remainders under ten digits must be rejected, never padded into a
	// short +549 number.
	if got, ok := NormalizeAR("123456789", "387"); ok {
		t.Fatalf("expected nine-digit remainder to be rejected, got %q", got)
	}
}

func TestSplitAndNormalizeAR(t *testing.T) {
	got := SplitAndNormalizeAR("0343-4890284 / 0343-15467426", "387")
	if len(got) != 2 {
		t.Fatalf("expected 2 phones, got %d: %v", len(got), got)
	}
	if got[0] == got[1] {
		t.Fatalf("expected distinct phones, got %v", got)
	}
	for _, p := range got {
		if !strings.HasPrefix(p, "+549343") {
			t.Fatalf("expected +549343 prefix, got %q", p)
		}
	}
}

func TestSplitAndNormalizeARAreaUpgrade(t *testing.T) {
	got := SplitAndNormalizeAR("03445-482402/1664199", "387")
	if len(got) != 2 {
		t.Fatalf("expected 2 phones, got %d: %v", len(got), got)
	}
	if got[0] != "+5493445482402" {
		t.Fatalf("expected +5493445482402, got %q", got[0])
	}
	// The bare local number inherits the area code taken from the first token.
	if !strings.HasPrefix(got[1], "+549344") {
		t.Fatalf("expected +549344 prefix, got %q", got[1])
	}
}

func TestSplitAndNormalizeARDedup(t *testing.T) {
	got := SplitAndNormalizeAR("4250995 / 4250995", "387")
	if len(got) != 1 {
		t.Fatalf("expected 1 phone after dedup, got %d: %v", len(got), got)
	}

	seen := make(map[string]bool)
	for _, p := range SplitAndNormalizeAR("0343-4890284 / 3434890284 / 0343-15467426", "387") {
		if seen[p] {
			t.Fatalf("duplicate phone %q in output", p)
		}
		seen[p] = true
	}
}

func TestSplitAndNormalizeARLandlineMobilePair(t *testing.T) {
	got := SplitAndNormalizeAR("0343-4890284-154-556677", "387")
	if len(got) != 2 {
		t.Fatalf("expected 2 phones, got %d: %v", len(got), got)
	}
	if got[0] != "+5493434890284" {
		t.Fatalf("expected landline +5493434890284, got %q", got[0])
	}
	if got[1] != "+5493434556677" {
		t.Fatalf("expected mobile +5493434556677, got %q", got[1])
	}
}

func TestSplitAndNormalizeARSpacedAreaCode(t *testing.T) {
	got := SplitAndNormalizeAR("0343 4890284", "387")
	if len(got) != 1 {
		t.Fatalf("expected 1 phone, got %d: %v", len(got), got)
	}
	if got[0] != "+5493434890284" {
		t.Fatalf("expected +5493434890284, got %q", got[0])
	}
}
