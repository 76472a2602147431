package completion

import "testing"

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"prose around", `Here you go: {"a":{"b":2}} hope it helps`, `{"a":{"b":2}}`, true},
		{"braces in strings", `{"text":"has } brace"}`, `{"text":"has } brace"}`, true},
		{"escaped quote", `{"text":"say \"hi\" {now}"}`, `{"text":"say \"hi\" {now}"}`, true},
		{"no object", "just text", "", false},
		{"unbalanced", `{"a":1`, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tc.input)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
