package phone

import "strings"

// NormalizeAR canonicalizes an Argentine phone string into the WhatsApp
// international form "+549<area><local>". Inputs may carry country and area
// prefixes, the local mobile "15" indicator, hyphens, spaces, and slashes.
// Returns ("", false) when the input cannot be reconciled into a plausible
// number. The function is pure and never errors.
func NormalizeAR(raw, defaultAreaCode string) (string, bool) {
	digits := digitsOnly(raw)
	if digits == "" {
		return "", false
	}

	digits = strings.TrimPrefix(digits, "54")
	digits = strings.TrimPrefix(digits, "9")
	digits = strings.TrimPrefix(digits, "0")

	// The local "15" mobile indicator becomes the international "9" prefix.
	// Such numbers are local and need the area code prepended.
	if strings.HasPrefix(digits, "15") && len(digits) >= 9 {
		digits = digits[2:]
		if len(digits) <= 8 {
			digits = defaultAreaCode + digits
		}
	}

	// A 6-8 digit number is a bare local number.
	if len(digits) >= 6 && len(digits) <= 8 {
		digits = defaultAreaCode + digits
	}

	// A full number is area code + local, ten digits or more. Anything
	// shorter cannot be reconciled once the prefixes are gone.
	if len(digits) < 10 || len(digits) > 12 {
		return "", false
	}

	return "+549" + digits, true
}

// SplitAndNormalizeAR parses a free-text phone field that may hold several
// numbers separated by "/" or whitespace and returns the distinct canonical
// forms in first-occurrence order. The default area code is upgraded from the
// first token when that token carries its own area prefix, so bare local
// numbers later in the field inherit it.
func SplitAndNormalizeAR(raw, defaultAreaCode string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	areaCode := areaCodeFromFirstToken(trimmed, defaultAreaCode)

	joined := strings.NewReplacer(" / ", "/", "/ ", "/", " /", "/").Replace(trimmed)

	var phones []string
	seen := make(map[string]struct{})

	add := func(token string) {
		for _, candidate := range expandToken(token) {
			formatted, ok := NormalizeAR(candidate, areaCode)
			if !ok {
				continue
			}
			if _, dup := seen[formatted]; dup {
				continue
			}
			seen[formatted] = struct{}{}
			phones = append(phones, formatted)
		}
	}

	for _, part := range strings.Split(joined, "/") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		// Tokens starting with "+" keep their internal spacing
		// (e.g. "+54 9 387 4475398" is a single number).
		if !strings.Contains(part, " ") || strings.HasPrefix(part, "+") {
			add(part)
			continue
		}

		fields := strings.Fields(part)

		// "0343 4890284" is one number spoken as area code + local.
		if len(fields) == 2 && strings.HasPrefix(fields[0], "0") && len(digitsOnly(fields[0])) <= 5 {
			add(fields[0] + fields[1])
			continue
		}

		for _, sub := range fields {
			add(sub)
		}
	}

	return phones
}

// areaCodeFromFirstToken inspects the first token of the field and returns
// the area code to use for bare local numbers in the same field.
func areaCodeFromFirstToken(raw, fallback string) string {
	first := raw
	if idx := strings.Index(first, "/"); idx >= 0 {
		first = first[:idx]
	}
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return fallback
	}

	digits := digitsOnly(fields[0])
	switch {
	case len(digits) >= 10:
		digits = strings.TrimPrefix(digits, "0")
		return digits[:3]
	case strings.HasPrefix(digits, "0") && len(digits) >= 4:
		return digits[1:4]
	case strings.HasPrefix(digits, "3") && len(digits) >= 3:
		return digits[:3]
	}
	return fallback
}

// expandToken recognizes the "<landline>-154-<mobile>" convention where one
// token carries a landline and a 15-prefixed mobile number.
func expandToken(token string) []string {
	if idx := strings.Index(token, "-154-"); idx > 0 {
		landline := token[:idx]
		mobile := "154" + token[idx+len("-154-"):]
		return []string{landline, mobile}
	}
	return []string{token}
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
