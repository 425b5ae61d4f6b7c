package utils

import "strings"

func TruncateString(str string, borderSizeToKeep int) string {
	if len(str) <= 2*borderSizeToKeep {
		return str
	}
	return str[:borderSizeToKeep] + "..." + str[len(str)-borderSizeToKeep:]
}

// MaskAddress renders a hex address keeping the "0x" prefix plus the first and the last four characters, e.g.
// 0x1234...abcd.
func MaskAddress(address string) string {
	if !strings.HasPrefix(address, "0x") || len(address) <= 12 {
		return TruncateString(address, 4)
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// ContainsAny returns true if the message contains any of the provided substrings. Empty substrings are skipped.
func ContainsAny(message string, substrings ...string) bool {
	for _, s := range substrings {
		if s == "" {
			continue
		}
		if strings.Contains(message, s) {
			return true
		}
	}
	return false
}

// SplitAndTrim splits the string on any of the provided separators, trims the resulting parts and drops the empty ones.
func SplitAndTrim(str string, separators ...rune) []string {
	parts := strings.FieldsFunc(str, func(r rune) bool {
		for _, sep := range separators {
			if r == sep {
				return true
			}
		}
		return false
	})

	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
