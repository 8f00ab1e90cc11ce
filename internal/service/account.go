package service

import (
	"regexp"
	"strings"
)

var (
	accountHyphenated = regexp.MustCompile(`(?i)^([RSU])-(\d+)$`)
	accountDigits     = regexp.MustCompile(`^\d+$`)
	accountCanonical  = regexp.MustCompile(`(?i)^[RSU]\d+$`)
)

// NormalizeAccount maps a raw cadastral account identifier, as captured in
// free-text form answers, to its canonical <R|S|U><digits> shape. The function
// is total: unrecognized input is prefixed with "U" rather than rejected,
// because upstream data entry is inconsistent.
func NormalizeAccount(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "U0"
	}

	if m := accountHyphenated.FindStringSubmatch(trimmed); m != nil {
		return strings.ToUpper(m[1]) + m[2]
	}

	if accountDigits.MatchString(trimmed) {
		return "U" + trimmed
	}

	if accountCanonical.MatchString(trimmed) {
		return strings.ToUpper(trimmed)
	}

	return "U" + trimmed
}
