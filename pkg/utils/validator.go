package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	idPattern      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-]{0,63}$`)
	controlPattern = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)
)

// MaxTextLength bounds free text such as notes and actor names
const MaxTextLength = 4000

// ValidateID checks a request or dealer identifier taken from a URL or header
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid identifier: %q", id)
	}
	return nil
}

// SanitizeString removes control characters except newline and tab, then trims
func SanitizeString(s string) string {
	return strings.TrimSpace(controlPattern.ReplaceAllString(s, ""))
}

// ValidateText rejects free text that is too long or not UTF-8
func ValidateText(field, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%s is not valid UTF-8", field)
	}
	if utf8.RuneCountInString(s) > MaxTextLength {
		return fmt.Errorf("%s exceeds %d characters", field, MaxTextLength)
	}
	return nil
}
