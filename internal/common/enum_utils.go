// Package common provides small shared helpers for naming, enums and lenient
// value parsing.
package common

import (
	"fmt"
	"strings"
)

// EnumStringMap represents a mapping from enum values to string representations.
type EnumStringMap map[int]string

// FormatEnum formats an enum value using the provided mapping.
func FormatEnum(value int, mapping EnumStringMap) string {
	if str, exists := mapping[value]; exists {
		return str
	}
	return fmt.Sprintf("unknown(%d)", value)
}

// ParseEnum finds the enum value whose string form equals s, ignoring case
// and surrounding whitespace.
func ParseEnum(s string, mapping EnumStringMap) (int, bool) {
	s = strings.TrimSpace(s)
	for value, str := range mapping {
		if strings.EqualFold(str, s) {
			return value, true
		}
	}
	return 0, false
}
