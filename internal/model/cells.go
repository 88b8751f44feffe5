package model

import (
	"strconv"
	"strings"
)

// ParseIntCell is the single total parser for externally-read numeric
// cells: raw text in, value or error out. Empty cells count as 0 and the
// unicode minus some sheet locales emit is normalized.
func ParseIntCell(raw string) (int, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "−", "-"))
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
