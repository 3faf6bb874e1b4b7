package handler

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const maxDisplayName = 200

// displayName prepares client-supplied text for the log: NFC, printable
// runes only, bounded length.
func displayName(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, s)
	if r := []rune(s); len(r) > maxDisplayName {
		s = string(r[:maxDisplayName]) + "…"
	}
	return s
}
