package textutil

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// reservedChars are rejected by at least one common filesystem.
const reservedChars = `<>:"/\|?*`

// printableASCII strips everything outside 0x20-0x7E. Invalid UTF-8 decodes
// to U+FFFD and is dropped along with the rest.
var printableASCII = runes.Remove(runes.Predicate(func(r rune) bool {
	return r < 0x20 || r > 0x7e
}))

// colonReplacer keeps "Show: Part One" readable as "Show - Part One". It
// must run before reserved characters are stripped, otherwise the colon is
// gone and the words are glued together.
var colonReplacer = strings.NewReplacer(": ", " - ")

// SanitizeTitle turns an arbitrary episode or podcast title into a
// filesystem-safe fragment. Non-ASCII characters are dropped rather than
// transliterated, so titles written entirely in another script may sanitize
// to the empty string.
func SanitizeTitle(title string) string {
	if title == "" {
		return ""
	}
	safe, _, _ := transform.String(printableASCII, title)
	safe = colonReplacer.Replace(safe)
	safe = strings.Map(func(r rune) rune {
		if isReserved(r) {
			return -1
		}
		return r
	}, safe)
	return strings.TrimSpace(safe)
}

func isReserved(r rune) bool {
	return strings.ContainsRune(reservedChars, r)
}
