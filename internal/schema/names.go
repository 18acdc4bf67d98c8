package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sanitize reduces name to ASCII letters.
//
// Letters with diacritics are folded to their base letter first ("Größe"
// becomes "Groe", "café" becomes "cafe"); digits, symbols and every other
// rune are dropped. The result may be empty.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range norm.NFD.String(name) {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
