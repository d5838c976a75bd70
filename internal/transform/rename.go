package transform

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// separatorReplacer unifies the separators that appear in source column
// names to a single underscore.
var separatorReplacer = strings.NewReplacer(" ", "_", "-", "_", "/", "_")

// CanonicalName canonicalizes an output column name: diacritics are folded
// away, the name is lowercased, and spaces, hyphens, and slashes become
// underscores.
func CanonicalName(name string) string {
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, name); err == nil {
		name = folded
	}
	return separatorReplacer.Replace(strings.ToLower(name))
}
