package contract

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify derives a legal table slug from an upstream table name, e.g.
// "Café Orders" -> "cafe-orders". Diacritics are stripped, letters are
// lowercased, and every other run of characters collapses to one hyphen.
// An InputError is returned when nothing legal remains.
func Slugify(name string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		return "", &InputError{Field: "table", Value: name, Reason: err.Error()}
	}

	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := sb.String()
	if err := CheckTable(slug); err != nil {
		return "", &InputError{Field: "table", Value: name, Reason: "no slug characters remain"}
	}
	return slug, nil
}
