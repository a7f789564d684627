package records

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SafeFilename reduces name to an ASCII file name that cannot escape its directory.
// Accents are folded ("Résumé.pdf" becomes "Resume.pdf") and whitespace becomes underscores.
// The result may be empty.
func SafeFilename(name string) string {
	name = norm.NFKD.String(name)
	var b strings.Builder
	for _, r := range name {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

var recordIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidID reports whether id is usable as a record directory name.
func ValidID(id string) bool {
	return len(id) <= 128 && recordIDPattern.MatchString(id)
}
