package answer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Common Croatian plural endings across cases. Many of them also occur in
// singular forms (e.g. -e, -a), so this is a hint only.
var pluralEnding = regexp.MustCompile(`(ovi|evi|ima|ama|ovima|evima|ova|eva|ice|ke|ge|he)$`)

// LooksPlural guesses whether word is a plural form. Short words are never
// reported as plural because the endings are too ambiguous there. The result
// is a UI hint and plays no part in answer checking.
func LooksPlural(word string) bool {
	w := normalize(word)
	if utf8.RuneCountInString(w) < 4 || strings.Contains(w, " ") {
		return false
	}
	return pluralEnding.MatchString(w)
}
