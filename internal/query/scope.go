package query

import "strings"

// Keywords is the allow-list of financial-mathematics terms that put a
// message in scope.
var Keywords = []string{
	"appello", "esercizio", "rendita", "ammortamento", "francese", "italiano",
	"rata", "tasso", "capitalizzazione", "attualizzazione", "bond", "cedola",
	"durata", "valore attuale", "valore futuro", "yield", "t.i.r.",
}

// InScope reports whether text belongs to the course domain: either it looks
// like an exam reference (date and exercise tokens together) or it mentions
// one of the Keywords.
func InScope(text string) bool {
	t := strings.ToLower(text)
	if HasDateToken(t) && HasExerciseToken(t) {
		return true
	}
	for _, k := range Keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
