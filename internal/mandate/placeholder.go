package mandate

import (
	"regexp"
	"strings"
)

var numeroRun = regexp.MustCompile(`N°\s*N{3,}`)

// LooksLikePlaceholder reports whether a field value is the SIRET fill-in cue of
// the template: explanatory copy ("N° SIRET, le cas échéant") or a run of "N"
// characters standing for blank digits. It may match legitimate values made of
// many capital N; that risk is accepted.
func LooksLikePlaceholder(value string) bool {
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)
	for _, phrase := range []string{"cas échéant", "cas echeant", "n° siret", "n°siret", "no siret"} {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	if strings.Count(value, "N") >= 4 {
		return true
	}
	trimmed := strings.TrimSpace(value)
	if len(trimmed) >= 5 && strings.Trim(trimmed, "N") == "" {
		return true
	}
	return numeroRun.MatchString(value)
}

// LooksLikeSiretName reports whether a field name designates a company number slot
func LooksLikeSiretName(name string) bool {
	n := nameSepRepl.Replace(strings.ToLower(name))
	if strings.Contains(n, "siret") {
		return true
	}
	for _, s := range []string{"numero entreprise", "numéro entreprise", "num entreprise"} {
		if strings.Contains(n, s) {
			return true
		}
	}
	return false
}

// looksLikeAnyNumberCue is the permissive last-pass test: any "N°" or four "N"
func looksLikeAnyNumberCue(value string) bool {
	return strings.Contains(value, "N°") || strings.Count(value, "N") >= 4
}
