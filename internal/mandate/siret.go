package mandate

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
)

// fillSiret writes the SIRET when supplied. Otherwise it erases the template's SIRET
// placeholder wherever it can be found; fields in protected are never touched.
func fillSiret(s *session, m Mapping, siret string, protected map[string]struct{}) FillResult {
	if siret != "" {
		res := s.fillCandidates("SIRET", m.Siret, siret)
		if !res.OK() {
			s.log.Warn("SIRET could not be placed on the mandate", zap.Strings("candidates", m.Siret))
		}
		return res
	}

	var failures FillResult
	unerasable := make(map[string]bool)
	fail := func(name string) {
		unerasable[name] = true
		failures = failures.Merge(failed("SIRET : impossible d'effacer " + name))
	}

	scan := func(match func(f acroform.Field) bool) int {
		blanked := 0
		for _, f := range s.form.Fields() {
			if !s.has(f.Name) {
				continue
			}
			if _, skip := protected[f.Name]; skip || unerasable[f.Name] {
				continue
			}
			if isBlank(f.Value) || !match(f) {
				continue
			}
			if s.blank(f.Name, f.Value) {
				blanked++
			} else {
				fail(f.Name)
			}
		}
		return blanked
	}

	strategies := []Strategy{
		{
			Name: "fixed-name",
			Run: func(s *session) (FillResult, bool) {
				found := false
				for _, name := range m.Siret {
					resolved, ok := ResolveField([]string{name}, s.names)
					if !ok {
						continue
					}
					if _, skip := protected[resolved]; skip {
						continue
					}
					found = true
					current, _ := s.form.Text(resolved)
					if !isBlank(current) && !s.blank(resolved, current) {
						fail(resolved)
					}
				}
				return FillResult{}, found
			},
		},
		{
			Name:   "heuristic-scan",
			Always: true,
			Run: func(s *session) (FillResult, bool) {
				n := scan(func(f acroform.Field) bool {
					return LooksLikeSiretName(f.Name) || LooksLikePlaceholder(f.Value)
				})
				return FillResult{}, n > 0
			},
		},
		{
			Name: "unrestricted-scan",
			Run: func(s *session) (FillResult, bool) {
				scan(func(f acroform.Field) bool {
					return looksLikeAnyNumberCue(f.Value)
				})
				return FillResult{}, true
			},
		},
	}

	runChain(s, "siret-scrub", strategies)
	return failures
}

// blank empties a field, substituting spaces when the empty write does not hold
func (s *session) blank(name, original string) bool {
	if err := s.form.SetText(name, ""); err == nil {
		if got, ok := s.form.Text(name); ok && got == "" {
			s.log.Debug("mandate.siret.blanked", zap.String("field", name), zap.String("was", original))
			return true
		}
	}

	spaces := strings.Repeat(" ", max(1, utf8.RuneCountInString(original)))
	if err := s.form.SetText(name, spaces); err != nil {
		return false
	}
	got, ok := s.form.Text(name)
	if !ok || !isBlank(got) {
		return false
	}
	s.log.Debug("mandate.siret.blanked_with_spaces", zap.String("field", name), zap.String("was", original))
	return true
}

func isBlank(s string) bool {
	return strings.TrimLeft(s, " ") == ""
}
