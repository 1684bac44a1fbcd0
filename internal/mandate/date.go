package mandate

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout       = "02/01/2006"
	dateDigits       = 8
	postalCodeDigits = 5
)

// FormatDate returns the DD/MM/YYYY date and its 8-digit form
func FormatDate(t time.Time) (string, string) {
	formatted := t.Format(dateLayout)
	return formatted, strings.ReplaceAll(formatted, "/", "")
}

// fillDate writes the generation date one digit per slot, each write verified by
// reading it back, then falls back to the whole date in a single field.
func fillDate(s *session, m Mapping, now time.Time) FillResult {
	formatted, digits := FormatDate(now)

	strategies := []Strategy{
		{
			Name: "fixed-slots",
			Run: func(s *session) (FillResult, bool) {
				res, filled := s.fillSlots(m.DateSlots, digits, true)
				return res, countTrue(filled) == dateDigits
			},
		},
		{
			Name: "single-field",
			Run: func(s *session) (FillResult, bool) {
				name, ok := ResolveField(m.Date, s.names)
				if !ok || !s.write(name, formatted) {
					return FillResult{}, false
				}
				return succeeded(name), true
			},
		},
	}

	res, ok := runChain(s, "date", strategies)
	if !ok {
		res = res.Merge(failed(fmt.Sprintf("Date : aucun champ parmi [%s]", strings.Join(m.Date, ", "))))
	}
	return res
}
