package mandate

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
)

// Form is the mutable view of a template's fields used while filling.
// *acroform.Form implements it.
type Form interface {
	Fields() []acroform.Field
	SetText(name, value string) error
	Text(name string) (string, bool)
}

// session is one filling pass over a form. The set of field names is fixed for the
// lifetime of a template, so it is computed once.
type session struct {
	form  Form
	names map[string]struct{}
	log   *zap.Logger
}

func newSession(form Form, log *zap.Logger) *session {
	names := make(map[string]struct{})
	for _, f := range form.Fields() {
		if f.Kind != acroform.KindOther {
			names[f.Name] = struct{}{}
		}
	}
	return &session{form: form, names: names, log: log}
}

func (s *session) has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// write stores the uppercased value into name
func (s *session) write(name, value string) bool {
	if !s.has(name) {
		return false
	}
	value = strings.ToUpper(value)
	if err := s.form.SetText(name, value); err != nil {
		s.log.Debug("mandate.field.write_failed", zap.String("field", name), zap.Error(err))
		return false
	}
	s.log.Debug("mandate.field.written", zap.String("field", name), zap.String("value", value))
	return true
}

// writeVerified writes and reads the value back
func (s *session) writeVerified(name, value string) bool {
	if !s.write(name, value) {
		return false
	}
	got, ok := s.form.Text(name)
	if !ok || got != strings.ToUpper(value) {
		s.log.Debug("mandate.field.readback_mismatch",
			zap.String("field", name), zap.String("want", value), zap.String("got", got))
		return false
	}
	return true
}

// fillCandidates writes value into the first candidate present in the form
func (s *session) fillCandidates(label string, candidates []string, value string) FillResult {
	if value == "" {
		return failed(label + " : valeur absente")
	}
	name, ok := ResolveField(candidates, s.names)
	if !ok {
		s.log.Debug("mandate.field.unresolved", zap.String("datum", label), zap.Strings("candidates", candidates))
		return failed(fmt.Sprintf("%s : aucun champ parmi [%s]", label, strings.Join(candidates, ", ")))
	}
	if !s.write(name, value) {
		return failed(fmt.Sprintf("%s : écriture refusée par %s", label, name))
	}
	return succeeded(name)
}

// fillSlots writes one character per slot and returns the filled positions
func (s *session) fillSlots(slots []string, value string, verify bool) (FillResult, []bool) {
	chars := []rune(value)
	filled := make([]bool, len(chars))
	var res FillResult
	for i, c := range chars {
		if i >= len(slots) {
			break
		}
		var ok bool
		if verify {
			ok = s.writeVerified(slots[i], string(c))
		} else {
			ok = s.write(slots[i], string(c))
		}
		if ok {
			filled[i] = true
			res = res.Merge(succeeded(slots[i]))
		}
	}
	return res, filled
}

func countTrue(bb []bool) int {
	n := 0
	for _, b := range bb {
		if b {
			n++
		}
	}
	return n
}
