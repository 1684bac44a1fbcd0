package mandate

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
)

// fakeForm is an in-memory Form. Fields keep insertion order.
type fakeForm struct {
	order  []string
	kinds  map[string]acroform.Kind
	values map[string]string
	// refuse lists fields whose writes fail
	refuse map[string]bool
	// sticky lists fields that silently keep their value when set to ""
	sticky map[string]bool
	// garble lists fields that store something other than what was written
	garble map[string]bool
	writes []string
}

func newFakeForm(names ...string) *fakeForm {
	f := &fakeForm{
		kinds:  make(map[string]acroform.Kind),
		values: make(map[string]string),
		refuse: make(map[string]bool),
		sticky: make(map[string]bool),
		garble: make(map[string]bool),
	}
	for _, n := range names {
		f.add(n, acroform.KindText, "")
	}
	return f
}

func (f *fakeForm) add(name string, kind acroform.Kind, value string) *fakeForm {
	if _, ok := f.kinds[name]; !ok {
		f.order = append(f.order, name)
	}
	f.kinds[name] = kind
	f.values[name] = value
	return f
}

func (f *fakeForm) Fields() []acroform.Field {
	out := make([]acroform.Field, 0, len(f.order))
	for _, n := range f.order {
		v := f.values[n]
		if f.kinds[n] == acroform.KindOther {
			v = acroform.NonTextValue
		}
		out = append(out, acroform.Field{Name: n, Kind: f.kinds[n], Value: v})
	}
	return out
}

func (f *fakeForm) SetText(name, value string) error {
	kind, ok := f.kinds[name]
	if !ok {
		return acroform.ErrFieldNotFound
	}
	if kind == acroform.KindOther {
		return acroform.ErrNotTextField
	}
	if f.refuse[name] {
		return errors.New("read-only field")
	}
	f.writes = append(f.writes, name)
	if value == "" && f.sticky[name] {
		return nil
	}
	if f.garble[name] {
		value += "?"
	}
	f.values[name] = value
	return nil
}

func (f *fakeForm) Text(name string) (string, bool) {
	kind, ok := f.kinds[name]
	if !ok || kind == acroform.KindOther {
		return "", false
	}
	return f.values[name], true
}

func (f *fakeForm) Bytes() ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

// templateForm exposes every fixed slot of the default mapping
func templateForm(extra ...string) *fakeForm {
	m := DefaultMapping()
	f := newFakeForm()
	for _, group := range [][]string{m.VINSlots, m.DateSlots, m.PostalCodeSlots, m.CitySlots} {
		for _, n := range group {
			f.add(n, acroform.KindText, "")
		}
	}
	for _, n := range extra {
		f.add(n, acroform.KindText, "")
	}
	return f
}

func observedLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func validRequest() Request {
	return Request{
		VIN:                "WVWZZZ1KZAW123456",
		RegistrationNumber: "AB-123-CD",
		DemarcheType:       "changement-titulaire",
	}
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
