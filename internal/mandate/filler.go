package mandate

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Filler writes a request into the fields of a template form
type Filler struct {
	mapping Mapping
	log     *zap.Logger
	now     func() time.Time
}

// NewFiller creates a filler. A nil logger disables diagnostics.
func NewFiller(mapping Mapping, log *zap.Logger) *Filler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Filler{mapping: mapping, log: log, now: time.Now}
}

// WithClock replaces the clock used for the mandate date
func (f *Filler) WithClock(now func() time.Time) *Filler {
	c := *f
	c.now = now
	return &c
}

// Fill validates req and writes every logical datum into form. Placement failures
// are reported in the result and never abort the pass; only an invalid request
// returns an error.
func (f *Filler) Fill(form Form, req Request) (FillResult, error) {
	if err := req.Validate(); err != nil {
		return FillResult{}, err
	}
	r := req.Normalized()
	m := f.mapping

	s := newSession(form, f.log)
	if ce := f.log.Check(zap.DebugLevel, "mandate.fields.discovered"); ce != nil {
		fields := form.Fields()
		names := make([]string, 0, len(fields))
		for _, fd := range fields {
			names = append(names, fmt.Sprintf("%s [%s] = %q", fd.Name, fd.Kind, fd.Value))
		}
		ce.Write(zap.Int("count", len(fields)), zap.Strings("fields", names))
	}

	res := s.fillCandidates("Nom", m.LastName, r.LastName).
		Merge(s.fillCandidates("Prénom", m.FirstName, r.FirstName)).
		Merge(s.fillCandidates("Email", m.Email, r.Email)).
		Merge(s.fillCandidates("Téléphone", m.Phone, r.Phone)).
		Merge(fillAddress(s, m, r)).
		Merge(fillPostalCode(s, m, r.PostalCode)).
		Merge(fillCity(s, m, r.City)).
		Merge(s.fillCandidates("Marque", m.Marque, r.Marque)).
		Merge(s.fillCandidates("Immatriculation", m.Registration, r.RegistrationNumber)).
		Merge(s.fillCandidates("Démarche", m.Demarche, demarcheValue(r.DemarcheType))).
		Merge(fillVIN(s, m, r.VIN)).
		Merge(fillDate(s, m, f.now()))

	protected := make(map[string]struct{}, len(res.Written))
	for _, name := range res.Written {
		protected[name] = struct{}{}
	}
	res = res.Merge(fillSiret(s, m, r.Siret, protected))

	f.log.Debug("mandate.fill.done",
		zap.Int("success", res.SuccessCount),
		zap.Strings("failed", res.FailedLabels),
	)
	return res, nil
}

func demarcheValue(code string) string {
	if code == "" {
		return ""
	}
	return DemarcheLabel(code)
}

// fillAddress writes the three street parts when all are present and, separately,
// the combined address when supplied. Both may land on the same template.
func fillAddress(s *session, m Mapping, r Request) FillResult {
	var res FillResult
	attempted := false

	if r.HasStreetParts() {
		attempted = true
		res = res.Merge(s.fillCandidates("Numéro de voie", m.StreetNumber, r.StreetNumber)).
			Merge(s.fillCandidates("Type de voie", m.StreetType, r.StreetType)).
			Merge(s.fillCandidates("Nom de voie", m.StreetName, r.StreetName))
	}
	if r.Address != "" {
		attempted = true
		res = res.Merge(s.fillCandidates("Adresse", m.FullAddress, r.Address))
	}

	if !attempted {
		if r.StreetNumber != "" || r.StreetType != "" || r.StreetName != "" {
			return failed("Adresse : voie incomplète")
		}
		return failed("Adresse : valeur absente")
	}
	return res
}

// fillPostalCode writes one digit per box, or the whole code into a single field
// when none of the boxes exist
func fillPostalCode(s *session, m Mapping, code string) FillResult {
	if code == "" {
		return failed("Code postal : valeur absente")
	}

	chars := []rune(code)
	res, filled := s.fillSlots(m.PostalCodeSlots, code, false)
	n := countTrue(filled)

	switch {
	case n == 0:
		return s.fillCandidates("Code postal", m.PostalCode, code)
	case n < len(chars):
		return res.Merge(failed(fmt.Sprintf("Code postal : %d/%d positions remplies", n, len(chars))))
	case len(chars) != postalCodeDigits:
		return res.Merge(failed(fmt.Sprintf("Code postal : %d caractères au lieu de %d", len(chars), postalCodeDigits)))
	}
	return res
}

// fillCity writes the city into every known city box, overwriting placeholders
func fillCity(s *session, m Mapping, city string) FillResult {
	if city == "" {
		return failed("Ville : valeur absente")
	}

	var res FillResult
	for _, slot := range m.CitySlots {
		if s.write(slot, city) {
			res = res.Merge(succeeded(slot))
		}
	}
	if res.SuccessCount > 0 {
		return res
	}
	return s.fillCandidates("Ville", m.City, city)
}
