package mandate

import (
	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
)

// Resolution tells which form field a logical datum resolves to
type Resolution struct {
	Datum      string   `json:"datum"`
	Candidates []string `json:"candidates"`
	Field      string   `json:"field,omitempty"`
	Found      bool     `json:"found"`
}

// SlotCoverage counts how many boxes of a decomposed value exist in the form
type SlotCoverage struct {
	Datum   string   `json:"datum"`
	Present int      `json:"present"`
	Total   int      `json:"total"`
	Missing []string `json:"missing,omitempty"`
}

// Report describes how a template matches the mapping table
type Report struct {
	Fields       []acroform.Field `json:"fields"`
	Resolutions  []Resolution     `json:"resolutions"`
	Slots        []SlotCoverage   `json:"slots"`
	VINPositions int              `json:"vinPositionsDiscovered"`
	Placeholders []string         `json:"siretPlaceholders,omitempty"`
}

// Inspect resolves every datum of m against fields without writing anything
func Inspect(fields []acroform.Field, m Mapping) Report {
	available := make(map[string]struct{}, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Kind == acroform.KindOther {
			continue
		}
		available[f.Name] = struct{}{}
		names = append(names, f.Name)
	}

	data := []struct {
		label      string
		candidates []string
	}{
		{"Nom", m.LastName},
		{"Prénom", m.FirstName},
		{"Email", m.Email},
		{"Téléphone", m.Phone},
		{"Numéro de voie", m.StreetNumber},
		{"Type de voie", m.StreetType},
		{"Nom de voie", m.StreetName},
		{"Adresse", m.FullAddress},
		{"Code postal", m.PostalCode},
		{"Ville", m.City},
		{"Marque", m.Marque},
		{"SIRET", m.Siret},
		{"VIN", m.VIN},
		{"Immatriculation", m.Registration},
		{"Date", m.Date},
		{"Démarche", m.Demarche},
	}

	r := Report{Fields: fields}
	for _, d := range data {
		name, ok := ResolveField(d.candidates, available)
		r.Resolutions = append(r.Resolutions, Resolution{
			Datum:      d.label,
			Candidates: d.candidates,
			Field:      name,
			Found:      ok,
		})
	}

	slots := []struct {
		label string
		names []string
	}{
		{"VIN", m.VINSlots},
		{"Date", m.DateSlots},
		{"Code postal", m.PostalCodeSlots},
		{"Ville", m.CitySlots},
	}
	for _, sl := range slots {
		cov := SlotCoverage{Datum: sl.label, Total: len(sl.names)}
		for _, n := range sl.names {
			if _, ok := available[n]; ok {
				cov.Present++
			} else {
				cov.Missing = append(cov.Missing, n)
			}
		}
		r.Slots = append(r.Slots, cov)
	}

	r.VINPositions = len(DiscoverVINFields(names, m.VINFieldPatterns))

	for _, f := range fields {
		if f.Kind == acroform.KindOther {
			continue
		}
		if LooksLikeSiretName(f.Name) || LooksLikePlaceholder(f.Value) {
			r.Placeholders = append(r.Placeholders, f.Name)
		}
	}
	return r
}
