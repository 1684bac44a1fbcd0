package mandate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mapping associates each logical datum with candidate form field names, in
// priority order. Slot lists name the one-character boxes of decomposed values.
type Mapping struct {
	LastName     []string `yaml:"last_name"`
	FirstName    []string `yaml:"first_name"`
	Email        []string `yaml:"email"`
	Phone        []string `yaml:"phone"`
	StreetNumber []string `yaml:"street_number"`
	StreetType   []string `yaml:"street_type"`
	StreetName   []string `yaml:"street_name"`
	FullAddress  []string `yaml:"full_address"`
	PostalCode   []string `yaml:"postal_code"`
	City         []string `yaml:"city"`
	Marque       []string `yaml:"marque"`
	Siret        []string `yaml:"siret"`
	VIN          []string `yaml:"vin"`
	Registration []string `yaml:"registration"`
	Date         []string `yaml:"date"`
	Demarche     []string `yaml:"demarche"`

	VINSlots         []string `yaml:"vin_slots"`
	VINFieldPatterns []string `yaml:"vin_field_patterns"`
	DateSlots        []string `yaml:"date_slots"`
	PostalCodeSlots  []string `yaml:"postal_code_slots"`
	CitySlots        []string `yaml:"city_slots"`
}

// DefaultMapping returns the field names of the current Mandat.pdf template
func DefaultMapping() Mapping {
	return Mapping{
		LastName:     []string{"text_1qmfn", "nom", "Nom", "NOM", "nom_prenom", "lastName"},
		FirstName:    []string{"text_2wlvs", "prenom", "Prenom", "Prénom", "PRENOM", "firstName"},
		Email:        []string{"text_3kzpd", "email", "Email", "mail", "courriel"},
		Phone:        []string{"text_4bqtr", "telephone", "Telephone", "Téléphone", "tel", "phone"},
		StreetNumber: []string{"text_5mxhe", "numero_voie", "numero", "N° voie", "streetNumber"},
		StreetType:   []string{"text_6cvnu", "type_voie", "Type de voie", "streetType"},
		StreetName:   []string{"text_7ydsa", "nom_voie", "libelle_voie", "Nom de la voie", "streetName"},
		FullAddress:  []string{"text_8fjok", "adresse", "Adresse", "adresse_complete", "address"},
		PostalCode:   []string{"code_postal", "Code postal", "cp", "postalCode"},
		City:         []string{"ville", "Ville", "commune", "Commune", "city"},
		Marque:       []string{"text_9ghwi", "marque", "Marque", "MARQUE"},
		Siret:        []string{"text_10siret", "siret", "SIRET", "N° SIRET", "numero_siret"},
		VIN:          []string{"vin", "VIN", "numero_vin", "numero_identification", "numero_serie"},
		Registration: []string{"text_47ltqb", "immatriculation", "Immatriculation", "numero_immatriculation", "registrationNumber"},
		Date:         []string{"text_date", "date", "Date", "fait_le", "date_signature"},
		Demarche:     []string{"text_48demr", "demarche", "Démarche", "type_demarche", "objet"},

		VINSlots: []string{
			"text_11wzjr", "text_12hyzg", "text_13pnjb", "text_14tffw", "text_15iswy",
			"text_16ulnw", "text_17tkyo", "text_18nxvb", "text_19rcza", "text_20qlwi",
			"text_21veok", "text_22mpfx", "text_23gasd", "text_24hyqc", "text_25zbtn",
			"text_26dubm", "text_27kzev",
		},
		VINFieldPatterns: []string{"vin", "vin_car", "chassis", "case_vin", "numero_serie", "ns"},
		DateSlots: []string{
			"text_36dpuo", "text_37fhly", "text_38pmqg", "text_39ewcz",
			"text_40plgr", "text_41krfy", "text_42kdui", "text_43waxn",
		},
		PostalCodeSlots: []string{"text_30jhzd", "text_31ahmv", "text_32lzyr", "text_33ciao", "text_34dpxu"},
		CitySlots:       []string{"text_29pzdx", "text_50kbae"},
	}
}

// LoadMapping reads a YAML file and overlays every non-empty list onto the default
// table. An empty path returns the default table.
func LoadMapping(path string) (Mapping, error) {
	m := DefaultMapping()
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var override Mapping
	if err := yaml.Unmarshal(data, &override); err != nil {
		return m, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}

	m.merge(override)
	if err := m.Validate(); err != nil {
		return m, fmt.Errorf("invalid mapping file %s: %w", path, err)
	}
	return m, nil
}

func (m *Mapping) merge(o Mapping) {
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&m.LastName, o.LastName)
	pick(&m.FirstName, o.FirstName)
	pick(&m.Email, o.Email)
	pick(&m.Phone, o.Phone)
	pick(&m.StreetNumber, o.StreetNumber)
	pick(&m.StreetType, o.StreetType)
	pick(&m.StreetName, o.StreetName)
	pick(&m.FullAddress, o.FullAddress)
	pick(&m.PostalCode, o.PostalCode)
	pick(&m.City, o.City)
	pick(&m.Marque, o.Marque)
	pick(&m.Siret, o.Siret)
	pick(&m.VIN, o.VIN)
	pick(&m.Registration, o.Registration)
	pick(&m.Date, o.Date)
	pick(&m.Demarche, o.Demarche)
	pick(&m.VINSlots, o.VINSlots)
	pick(&m.VINFieldPatterns, o.VINFieldPatterns)
	pick(&m.DateSlots, o.DateSlots)
	pick(&m.PostalCodeSlots, o.PostalCodeSlots)
	pick(&m.CitySlots, o.CitySlots)
}

// Validate checks slot list lengths
func (m Mapping) Validate() error {
	if len(m.VINSlots) != VINLength {
		return fmt.Errorf("vin_slots must list %d names, got %d", VINLength, len(m.VINSlots))
	}
	if len(m.DateSlots) != dateDigits {
		return fmt.Errorf("date_slots must list %d names, got %d", dateDigits, len(m.DateSlots))
	}
	if len(m.PostalCodeSlots) != postalCodeDigits {
		return fmt.Errorf("postal_code_slots must list %d names, got %d", postalCodeDigits, len(m.PostalCodeSlots))
	}
	return nil
}

// ResolveField returns the first candidate present in available. An exact match is
// preferred; otherwise the first candidate matching case-insensitively wins and the
// name is returned as spelled in the form.
func ResolveField(candidates []string, available map[string]struct{}) (string, bool) {
	for _, c := range candidates {
		if _, ok := available[c]; ok {
			return c, true
		}
	}
	for _, c := range candidates {
		var match string
		for name := range available {
			if strings.EqualFold(name, c) && (match == "" || name < match) {
				match = name
			}
		}
		if match != "" {
			return match, true
		}
	}
	return "", false
}
