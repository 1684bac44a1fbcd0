// Package mandate fills the power-of-attorney ("mandat") PDF of a vehicle
// registration order. The template's form field names are discovered at runtime and
// matched against a declarative mapping table; multi-box values such as the VIN,
// the date and the postal code are decomposed one character per field.
package mandate

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// VINLength is the number of characters of a vehicle identification number
const VINLength = 17

// Request carries the client and vehicle data printed on the mandate
type Request struct {
	LastName           string `json:"lastName,omitempty"`
	FirstName          string `json:"firstName,omitempty"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Address            string `json:"address,omitempty"`
	StreetNumber       string `json:"streetNumber,omitempty"`
	StreetType         string `json:"streetType,omitempty"`
	StreetName         string `json:"streetName,omitempty"`
	PostalCode         string `json:"postalCode,omitempty"`
	City               string `json:"city,omitempty"`
	Marque             string `json:"marque,omitempty"`
	Siret              string `json:"siret,omitempty"`
	VIN                string `json:"vin,omitempty"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
	DemarcheType       string `json:"demarcheType,omitempty"`
}

// ValidationError reports a violated input constraint. Message is user facing.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks the constraints that must hold before any PDF work starts
func (r Request) Validate() error {
	vin := strings.TrimSpace(r.VIN)
	if vin == "" {
		return &ValidationError{Field: "vin", Message: "Le numéro VIN est obligatoire."}
	}
	if n := utf8.RuneCountInString(vin); n != VINLength {
		return &ValidationError{
			Field: "vin",
			Message: fmt.Sprintf("Le numéro VIN doit contenir exactement %d caractères. Vous avez saisi %d caractère(s).",
				VINLength, n),
		}
	}
	if strings.TrimSpace(r.RegistrationNumber) == "" {
		return &ValidationError{
			Field:   "registrationNumber",
			Message: "Le numéro d'immatriculation est obligatoire.",
		}
	}
	return nil
}

// Normalized returns a copy with surrounding whitespace trimmed and every value
// except the procedure code uppercased.
func (r Request) Normalized() Request {
	up := func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
	return Request{
		LastName:           up(r.LastName),
		FirstName:          up(r.FirstName),
		Email:              up(r.Email),
		Phone:              up(r.Phone),
		Address:            up(r.Address),
		StreetNumber:       up(r.StreetNumber),
		StreetType:         up(r.StreetType),
		StreetName:         up(r.StreetName),
		PostalCode:         up(r.PostalCode),
		City:               up(r.City),
		Marque:             up(r.Marque),
		Siret:              up(r.Siret),
		VIN:                up(r.VIN),
		RegistrationNumber: up(r.RegistrationNumber),
		DemarcheType:       strings.TrimSpace(r.DemarcheType),
	}
}

// FullName joins last and first name
func (r Request) FullName() string {
	return strings.TrimSpace(r.LastName + " " + r.FirstName)
}

// HasStreetParts reports whether number, type and name are all present
func (r Request) HasStreetParts() bool {
	return r.StreetNumber != "" && r.StreetType != "" && r.StreetName != ""
}

// FullAddress returns Address, or the street parts joined when Address is empty
func (r Request) FullAddress() string {
	if r.Address != "" {
		return r.Address
	}
	if r.HasStreetParts() {
		return r.StreetNumber + " " + r.StreetType + " " + r.StreetName
	}
	return ""
}
