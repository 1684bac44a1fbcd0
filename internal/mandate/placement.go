package mandate

import (
	"strings"
	"time"

	"github.com/a3tai/mandat-pdf/internal/pdf/overlay"
)

// Position is a fixed point of the first template page, in PDF points from the
// bottom-left corner
type Position struct {
	X    float64
	Y    float64
	Bold bool
}

// Layout holds the coordinates used when the template has no fillable form
type Layout struct {
	Name         Position
	Email        Position
	Phone        Position
	Address      Position
	PostalCity   Position
	Marque       Position
	Siret        Position
	VIN          Position
	Registration Position
	Demarche     Position
	Date         Position
	FontSize     float64
}

// DefaultLayout matches the printed A4 mandate
var DefaultLayout = Layout{
	Name:         Position{X: 150, Y: 650, Bold: true},
	Email:        Position{X: 150, Y: 630},
	Phone:        Position{X: 400, Y: 630},
	Address:      Position{X: 150, Y: 610},
	PostalCity:   Position{X: 150, Y: 590},
	Marque:       Position{X: 150, Y: 520},
	Siret:        Position{X: 150, Y: 570},
	VIN:          Position{X: 150, Y: 500, Bold: true},
	Registration: Position{X: 150, Y: 480, Bold: true},
	Demarche:     Position{X: 150, Y: 450, Bold: true},
	Date:         Position{X: 400, Y: 150},
	FontSize:     10,
}

// BuildRuns computes the text runs of a normalized request
func (l Layout) BuildRuns(r Request, now time.Time) []overlay.TextRun {
	formatted, _ := FormatDate(now)
	postalCity := strings.TrimSpace(r.PostalCode + " " + r.City)

	demarche := ""
	if r.DemarcheType != "" {
		demarche = DemarcheLabel(r.DemarcheType)
	}

	entries := []struct {
		pos  Position
		text string
	}{
		{l.Name, r.FullName()},
		{l.Email, r.Email},
		{l.Phone, r.Phone},
		{l.Address, r.FullAddress()},
		{l.PostalCity, postalCity},
		{l.Siret, r.Siret},
		{l.Marque, r.Marque},
		{l.VIN, r.VIN},
		{l.Registration, r.RegistrationNumber},
		{l.Demarche, demarche},
		{l.Date, formatted},
	}

	runs := make([]overlay.TextRun, 0, len(entries))
	for _, e := range entries {
		if e.text == "" {
			continue
		}
		runs = append(runs, overlay.TextRun{
			X:    e.pos.X,
			Y:    e.pos.Y,
			Text: strings.ToUpper(e.text),
			Bold: e.pos.Bold,
			Size: l.FontSize,
		})
	}
	return runs
}
