package mandate

import (
	"regexp"
	"strconv"
	"strings"
)

// demarcheLabels maps procedure codes to the wording printed on the mandate
var demarcheLabels = map[string]string{
	"changement-titulaire":   "CHANGEMENT DE TITULAIRE",
	"changement-adresse":     "CHANGEMENT D'ADRESSE",
	"duplicata":              "DUPLICATA",
	"immatriculation-neuf":   "IMMATRICULATION D'UN VÉHICULE NEUF",
	"immatriculation-import": "IMMATRICULATION D'UN VÉHICULE IMPORTÉ",
	"declaration-cession":    "DÉCLARATION DE CESSION",
	"plaque":                 "COMMANDE DE PLAQUES D'IMMATRICULATION",
	"coc":                    "CERTIFICAT DE CONFORMITÉ (COC)",
}

// DemarcheLabel returns the printed label of a procedure code. Unknown codes are
// printed as the uppercased code.
func DemarcheLabel(code string) string {
	code = strings.TrimSpace(code)
	if label, ok := demarcheLabels[strings.ToLower(code)]; ok {
		return label
	}
	return strings.ToUpper(code)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename builds mandat_{demarcheType}_{timestamp}.pdf. The timestamp is the
// generation time in Unix milliseconds.
func Filename(demarcheType string, unixMillis int64) string {
	code := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(demarcheType), "-")
	code = strings.Trim(code, "-")
	if code == "" {
		code = "mandat"
	}
	return "mandat_" + code + "_" + strconv.FormatInt(unixMillis, 10) + ".pdf"
}
