package mandate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDemarcheLabel(t *testing.T) {
	assert.Equal(t, "CHANGEMENT DE TITULAIRE", DemarcheLabel("changement-titulaire"))
	assert.Equal(t, "DUPLICATA", DemarcheLabel(" Duplicata "))
	assert.Equal(t, "VENTE-FLOTTE", DemarcheLabel("vente-flotte"))
	assert.Equal(t, "", DemarcheLabel(""))
}

func TestFilename(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"changement-titulaire", "mandat_changement-titulaire_1709823845000.pdf"},
		{"", "mandat_mandat_1709823845000.pdf"},
		{"../../etc/passwd", "mandat_etc-passwd_1709823845000.pdf"},
		{"cession véhicule", "mandat_cession-v-hicule_1709823845000.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.code, 1709823845000))
		})
	}
}
