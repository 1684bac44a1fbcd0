package mandate

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
)

const testVIN = "WVWZZZ1KZAW123456"

func TestDiscoverVINFields_Heuristics(t *testing.T) {
	names := []string{"nom", "vin_2", "VIN-1", "chassis_03", "numero serie 4", "ns.5", "province_6", "text_7"}
	got := DiscoverVINFields(names, nil)

	assert.Equal(t, map[int]string{
		0: "VIN-1",
		1: "vin_2",
		2: "chassis_03",
		3: "numero serie 4",
		4: "ns.5",
	}, got)
}

func TestDiscoverVINFields_RejectsOutOfRangeNumbers(t *testing.T) {
	// a year or an unrelated counter must not claim a position
	got := DiscoverVINFields([]string{"vin_2024", "case_vin_0", "vin_18"}, nil)
	assert.Empty(t, got)
}

func TestDiscoverVINFields_FirstNameWinsPerPosition(t *testing.T) {
	got := DiscoverVINFields([]string{"vin_1", "chassis_1"}, nil)
	assert.Equal(t, map[int]string{0: "vin_1"}, got)
}

func TestDiscoverVINFields_SynthesizedNames(t *testing.T) {
	var names []string
	for i := 1; i <= VINLength; i++ {
		names = append(names, fmt.Sprintf("CarVin%02d", i))
	}
	got := DiscoverVINFields(names, []string{"carvin", "CarVin"})

	require.Len(t, got, VINLength)
	assert.Equal(t, "CarVin01", got[0])
	assert.Equal(t, "CarVin17", got[16])
}

func TestVinCandidateNames(t *testing.T) {
	got := vinCandidateNames([]string{"vin"}, 3)
	assert.Equal(t, []string{
		"vin3", "vin_3", "vin-3", "vin03", "vin_03", "vin-03",
		"VIN3", "VIN_3", "VIN-3", "VIN03", "VIN_03", "VIN-03",
	}, got)
}

func TestFillVIN_FixedSlots(t *testing.T) {
	form := templateForm()
	s := newSession(form, nopLogger())

	res := fillVIN(s, DefaultMapping(), testVIN)

	assert.True(t, res.OK())
	assert.Equal(t, VINLength, res.SuccessCount)
	for i, slot := range DefaultMapping().VINSlots {
		v, _ := form.Text(slot)
		assert.Equal(t, string(testVIN[i]), v, "slot %s", slot)
	}
}

func TestFillVIN_DiscoveryCompletesMissingSlots(t *testing.T) {
	m := DefaultMapping()
	form := newFakeForm(m.VINSlots[:10]...)
	for i := 11; i <= VINLength; i++ {
		form.add(fmt.Sprintf("vin_%d", i), acroform.KindText, "")
	}
	s := newSession(form, nopLogger())

	res := fillVIN(s, m, testVIN)

	assert.True(t, res.OK(), res.FailedLabels)
	assert.Equal(t, VINLength, res.SuccessCount)
	v, _ := form.Text("vin_11")
	assert.Equal(t, string(testVIN[10]), v)
	v, _ = form.Text("vin_17")
	assert.Equal(t, "6", v)
}

func TestFillVIN_SingleField(t *testing.T) {
	form := newFakeForm("numero_vin")
	log, logs := observedLogger(t)
	s := newSession(form, log)

	res := fillVIN(s, DefaultMapping(), testVIN)

	assert.True(t, res.OK())
	v, _ := form.Text("numero_vin")
	assert.Equal(t, testVIN, v)

	var tried []string
	for _, e := range logs.FilterMessage("mandate.strategy").All() {
		tried = append(tried, e.ContextMap()["strategy"].(string))
	}
	assert.Equal(t, []string{"fixed-slots", "pattern-discovery", "single-field"}, tried)
}

func TestFillVIN_Failed(t *testing.T) {
	m := DefaultMapping()
	form := newFakeForm(m.VINSlots[:3]...)
	s := newSession(form, nopLogger())

	res := fillVIN(s, m, testVIN)

	assert.Equal(t, 3, res.SuccessCount)
	assert.Equal(t, []string{"VIN : 3/17 positions remplies, aucun champ VIN unique"}, res.FailedLabels)
}

func joinSlots(form *fakeForm, slots []string) string {
	var b strings.Builder
	for _, slot := range slots {
		v, _ := form.Text(slot)
		b.WriteString(v)
	}
	return b.String()
}

func TestFillVIN_SlotsReproduceInput(t *testing.T) {
	const alphabet = "ABCDEFGHJKLMNPRSTUVWXYZabcdefghjklmnprstuvwxyz0123456789"
	rng := rand.New(rand.NewSource(17))

	vins := []string{
		testVIN,
		"vf1rfb00x12345678",
		"VF7aaaaaaaaaaaaaa",
		"11111111111111111",
		"ZZZZZZZZZZZZZZZZ0",
		"  wvwzzz1kzaw123456 ",
	}
	for i := 0; i < 20; i++ {
		b := make([]byte, VINLength)
		for j := range b {
			b[j] = alphabet[rng.Intn(len(alphabet))]
		}
		vins = append(vins, string(b))
	}

	m := DefaultMapping()
	for _, raw := range vins {
		t.Run(raw, func(t *testing.T) {
			req := Request{VIN: raw, RegistrationNumber: "AB-123-CD"}
			require.NoError(t, req.Validate())
			vin := req.Normalized().VIN

			form := templateForm()
			res := fillVIN(newSession(form, nopLogger()), m, vin)

			assert.True(t, res.OK(), res.FailedLabels)
			assert.Equal(t, strings.ToUpper(strings.TrimSpace(raw)), joinSlots(form, m.VINSlots))
		})
	}
}
