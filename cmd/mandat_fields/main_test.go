package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mandat-pdf/internal/mandate"
	"github.com/a3tai/mandat-pdf/internal/pdf/pdftest"
	"github.com/a3tai/mandat-pdf/internal/pdf/template"
)

func writeTemplate(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := pdftest.FormPDF([]pdftest.TextField{
		{Name: "text_1qmfn"},
		{Name: "text_29pzdx", Value: "Ville"},
		{Name: "siret_hint", Value: "N° SIRET, le cas échéant"},
	})
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRun_Text(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), "form.pdf")

	var out bytes.Buffer
	require.NoError(t, run([]string{path}, &out))

	text := out.String()
	assert.Contains(t, text, "Fields: 3 (form-fill)")
	assert.Contains(t, text, "text_29pzdx")
	assert.Contains(t, text, "Nom              text_1qmfn")
	assert.Contains(t, text, "SIRET placeholders: siret_hint")
	assert.Contains(t, text, "Ville            1/2  missing: text_50kbae")
}

func TestRun_JSONFromTemplateDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, template.FallbackFileName)

	var out bytes.Buffer
	require.NoError(t, run([]string{"--format=json", "--templatedir=" + dir}, &out))

	var result FieldsResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, filepath.Join(dir, template.FallbackFileName), result.FilePath)
	assert.Equal(t, mandate.MethodFormFill, result.Method)
	assert.Equal(t, 1, result.PageCount)
	assert.Len(t, result.Report.Fields, 3)
}

func TestRun_BlankTemplate(t *testing.T) {
	data, err := pdftest.BlankPDF(1)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "blank.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var out bytes.Buffer
	require.NoError(t, run([]string{path}, &out))
	assert.Contains(t, out.String(), "Fields: 0 (text-placement)")
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer

	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"--format=xml", "x.pdf"}, &out))
	assert.Error(t, run([]string{filepath.Join(t.TempDir(), "missing.pdf")}, &out))

	err := run([]string{"--templatedir=" + t.TempDir()}, &out)
	assert.ErrorIs(t, err, template.ErrTemplateNotFound)
}
