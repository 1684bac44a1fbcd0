package overlay

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mandat-pdf/internal/pdf/pdftest"
)

func pageText(t *testing.T, data []byte, pageNum int) string {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var sb strings.Builder
	for _, text := range r.Page(pageNum).Content().Text {
		sb.WriteString(text.S)
	}
	return sb.String()
}

func TestRenderer_Render(t *testing.T) {
	template, err := pdftest.BlankPDF(2)
	require.NoError(t, err)

	runs := []TextRun{
		{X: 100, Y: 700, Text: "WVWZZZ1KZAW123456", Bold: true},
		{X: 100, Y: 680, Text: "AB-123-CD", Bold: true},
		{X: 100, Y: 660, Text: "PARIS"},
		{X: 100, Y: 640, Text: ""},
	}

	out, err := NewRenderer().Render(template, runs)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	dims, err := pageDims(out)
	require.NoError(t, err)
	assert.Len(t, dims, 2)

	text := pageText(t, out, 1)
	assert.Contains(t, text, "WVWZZZ1KZAW123456")
	assert.Contains(t, text, "AB-123-CD")
	assert.Contains(t, text, "PARIS")
}

func TestRenderer_RenderErrors(t *testing.T) {
	_, err := NewRenderer().Render(nil, nil)
	assert.Error(t, err)

	_, err = NewRenderer().Render([]byte("not a pdf"), nil)
	assert.Error(t, err)
}

func TestEncodeCoreFont(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PARIS", "PARIS"},
		{"SAINT-ÉTIENNE", "SAINT-\xc9TIENNE"},
		{"ŒUVRE 5€", "\x8cUVRE 5\x80"},
		{"DUPONT ✓ JEAN", "DUPONT ? JEAN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, encodeCoreFont(tt.in), tt.in)
	}
}
