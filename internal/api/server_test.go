package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mandat-pdf/internal/api/middleware"
	"github.com/a3tai/mandat-pdf/internal/mandate"
	"github.com/a3tai/mandat-pdf/internal/metrics"
	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
	"github.com/a3tai/mandat-pdf/internal/pdf/pdftest"
	"github.com/a3tai/mandat-pdf/internal/pdf/template"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type generatorFunc func(ctx context.Context, req mandate.Request) (*mandate.Document, error)

func (f generatorFunc) Generate(ctx context.Context, req mandate.Request) (*mandate.Document, error) {
	return f(ctx, req)
}

func newTestServer(t *testing.T, gen Generator) (*Server, *metrics.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := NewServer(gen, Options{
		Observer:       m,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	s.SetupRoutes()
	return s, m
}

func postMandate(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mandat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

const validBody = `{"vin":"WVWZZZ1KZAW123456","registrationNumber":"AB-123-CD","demarcheType":"changement-titulaire","city":"paris"}`

func TestGenerate_Success(t *testing.T) {
	var got mandate.Request
	s, m := newTestServer(t, generatorFunc(func(_ context.Context, req mandate.Request) (*mandate.Document, error) {
		got = req
		return &mandate.Document{
			Bytes:    []byte("%PDF-1.7 test"),
			Filename: "mandat_changement-titulaire_1.pdf",
			Method:   mandate.MethodFormFill,
			Result:   mandate.FillResult{SuccessCount: 27, FailedLabels: []string{"Marque : valeur absente"}},
		}, nil
	}))

	w := postMandate(t, s, validBody)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="mandat_changement-titulaire_1.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "form-fill", w.Header().Get(HeaderStrategy))
	assert.Equal(t, "27", w.Header().Get(HeaderFilled))
	assert.Equal(t, "Marque : valeur absente", w.Header().Get(HeaderFailed))
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "%PDF-1.7 test", w.Body.String())
	assert.Equal(t, "paris", got.City)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/mandat", "200")))
}

func TestGenerate_ValidationErrors(t *testing.T) {
	called := false
	s, _ := newTestServer(t, generatorFunc(func(context.Context, mandate.Request) (*mandate.Document, error) {
		called = true
		return nil, errors.New("unreachable")
	}))

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "short vin",
			body: `{"vin":"SHORT","registrationNumber":"AB-123-CD"}`,
			want: "Le numéro VIN doit contenir exactement 17 caractères. Vous avez saisi 5 caractère(s).",
		},
		{
			name: "missing vin",
			body: `{"registrationNumber":"AB-123-CD"}`,
			want: "Le numéro VIN est obligatoire.",
		},
		{
			name: "missing registration",
			body: `{"vin":"WVWZZZ1KZAW123456"}`,
			want: "Le numéro d'immatriculation est obligatoire.",
		},
		{name: "empty body", body: "", want: msgEmptyBody},
		{name: "malformed json", body: `{"vin":`, want: msgInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postMandate(t, s, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, errorBody(t, w))
		})
	}
	assert.False(t, called)
}

func TestGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"template missing", &template.NotFoundError{Tried: []string{"a", "b"}}, http.StatusNotFound, msgTemplateNotFound},
		{"pdf failure", errors.New("failed to open template: broken xref"), http.StatusInternalServerError, msgInternal},
		{"validation inside generator", &mandate.ValidationError{Field: "vin", Message: "bad"}, http.StatusBadRequest, "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, generatorFunc(func(context.Context, mandate.Request) (*mandate.Document, error) {
				return nil, tt.err
			}))

			w := postMandate(t, s, validBody)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.want, errorBody(t, w))
			assert.Empty(t, w.Header().Get("Content-Disposition"))
		})
	}
}

func TestGenerate_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	m := mandate.DefaultMapping()
	var fields []pdftest.TextField
	for _, n := range m.VINSlots {
		fields = append(fields, pdftest.TextField{Name: n})
	}
	for _, n := range m.CitySlots {
		fields = append(fields, pdftest.TextField{Name: n, Value: "Ville"})
	}
	data, err := pdftest.FormPDF(fields)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, template.FileName), data, 0o600))

	now := time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC)
	gen := mandate.NewGenerator(template.NewLoader(dir, 0), m, mandate.WithClock(func() time.Time { return now }))
	s, _ := newTestServer(t, gen)

	w := postMandate(t, s, validBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="mandat_changement-titulaire_1709805600000.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get(HeaderFailed), "Marque : valeur absente")

	form, err := acroform.Open(w.Body.Bytes())
	require.NoError(t, err)
	v, _ := form.Text(m.VINSlots[0])
	assert.Equal(t, "W", v)
	v, _ = form.Text(m.CitySlots[1])
	assert.Equal(t, "PARIS", v)
}

func TestGenerate_TemplateMissingEndToEnd(t *testing.T) {
	gen := mandate.NewGenerator(template.NewLoader(t.TempDir(), 0), mandate.DefaultMapping())
	s, _ := newTestServer(t, gen)

	w := postMandate(t, s, validBody)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, errorBody(t, w), "template not found")
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, generatorFunc(func(context.Context, mandate.Request) (*mandate.Document, error) {
		return nil, errors.New("unused")
	}))

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mandat_http_requests_total")
}

func TestRequestIDIsPropagated(t *testing.T) {
	s, _ := newTestServer(t, generatorFunc(func(context.Context, mandate.Request) (*mandate.Document, error) {
		return nil, errors.New("unused")
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestBodyTooLarge(t *testing.T) {
	s, _ := newTestServer(t, generatorFunc(func(context.Context, mandate.Request) (*mandate.Document, error) {
		return nil, errors.New("unused")
	}))

	big := `{"vin":"` + string(bytes.Repeat([]byte("A"), maxBodyBytes+10)) + `"}`
	w := postMandate(t, s, big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartStop(t *testing.T) {
	s, _ := newTestServer(t, generatorFunc(func(context.Context, mandate.Request) (*mandate.Document, error) {
		return nil, errors.New("unused")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
