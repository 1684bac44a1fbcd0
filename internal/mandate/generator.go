package mandate

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
	"github.com/a3tai/mandat-pdf/internal/pdf/overlay"
)

// Method names the generation path taken for a document
type Method string

const (
	MethodFormFill      Method = "form-fill"
	MethodTextPlacement Method = "text-placement"
)

// TemplateSource provides the raw template bytes. *template.Loader implements it.
type TemplateSource interface {
	Load() ([]byte, error)
}

// EditableForm is a Form that can be serialized
type EditableForm interface {
	Form
	Bytes() ([]byte, error)
}

// Opener parses template bytes into an editable form
type Opener func(data []byte) (EditableForm, error)

// Renderer draws text runs over a template without form fields
type Renderer interface {
	Render(templateData []byte, runs []overlay.TextRun) ([]byte, error)
}

// Recorder observes finished generations
type Recorder interface {
	ObserveGeneration(doc *Document, elapsed time.Duration)
}

// Document is a generated mandate
type Document struct {
	Bytes       []byte
	Filename    string
	Method      Method
	Result      FillResult
	GeneratedAt time.Time
}

// Generator produces mandates from a template. Each call works on its own copy of
// the template, so a Generator is safe for concurrent use.
type Generator struct {
	templates TemplateSource
	mapping   Mapping
	open      Opener
	renderer  Renderer
	layout    Layout
	recorder  Recorder
	log       *zap.Logger
	now       func() time.Time
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the diagnostics logger
func WithLogger(log *zap.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithClock sets the clock used for the mandate date and the file name
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithOpener replaces the form parser
func WithOpener(open Opener) Option {
	return func(g *Generator) { g.open = open }
}

// WithRenderer replaces the text-placement renderer
func WithRenderer(r Renderer) Option {
	return func(g *Generator) { g.renderer = r }
}

// WithLayout replaces the text-placement coordinates
func WithLayout(l Layout) Option {
	return func(g *Generator) { g.layout = l }
}

// WithRecorder registers a generation observer
func WithRecorder(r Recorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// NewGenerator creates a generator reading templates from src
func NewGenerator(src TemplateSource, mapping Mapping, opts ...Option) *Generator {
	g := &Generator{
		templates: src,
		mapping:   mapping,
		open:      openAcroForm,
		renderer:  overlay.NewRenderer(),
		layout:    DefaultLayout,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func openAcroForm(data []byte) (EditableForm, error) {
	return acroform.Open(data)
}

// Mapping returns the field mapping in use
func (g *Generator) Mapping() Mapping {
	return g.mapping
}

// Generate validates req, fills the template and returns the serialized document.
// A *ValidationError is returned for bad input; template lookup errors are returned
// unwrapped so callers can match them.
func (g *Generator) Generate(ctx context.Context, req Request) (doc *Document, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			g.log.Error("mandate generation panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			doc, err = nil, fmt.Errorf("mandate generation failed: %v", r)
		}
	}()

	start := time.Now()
	data, err := g.templates.Load()
	if err != nil {
		return nil, err
	}

	form, err := g.open(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open template: %w", err)
	}

	now := g.now()
	doc = &Document{
		Filename:    Filename(req.DemarcheType, now.UnixMilli()),
		GeneratedAt: now,
	}

	if len(form.Fields()) == 0 {
		g.log.Debug("mandate.template.no_fields", zap.String("method", string(MethodTextPlacement)))
		runs := g.layout.BuildRuns(req.Normalized(), now)
		out, err := g.renderer.Render(data, runs)
		if err != nil {
			return nil, fmt.Errorf("failed to place text on template: %w", err)
		}
		doc.Bytes = out
		doc.Method = MethodTextPlacement
		doc.Result = FillResult{SuccessCount: len(runs)}
	} else {
		filler := NewFiller(g.mapping, g.log).WithClock(func() time.Time { return now })
		res, err := filler.Fill(form, req)
		if err != nil {
			return nil, err
		}
		out, err := form.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to serialize mandate: %w", err)
		}
		doc.Bytes = out
		doc.Method = MethodFormFill
		doc.Result = res
	}

	if len(doc.Result.FailedLabels) > 0 {
		g.log.Warn("mandate generated with unplaced data",
			zap.String("filename", doc.Filename),
			zap.Strings("failed", doc.Result.FailedLabels),
		)
	}
	if g.recorder != nil {
		g.recorder.ObserveGeneration(doc, time.Since(start))
	}
	return doc, nil
}
