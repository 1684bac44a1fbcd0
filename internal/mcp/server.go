package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/mandat-pdf/internal/config"
	"github.com/a3tai/mandat-pdf/internal/descriptions"
	"github.com/a3tai/mandat-pdf/internal/mandate"
	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
	"github.com/a3tai/mandat-pdf/internal/pdf/template"
)

const outputFilePerm = 0o640

// requestArguments maps tool arguments onto request fields
var requestArguments = []struct {
	name        string
	description string
	required    bool
	set         func(r *mandate.Request, v string)
}{
	{"vin", "Vehicle identification number, exactly 17 characters", true, func(r *mandate.Request, v string) { r.VIN = v }},
	{"registrationNumber", "Registration plate, e.g. AB-123-CD", true, func(r *mandate.Request, v string) { r.RegistrationNumber = v }},
	{"demarcheType", "Procedure code, e.g. changement-titulaire", false, func(r *mandate.Request, v string) { r.DemarcheType = v }},
	{"lastName", "Holder last name", false, func(r *mandate.Request, v string) { r.LastName = v }},
	{"firstName", "Holder first name", false, func(r *mandate.Request, v string) { r.FirstName = v }},
	{"email", "Holder email", false, func(r *mandate.Request, v string) { r.Email = v }},
	{"phone", "Holder phone number", false, func(r *mandate.Request, v string) { r.Phone = v }},
	{"address", "Full postal address", false, func(r *mandate.Request, v string) { r.Address = v }},
	{"streetNumber", "Street number", false, func(r *mandate.Request, v string) { r.StreetNumber = v }},
	{"streetType", "Street type, e.g. RUE", false, func(r *mandate.Request, v string) { r.StreetType = v }},
	{"streetName", "Street name", false, func(r *mandate.Request, v string) { r.StreetName = v }},
	{"postalCode", "Five digit postal code", false, func(r *mandate.Request, v string) { r.PostalCode = v }},
	{"city", "City", false, func(r *mandate.Request, v string) { r.City = v }},
	{"marque", "Vehicle make", false, func(r *mandate.Request, v string) { r.Marque = v }},
	{"siret", "Company SIRET, when the holder is a company", false, func(r *mandate.Request, v string) { r.Siret = v }},
}

// Server exposes mandate generation as MCP tools
type Server struct {
	config    *config.Config
	generator *mandate.Generator
	templates mandate.TemplateSource
	mcpServer *server.MCPServer
	log       *zap.Logger

	stdin  io.Reader
	stdout io.Writer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, generator *mandate.Generator, templates mandate.TemplateSource,
	log *zap.Logger,
) (*Server, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if templates == nil {
		return nil, errors.New("template source cannot be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		generator: generator,
		templates: templates,
		mcpServer: mcpServer,
		log:       log,
		stdin:     os.Stdin,
		stdout:    os.Stdout,
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	opts := []mcp.ToolOption{
		mcp.WithDescription(descriptions.MandateGenerateDescription),
	}
	for _, arg := range requestArguments {
		propOpts := []mcp.PropertyOption{mcp.Description(arg.description)}
		if arg.required {
			propOpts = append(propOpts, mcp.Required())
		}
		opts = append(opts, mcp.WithString(arg.name, propOpts...))
	}
	s.mcpServer.AddTool(mcp.NewTool("mandate_generate", opts...), s.handleGenerate)

	s.mcpServer.AddTool(mcp.NewTool(
		"mandate_template_fields",
		mcp.WithDescription(descriptions.MandateTemplateFieldsDescription),
	), s.handleTemplateFields)
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var req mandate.Request
	for _, arg := range requestArguments {
		if v, ok := args[arg.name].(string); ok {
			arg.set(&req, v)
		}
	}

	doc, err := s.generator.Generate(ctx, req)
	if err != nil {
		var verr *mandate.ValidationError
		switch {
		case errors.As(err, &verr):
			return mcp.NewToolResultError(verr.Message), nil
		case errors.Is(err, template.ErrTemplateNotFound):
			return mcp.NewToolResultError(err.Error()), nil
		default:
			s.log.Error("mandate generation failed", zap.Error(err))
			return mcp.NewToolResultError(fmt.Sprintf("mandate generation failed: %v", err)), nil
		}
	}

	path := filepath.Join(s.config.OutputDir, doc.Filename)
	if err := os.WriteFile(path, doc.Bytes, outputFilePerm); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save mandate: %v", err)), nil
	}
	s.log.Info("mandate saved", zap.String("path", path), zap.String("method", string(doc.Method)))

	return mcp.NewToolResultText(formatDocument(path, doc)), nil
}

func formatDocument(path string, doc *mandate.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mandate saved to %s\n", path)
	fmt.Fprintf(&b, "Size: %d bytes\n", len(doc.Bytes))
	fmt.Fprintf(&b, "Method: %s\n", doc.Method)
	fmt.Fprintf(&b, "Fields written: %d\n", doc.Result.SuccessCount)
	if len(doc.Result.FailedLabels) == 0 {
		b.WriteString("Every datum was placed.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "\nNot placed (%d):\n", len(doc.Result.FailedLabels))
	for _, label := range doc.Result.FailedLabels {
		fmt.Fprintf(&b, "  - %s\n", label)
	}
	return b.String()
}

func (s *Server) handleTemplateFields(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.templates.Load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := template.Inspect(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	form, err := acroform.Open(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := mandate.Inspect(form.Fields(), s.generator.Mapping())
	return mcp.NewToolResultText(formatReport(info, report)), nil
}

func formatReport(info *template.Info, r mandate.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Template: %d bytes, %d page(s), %d form field(s)\n", info.Size, info.PageCount, len(r.Fields))
	if len(r.Fields) == 0 {
		b.WriteString("No form fields: mandates are produced by text placement.\n")
		return b.String()
	}

	b.WriteString("\nFields:\n")
	for _, f := range r.Fields {
		fmt.Fprintf(&b, "  %s [%s] = %q\n", f.Name, f.Kind, f.Value)
	}

	b.WriteString("\nResolution:\n")
	for _, res := range r.Resolutions {
		if res.Found {
			fmt.Fprintf(&b, "  %-16s -> %s\n", res.Datum, res.Field)
		} else {
			fmt.Fprintf(&b, "  %-16s -> (none of %s)\n", res.Datum, strings.Join(res.Candidates, ", "))
		}
	}

	b.WriteString("\nBoxes:\n")
	for _, sl := range r.Slots {
		fmt.Fprintf(&b, "  %-16s %d/%d\n", sl.Datum, sl.Present, sl.Total)
	}
	fmt.Fprintf(&b, "  VIN discovered by name: %d/%d\n", r.VINPositions, mandate.VINLength)

	if len(r.Placeholders) > 0 {
		fmt.Fprintf(&b, "\nSIRET placeholders erased when no SIRET is given: %s\n", strings.Join(r.Placeholders, ", "))
	}
	return b.String()
}

// Run serves MCP over stdio until ctx is canceled or stdin closes
func (s *Server) Run(ctx context.Context) error {
	s.log.Debug("Starting mandate MCP server in stdio mode",
		zap.String("template_dir", s.config.TemplateDir),
		zap.String("output_dir", s.config.OutputDir),
	)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))
	if err := stdio.Listen(ctx, s.stdin, s.stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
