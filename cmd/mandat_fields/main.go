package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/a3tai/mandat-pdf/internal/mandate"
	"github.com/a3tai/mandat-pdf/internal/pdf/acroform"
	"github.com/a3tai/mandat-pdf/internal/pdf/template"
)

// FieldsResult is the complete diagnostic of one template
type FieldsResult struct {
	FilePath  string         `json:"file_path"`
	Size      int64          `json:"size"`
	PageCount int            `json:"page_count"`
	Method    mandate.Method `json:"method"`
	Report    mandate.Report `json:"report"`
}

type options struct {
	format      string
	templateDir string
	mapping     string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var opts options
	flags := pflag.NewFlagSet("mandat_fields", pflag.ContinueOnError)
	flags.StringVar(&opts.format, "format", "text", "Output format: text, json")
	flags.StringVar(&opts.templateDir, "templatedir", "", "Look up Mandat.pdf (or mandat.pdf) in this directory instead of a file argument")
	flags.StringVar(&opts.mapping, "mapping", "", "YAML file overriding the field mapping table")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "Mandat Fields - show how a mandate template matches the field mapping table")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "USAGE:")
		fmt.Fprintln(os.Stderr, "  mandat_fields [OPTIONS] <pdf_file>")
		fmt.Fprintln(os.Stderr, "  mandat_fields [OPTIONS] --templatedir=<dir>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "OPTIONS:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (must be text or json)", opts.format)
	}

	path, data, err := readTemplate(opts, flags.Args())
	if err != nil {
		return err
	}

	mapping, err := mandate.LoadMapping(opts.mapping)
	if err != nil {
		return err
	}

	result, err := inspect(path, data, mapping)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	writeText(out, result)
	return nil
}

func readTemplate(opts options, args []string) (string, []byte, error) {
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", nil, fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return args[0], data, nil
	}
	if opts.templateDir == "" {
		return "", nil, errors.New("PDF file path or --templatedir required")
	}

	loader := template.NewLoader(opts.templateDir, 0)
	path, err := loader.Path()
	if err != nil {
		return "", nil, err
	}
	data, err := loader.Load()
	if err != nil {
		return "", nil, err
	}
	return path, data, nil
}

func inspect(path string, data []byte, mapping mandate.Mapping) (*FieldsResult, error) {
	info, err := template.Inspect(data)
	if err != nil {
		return nil, err
	}
	form, err := acroform.Open(data)
	if err != nil {
		return nil, err
	}

	fields := form.Fields()
	method := mandate.MethodFormFill
	if len(fields) == 0 {
		method = mandate.MethodTextPlacement
	}
	return &FieldsResult{
		FilePath:  path,
		Size:      info.Size,
		PageCount: info.PageCount,
		Method:    method,
		Report:    mandate.Inspect(fields, mapping),
	}, nil
}

func writeText(out io.Writer, r *FieldsResult) {
	fmt.Fprintf(out, "File: %s\n", r.FilePath)
	fmt.Fprintf(out, "Size: %d bytes, %d page(s)\n", r.Size, r.PageCount)
	fmt.Fprintf(out, "Fields: %d (%s)\n", len(r.Report.Fields), r.Method)

	if len(r.Report.Fields) > 0 {
		fmt.Fprintln(out)
		for i, f := range r.Report.Fields {
			fmt.Fprintf(out, "%3d. %-28s %-7s %q\n", i+1, f.Name, f.Kind, f.Value)
		}
	}

	fmt.Fprintln(out, "\nResolution:")
	for _, res := range r.Report.Resolutions {
		target := res.Field
		if !res.Found {
			target = "MISSING (" + strings.Join(res.Candidates, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-16s %s\n", res.Datum, target)
	}

	fmt.Fprintln(out, "\nBoxes:")
	for _, sl := range r.Report.Slots {
		fmt.Fprintf(out, "  %-16s %d/%d", sl.Datum, sl.Present, sl.Total)
		if len(sl.Missing) > 0 {
			fmt.Fprintf(out, "  missing: %s", strings.Join(sl.Missing, ", "))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "  %-16s %d/%d\n", "VIN (by name)", r.Report.VINPositions, mandate.VINLength)

	if len(r.Report.Placeholders) > 0 {
		fmt.Fprintf(out, "\nSIRET placeholders: %s\n", strings.Join(r.Report.Placeholders, ", "))
	}
}
