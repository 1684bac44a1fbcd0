// Package acroform exposes the interactive form of a PDF document as a flat list of
// named fields that can be read, overwritten and serialized back, using pdfcpu.
package acroform

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// NonTextValue is reported as the value of fields that are neither text nor choice fields.
const NonTextValue = "[non-text]"

var (
	// ErrFieldNotFound is returned when a write targets a name absent from the form.
	ErrFieldNotFound = errors.New("field not found")
	// ErrNotTextField is returned when a write targets a button or signature field.
	ErrNotTextField = errors.New("field does not accept text")
)

// Kind classifies a form field for filling purposes
type Kind string

const (
	KindText   Kind = "text"
	KindChoice Kind = "choice"
	KindOther  Kind = "other"
)

// Field is a snapshot of one terminal form field
type Field struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

type entry struct {
	name string
	kind Kind
	dict types.Dict
}

// Form is an in-memory PDF document with its AcroForm fields indexed by fully
// qualified name. A Form is not safe for concurrent use.
type Form struct {
	ctx      *model.Context
	acroForm types.Dict
	entries  []*entry
	byName   map[string]*entry
}

// Open parses a PDF document and indexes its form fields. A document without an
// AcroForm opens successfully with zero fields.
func Open(data []byte) (*Form, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}

	f := &Form{
		ctx:    ctx,
		byName: make(map[string]*entry),
	}
	if err := f.index(); err != nil {
		return nil, err
	}
	return f, nil
}

// index walks the AcroForm field tree once and records every terminal field
func (f *Form) index() error {
	rootDict, err := f.ctx.Catalog()
	if err != nil {
		return fmt.Errorf("failed to get catalog: %w", err)
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil
	}

	acroFormDict, err := f.ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil
	}
	f.acroForm = acroFormDict

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil
	}

	fieldsArray, err := f.ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	for _, fieldRef := range fieldsArray {
		f.walk(fieldRef, "", KindOther, 0)
	}
	return nil
}

// walk records fieldObj or descends into its named kids. Kids without a T entry are
// widget annotations of the current field, not fields of their own.
func (f *Form) walk(fieldObj types.Object, parentName string, inherited Kind, depth int) {
	if depth > 32 {
		return
	}

	fieldDict, err := f.ctx.DereferenceDict(fieldObj)
	if err != nil || fieldDict == nil {
		return
	}

	name := parentName
	if partial := f.partialName(fieldDict); partial != "" {
		if name != "" {
			name += "."
		}
		name += partial
	}

	kind := inherited
	if k, ok := f.ownKind(fieldDict); ok {
		kind = k
	}

	var namedKids []types.Object
	if kidsObj, found := fieldDict.Find("Kids"); found {
		if kids, err := f.ctx.DereferenceArray(kidsObj); err == nil {
			for _, kid := range kids {
				kidDict, err := f.ctx.DereferenceDict(kid)
				if err != nil || kidDict == nil {
					continue
				}
				if f.partialName(kidDict) != "" {
					namedKids = append(namedKids, kid)
				}
			}
		}
	}

	if len(namedKids) > 0 {
		for _, kid := range namedKids {
			f.walk(kid, name, kind, depth+1)
		}
		return
	}

	if name == "" {
		return
	}
	if _, dup := f.byName[name]; dup {
		return
	}

	e := &entry{name: name, kind: kind, dict: fieldDict}
	f.entries = append(f.entries, e)
	f.byName[name] = e
}

func (f *Form) partialName(d types.Dict) string {
	nameObj, found := d.Find("T")
	if !found {
		return ""
	}
	name, err := f.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name
}

func (f *Form) ownKind(d types.Dict) (Kind, bool) {
	ftObj, found := d.Find("FT")
	if !found {
		return "", false
	}
	ftName, err := f.ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return KindOther, true
	}
	switch ftName {
	case "Tx":
		return KindText, true
	case "Ch":
		return KindChoice, true
	default:
		return KindOther, true
	}
}

// Fields returns every terminal field in document order with its current value
func (f *Form) Fields() []Field {
	fields := make([]Field, 0, len(f.entries))
	for _, e := range f.entries {
		value := NonTextValue
		if e.kind != KindOther {
			if v, ok := f.value(e); ok {
				value = v
			}
		}
		fields = append(fields, Field{Name: e.name, Kind: e.kind, Value: value})
	}
	return fields
}

// Text returns the current value of a text or choice field
func (f *Form) Text(name string) (string, bool) {
	e, ok := f.byName[name]
	if !ok || e.kind == KindOther {
		return "", false
	}
	return f.value(e)
}

// value reads V as a string first, then as the first entry of a choice array
func (f *Form) value(e *entry) (string, bool) {
	valueObj, found := e.dict.Find("V")
	if !found || valueObj == nil {
		return "", true
	}
	if s, err := f.ctx.DereferenceStringOrHexLiteral(valueObj, model.V10, nil); err == nil {
		return s, true
	}
	if e.kind == KindChoice {
		if arr, err := f.ctx.DereferenceArray(valueObj); err == nil {
			for _, item := range arr {
				if s, err := f.ctx.DereferenceStringOrHexLiteral(item, model.V10, nil); err == nil {
					return s, true
				}
			}
		}
		if n, err := f.ctx.DereferenceName(valueObj, model.V10, nil); err == nil {
			return string(n), true
		}
	}
	return "", false
}

// SetText overwrites the value of a text or choice field. Stale appearance streams
// are dropped and NeedAppearances is raised so viewers render the new value.
func (f *Form) SetText(name, value string) error {
	e, ok := f.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	if e.kind == KindOther {
		return fmt.Errorf("%w: %s", ErrNotTextField, name)
	}

	encoded, err := EncodeText(value)
	if err != nil {
		return fmt.Errorf("failed to encode value of %s: %w", name, err)
	}
	e.dict["V"] = encoded
	f.dropAppearance(e.dict)

	if f.acroForm != nil {
		f.acroForm["NeedAppearances"] = types.Boolean(true)
	}
	return nil
}

func (f *Form) dropAppearance(d types.Dict) {
	delete(d, "AP")
	kidsObj, found := d.Find("Kids")
	if !found {
		return
	}
	kids, err := f.ctx.DereferenceArray(kidsObj)
	if err != nil {
		return
	}
	for _, kid := range kids {
		if kidDict, err := f.ctx.DereferenceDict(kid); err == nil && kidDict != nil {
			delete(kidDict, "AP")
		}
	}
}

// PageCount returns the number of pages of the underlying document
func (f *Form) PageCount() int {
	return f.ctx.PageCount
}

// Bytes serializes the document. The form is left interactive.
func (f *Form) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(f.ctx, &buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeText produces an escaped literal string, as PDFDocEncoding for ASCII values
// and as UTF-16BE with byte order mark for anything else.
func EncodeText(s string) (types.StringLiteral, error) {
	var (
		escaped *string
		err     error
	)
	if isASCII(s) {
		escaped, err = types.Escape(s)
	} else {
		escaped, err = types.EscapedUTF16String(s)
	}
	if err != nil {
		return "", err
	}
	return types.StringLiteral(*escaped), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
