// Package template locates the mandate PDF template in the static storage directory.
package template

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
)

const (
	// FileName is the canonical template file name
	FileName = "Mandat.pdf"
	// FallbackFileName is tried when FileName is absent
	FallbackFileName = "mandat.pdf"
)

var (
	// ErrTemplateNotFound is matched by errors.Is on every *NotFoundError
	ErrTemplateNotFound = errors.New("template not found")
	// ErrInvalidTemplate is returned by Load when the file is not a readable PDF
	ErrInvalidTemplate = errors.New("invalid template")
)

// NotFoundError lists the paths that were tried
type NotFoundError struct {
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template not found (tried %v)", e.Tried)
}

// Is reports whether target is ErrTemplateNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

// Loader reads the template from Dir
type Loader struct {
	Dir         string
	MaxFileSize int64
}

// NewLoader creates a loader for the given directory
func NewLoader(dir string, maxFileSize int64) *Loader {
	return &Loader{Dir: dir, MaxFileSize: maxFileSize}
}

// Path returns the path of the template that Load would read
func (l *Loader) Path() (string, error) {
	tried := make([]string, 0, 2)
	for _, name := range []string{FileName, FallbackFileName} {
		path := filepath.Join(l.Dir, name)
		tried = append(tried, path)

		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("cannot access template: %w", err)
		}
		if info.IsDir() {
			continue
		}
		return path, nil
	}
	return "", &NotFoundError{Tried: tried}
}

// Load reads the template bytes and rejects files that do not parse as PDF
func (l *Loader) Load() ([]byte, error) {
	path, err := l.Path()
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access template: %w", err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("template is empty: %s", path)
	}
	if l.MaxFileSize > 0 && info.Size() > l.MaxFileSize {
		return nil, fmt.Errorf("template too large: %d bytes (max: %d bytes)", info.Size(), l.MaxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	if _, err := Inspect(data); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidTemplate, path, err)
	}
	return data, nil
}

// Info summarizes a template for diagnostics
type Info struct {
	Size      int64 `json:"size"`
	PageCount int   `json:"page_count"`
}

// Inspect opens the template with an independent parser and reports its page count
func Inspect(data []byte) (*Info, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid PDF file: %w", err)
	}
	return &Info{Size: int64(len(data)), PageCount: r.NumPage()}, nil
}
