package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is the document format resolved from the file name suffix.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
)

const (
	ExtPDF  = ".pdf"
	ExtDOCX = ".docx"
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	default:
		return "unknown"
	}
}

// Document is one resume file with its payload. It is not modified after New.
type Document struct {
	Name   string
	Format Format
	Data   []byte
}

// FormatFromName infers the format from a case-insensitive suffix.
func FormatFromName(name string) Format {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasSuffix(lower, ExtPDF):
		return FormatPDF
	case strings.HasSuffix(lower, ExtDOCX):
		return FormatDOCX
	default:
		return FormatUnknown
	}
}

func New(name string, data []byte) Document {
	return Document{
		Name:   name,
		Format: FormatFromName(name),
		Data:   data,
	}
}

// Load reads the file at path. The document name is the base name of the path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading resume %q: %w", path, err)
	}

	return New(filepath.Base(path), data), nil
}

// Names returns document names in order.
func Names(docs []Document) []string {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Name)
	}
	return names
}
