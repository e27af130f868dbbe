// Package extract provides text extraction from document formats
// accepted by the ingestion pipeline.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether the file at path has a recognized document
// extension. Unrecognized files are skipped by the ingestion pipeline.
func (e *Extractor) Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md", ".markdown", ".docx", ".odt":
		return true
	}
	return false
}

// Extract reads the file at path and returns its text content.
// For plain text files (.txt, .md, .markdown), content is returned as-is
// (UTF-8 validated). For PDF, DOCX, and ODT, text is extracted from the
// binary format. Returns an error if the file cannot be read or the
// format is unsupported.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt":
		return extractODT(content)
	case ".txt", ".md", ".markdown":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("unsupported document format: %q", ext)
	}
}
