package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// wtTag matches <w:t>text</w:t> including variants carrying attributes
// such as <w:t xml:space="preserve">.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// extractDOCX extracts text from .docx bytes. DOCX is a ZIP containing
// word/document.xml (OOXML). All <w:t>...</w:t> text nodes are collected
// so content survives regardless of paragraph or run attributes.
func extractDOCX(content []byte) (string, error) {
	docXML, err := readZipEntry(content, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}

	parts := wtTag.FindAllStringSubmatch(docXML, -1)
	if len(parts) == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(p[1]))
	}
	return strings.TrimSpace(b.String()), nil
}

// readZipEntry locates name inside the zip archive content and returns
// its contents as a string.
func readZipEntry(content []byte, name string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a zip: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open %s: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%s not found", name)
}
