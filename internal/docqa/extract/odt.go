package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// OpenDocument text elements. Separate patterns keep opening and closing
// tags matched (e.g. <text:p>...</text:p> only).
var (
	odtTextP    = regexp.MustCompile(`<text:p[^>]*>([^<]*)</text:p>`)
	odtTextH    = regexp.MustCompile(`<text:h[^>]*>([^<]*)</text:h>`)
	odtTextSpan = regexp.MustCompile(`<text:span[^>]*>([^<]*)</text:span>`)
)

// extractODT extracts text from .odt bytes. ODT is a ZIP containing
// content.xml (OpenDocument). Text is collected from text:h, text:p,
// and text:span elements.
func extractODT(content []byte) (string, error) {
	contentXML, err := readZipEntry(content, "content.xml")
	if err != nil {
		return "", fmt.Errorf("extract ODT: %w", err)
	}

	var b strings.Builder
	for _, re := range []*regexp.Regexp{odtTextH, odtTextP, odtTextSpan} {
		for _, m := range re.FindAllStringSubmatch(contentXML, -1) {
			text := strings.TrimSpace(m[1])
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(text)
		}
	}
	return b.String(), nil
}
