// Package ingest turns uploaded source files and typed column lists into
// source columns with sample values.
package ingest

import (
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeUTF8 converts raw file bytes to UTF-8. A UTF-8 or UTF-16 byte order
// mark selects that encoding and is stripped; otherwise valid UTF-8 passes
// through and anything else is read as Latin-1.
func DecodeUTF8(data []byte) ([]byte, error) {
	var fallback transform.Transformer = unicode.UTF8.NewDecoder()
	if !utf8.Valid(data) && !hasUTF16BOM(data) {
		fallback = charmap.ISO8859_1.NewDecoder()
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(fallback), data)
	if err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return out, nil
}

// ReadAllUTF8 reads r fully and decodes it.
func ReadAllUTF8(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return DecodeUTF8(data)
}

func hasUTF16BOM(b []byte) bool {
	return len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF))
}
