// Package ocr extracts page text locally with the Tesseract engine through
// gosseract. Tesseract support is compiled in with the "ocr" build tag:
//
//	go build -tags ocr ./...
//
// It requires the Tesseract libraries. On Ubuntu/Debian:
//
//	apt-get install libtesseract-dev tesseract-ocr-eng
//
// Without the tag every constructor returns ErrOCRNotEnabled.
package ocr

import (
	"errors"
	"strings"
)

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "eng"

// ErrOCRNotEnabled is returned when OCR support was not compiled in.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Languages splits a "+" or comma separated list such as "eng+deu".
func Languages(s string) []string {
	var out []string
	for _, l := range strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' }) {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		return []string{DefaultLanguage}
	}
	return out
}

// tidy trims trailing blanks from every line and collapses runs of blank
// lines, which Tesseract emits between layout blocks.
func tidy(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\f")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
