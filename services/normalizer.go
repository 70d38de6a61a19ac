package services

import (
	"regexp"
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var multiSpace = regexp.MustCompile(`\s+`)

// cleanLabel normalisiert ein Label aus dem Label-Service: NFC, Whitespace zusammengefasst.
func cleanLabel(s string) string {
	t := transform.Chain(norm.NFC)
	normalized, _, err := transform.String(t, s)
	if err != nil {
		normalized = s
	}
	return strings.TrimSpace(multiSpace.ReplaceAllString(normalized, " "))
}
