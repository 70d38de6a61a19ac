package models

import (
	"regexp"

	"lit-explorer/errs"
)

var qidPattern = regexp.MustCompile(`^Q[0-9]+$`)

// ValidQID prüft das Wikidata-Identifier-Format Q<ziffern>.
func ValidQID(s string) bool {
	return qidPattern.MatchString(s)
}

// ValidateQIDs liefert ErrInvalidInput für den ersten ungültigen Identifier.
func ValidateQIDs(qids ...string) error {
	for _, q := range qids {
		if !ValidQID(q) {
			return errs.Invalid("invalid identifier %q", q)
		}
	}
	return nil
}
