// Package errs enthält die Fehler-Taxonomie, die zwischen Query-Client, Cache,
// Services und HTTP-Schicht geteilt wird.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput markiert ungültige Identifier oder Parameter. Wird nie wiederholt.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound: gültiger Identifier, aber keine Zeilen vom Upstream.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited: Upstream hat mit 429 geantwortet.
	ErrRateLimited = errors.New("upstream rate limited")
	// ErrUnavailable: Upstream nicht erreichbar oder 502/503.
	ErrUnavailable = errors.New("upstream unavailable")
	// ErrTimeout: clientseitiges Zeitlimit überschritten oder Upstream-Query-Timeout.
	ErrTimeout = errors.New("query timeout")
	// ErrUpstream fasst alle übrigen Upstream-Fehler zusammen (4xx, kaputte Query, 5xx ohne Timeout).
	ErrUpstream = errors.New("upstream query failed")

	// ErrPartialFailure wird nur intern verwendet, wenn ein Traversal-Zweig aufgegeben wurde.
	ErrPartialFailure = errors.New("partial failure")

	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateRender   = errors.New("template render error")
)

// Invalid erzeugt einen ErrInvalidInput mit Beschreibung.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsRetryable meldet, ob der Query-Client den Fehler mit Backoff wiederholen darf.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
