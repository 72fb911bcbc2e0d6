package errs

import (
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

func New(msg string) error {
	return cr.New(msg)
}

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

// Mark attaches a sentinel to err so errors.Is(err, sentinel) holds while the
// original cause chain stays intact.
func Mark(err error, sentinel error) error {
	if err == nil {
		return sentinel
	}
	return cr.Mark(&markedError{cause: err, sentinel: sentinel}, sentinel)
}

// markedError keeps both the cause and the sentinel in the stdlib unwrap
// chain; cr.Mark alone exposes only the cause via Unwrap, which hides the
// sentinel from errors.Is.
type markedError struct {
	cause    error
	sentinel error
}

func (m *markedError) Error() string   { return m.cause.Error() }
func (m *markedError) Unwrap() []error { return []error{m.cause, m.sentinel} }

func Is(err, target error) bool {
	return cr.Is(err, target)
}

func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
