package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a named resource (file, tab, sheet) does not exist.
var ErrNotFound = errors.New("resource not found")

// ErrConfiguration indicates that a required configuration value is missing or invalid.
var ErrConfiguration = errors.New("configuration error")

// ErrSourceAccess indicates that a source spreadsheet or tab could not be opened.
var ErrSourceAccess = errors.New("source access error")

// ErrHeaderNotFound indicates that no header row qualified in the scanned window.
var ErrHeaderNotFound = errors.New("header row not found")

// ErrRender indicates that writing a sheet to the sink failed.
var ErrRender = errors.New("render error")

// Error attaches the failing operation and its subject (a source kind, a sheet
// name) to an underlying error.
type Error struct {
	Op      string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Subject, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil when err is nil.
func Wrap(op, subject string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Subject: subject, Err: err}
}

// Configurationf builds an ErrConfiguration with a formatted detail.
func Configurationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// SourceAccess marks err as a source access failure for the given subject.
func SourceAccess(subject string, err error) error {
	return &Error{Op: "open source", Subject: subject, Err: fmt.Errorf("%w: %w", ErrSourceAccess, err)}
}

// Render marks err as a render failure of the given sheet.
func Render(sheet string, err error) error {
	return &Error{Op: "render", Subject: sheet, Err: fmt.Errorf("%w: %w", ErrRender, err)}
}

// Kind classifies err for logs and metrics labels.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrHeaderNotFound):
		return "header_detection"
	case errors.Is(err, ErrSourceAccess):
		return "source_access"
	case errors.Is(err, ErrRender):
		return "render"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "internal"
}

// Message extracts the text shown to the user in a status object.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
