// The errors package provides additional error primitives, including the error
// kinds shared by every codec in the module.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

func New(text string) error {
	return errors.New(text)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Error kinds. Every error produced by a codec wraps exactly one of these, so
// that callers can classify a failure with Is.
var (
	// ErrCorruptData indicates a malformed LZ4 block: truncated fields, a zero
	// offset, or an inconsistent terminal state.
	ErrCorruptData = errors.New("corrupt data")
	// ErrMalformedStream indicates a violation of a record grammar: an
	// out-of-order or unknown record, an out-of-range index, or non-monotonic
	// frame numbers.
	ErrMalformedStream = errors.New("malformed stream")
	// ErrUnsupportedVersion indicates a format version outside of the
	// supported set.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrValidation indicates recoverable content issues. Errors of this kind
	// are returned as warnings, never as failures.
	ErrValidation = errors.New("validation warning")
)

// Kind wraps cause so that it matches kind with Is. If cause is nil, kind is
// returned.
func Kind(kind, cause error) error {
	if cause == nil {
		return kind
	}
	return kindError{kind: kind, cause: cause}
}

type kindError struct {
	kind  error
	cause error
}

func (err kindError) Error() string {
	return err.cause.Error()
}

func (err kindError) Unwrap() error {
	return err.cause
}

func (err kindError) Is(target error) bool {
	return target == err.kind
}

// Warning is a recoverable content issue. The operation that produced it
// completed by applying a documented fallback.
type Warning struct {
	Cause error
}

// Warnf returns a Warning with a formatted cause.
func Warnf(format string, v ...interface{}) Warning {
	return Warning{Cause: fmt.Errorf(format, v...)}
}

func (w Warning) Error() string {
	if w.Cause == nil {
		return "warning"
	}
	return "warning: " + w.Cause.Error()
}

func (w Warning) Unwrap() error {
	return w.Cause
}

func (w Warning) Is(target error) bool {
	return target == ErrValidation
}

// Errors is a list of errors.
type Errors []error

// Errors formats the list by separating each message with a newline. Each
// produced line, including lines within messages, is prefixed with a tab.
func (errs Errors) Error() string {
	switch len(errs) {
	case 0:
		return "no errors"
	case 1:
		return errs[0].Error()
	default:
		var buf strings.Builder
		buf.WriteString("multiple errors:")
		for _, err := range errs {
			buf.WriteString("\n\t")
			msg := err.Error()
			msg = strings.ReplaceAll(msg, "\n", "\n\t")
			buf.WriteString(msg)
		}
		return buf.String()
	}
}

// Unwrap returns the errors of the list, so that Is and As inspect each of
// them.
func (errs Errors) Unwrap() []error {
	return errs
}

// Append returns errs with each err appended to it. Arguments that are nil are
// skipped.
func (errs Errors) Append(err ...error) Errors {
	for _, err := range err {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Warnf appends a formatted Warning to errs.
func (errs Errors) Warnf(format string, v ...interface{}) Errors {
	return append(errs, Warnf(format, v...))
}

// Return prepares errs to be returned by a function by returning nil if errs is
// empty.
func (errs Errors) Return() error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Union receives a number of errors and combines them into one Errors. Any errs
// that are Errors are concatenated directly. Returns nil if all errs are nil or
// empty.
func Union(errs ...error) error {
	var e Errors
	for _, err := range errs {
		switch err := err.(type) {
		case nil:
			continue
		case Errors:
			for _, err := range err {
				if err != nil {
					e = append(e, err)
				}
			}
		default:
			e = append(e, err)
		}
	}
	return e.Return()
}

// List flattens err into its individual errors. A nil err produces an empty
// list.
func List(err error) Errors {
	switch err := err.(type) {
	case nil:
		return nil
	case Errors:
		return err
	default:
		return Errors{err}
	}
}
