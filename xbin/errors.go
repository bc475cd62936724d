package xbin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pvcod/xfile/errors"
)

var (
	// Indicates an unexpected file signature.
	ErrInvalidSig = errors.New("invalid signature")
	// Indicates a record tag not known by the codec.
	ErrUnknownTag = errors.New("unknown record tag")
	// Indicates a record that does not belong at its position.
	ErrUnexpectedRecord = errors.New("unexpected record")
	// Indicates that the stream ended before the grammar was satisfied.
	ErrMissingRecord = errors.New("missing record")
	// Indicates records after the end of the grammar.
	ErrTrailingRecords = errors.New("trailing records")
	// Indicates content left over after a record was parsed.
	ErrTrailingBytes = errors.New("record has trailing bytes")
	// Indicates a vertex with more weights than the format allows.
	ErrTooManyWeights = errors.New("too many weights")
)

// ErrUnrecognizedVersion indicates a format version not recognized by the
// codec.
type ErrUnrecognizedVersion uint16

func (err ErrUnrecognizedVersion) Error() string {
	return fmt.Sprintf("unrecognized version %d", err)
}

func (err ErrUnrecognizedVersion) Is(target error) bool {
	return target == errors.ErrUnsupportedVersion
}

// DataError wraps an error that occurred while encoding or decoding byte data.
// Errors that are not already classified match errors.ErrMalformedStream.
type DataError struct {
	// Offset is the byte offset where the error occurred.
	Offset int64

	Cause error
}

func (err DataError) Error() string {
	var s strings.Builder
	s.WriteString("data error")
	if err.Offset >= 0 {
		s.WriteString(" at ")
		s.Write(strconv.AppendInt(nil, err.Offset, 10))
	}
	if err.Cause != nil {
		s.WriteString(": ")
		s.WriteString(err.Cause.Error())
	}
	return s.String()
}

func (err DataError) Unwrap() error {
	return err.Cause
}

func (err DataError) Is(target error) bool {
	return target == errors.ErrMalformedStream && !classified(err.Cause)
}

// RecordError indicates an error that occurred within a record. Errors that are
// not already classified match errors.ErrMalformedStream.
type RecordError struct {
	// Index is the position of the record within the payload.
	Index int
	// Tag is the tag of the record.
	Tag uint16

	Cause error
}

func (err RecordError) Error() string {
	if err.Index < 0 {
		return fmt.Sprintf("%s (0x%04X) record: %s", tagName(err.Tag), err.Tag, err.Cause.Error())
	}
	return fmt.Sprintf("#%d %s (0x%04X) record: %s", err.Index, tagName(err.Tag), err.Tag, err.Cause.Error())
}

func (err RecordError) Unwrap() error {
	return err.Cause
}

func (err RecordError) Is(target error) bool {
	return target == errors.ErrMalformedStream && !classified(err.Cause)
}

// classified returns whether err already matches one of the error kinds other
// than ErrMalformedStream.
func classified(err error) bool {
	return errors.Is(err, errors.ErrCorruptData) ||
		errors.Is(err, errors.ErrUnsupportedVersion) ||
		errors.Is(err, errors.ErrValidation)
}

// CodecError wraps an error that occurred while converting between a model or
// anim and the records of the format.
type CodecError struct {
	Cause error
}

func (err CodecError) Error() string {
	if err.Cause == nil {
		return "codec error"
	}
	return "codec error: " + err.Cause.Error()
}

func (err CodecError) Unwrap() error {
	return err.Cause
}
