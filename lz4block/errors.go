package lz4block

import (
	"strconv"
	"strings"

	"github.com/pvcod/xfile/errors"
)

var (
	errShortPrefix  = errors.New("block is shorter than its prefix")
	errShortLength  = errors.New("truncated length")
	errShortLiteral = errors.New("truncated literal")
	errShortOffset  = errors.New("truncated offset")
	errZeroOffset   = errors.New("zero offset")
	errOffsetRange  = errors.New("offset exceeds decoded length")
	errPendingMatch = errors.New("block ends with a pending match")
)

// CorruptError indicates a malformed block. It matches errors.ErrCorruptData.
type CorruptError struct {
	// Offset is the position in the source where the error occurred.
	Offset int64

	Cause error
}

func (err CorruptError) Error() string {
	var s strings.Builder
	s.WriteString("lz4: corrupt block at ")
	s.WriteString(strconv.FormatInt(err.Offset, 10))
	if err.Cause != nil {
		s.WriteString(": ")
		s.WriteString(err.Cause.Error())
	}
	return s.String()
}

func (err CorruptError) Unwrap() error {
	return err.Cause
}

func (err CorruptError) Is(target error) bool {
	return target == errors.ErrCorruptData
}
