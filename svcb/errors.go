package svcb

import (
	"errors"
	"fmt"
)

// Code classifies a decoding failure. The set is closed: malformed input is
// always reported as one of these, never guessed around.
type Code uint8

const (
	CodeBadMagic Code = iota
	CodeUnsupportedVersion
	CodeUnknownBlockType
	CodeTruncatedStream
	CodeIntegerOverflow
	CodeInvalidUTF8
	CodeInvalidLogicValue
	CodeDuplicateID
	CodeUnknownReference
	CodeWidthMismatch
	CodeInvalidField
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case CodeBadMagic:
		return "BadMagic"
	case CodeUnsupportedVersion:
		return "UnsupportedVersion"
	case CodeUnknownBlockType:
		return "UnknownBlockType"
	case CodeTruncatedStream:
		return "TruncatedStream"
	case CodeIntegerOverflow:
		return "IntegerOverflow"
	case CodeInvalidUTF8:
		return "InvalidUtf8"
	case CodeInvalidLogicValue:
		return "InvalidLogicValue"
	case CodeDuplicateID:
		return "DuplicateId"
	case CodeUnknownReference:
		return "UnknownReference"
	case CodeWidthMismatch:
		return "WidthMismatch"
	case CodeInvalidField:
		return "InvalidField"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

// Error is a decoding failure with the byte offset and block index where it
// was detected. Offset and Block are -1 when the failure did not come from a
// stream position (registry calls made directly by the caller).
type Error struct {
	Code   Code
	Offset int64
	Block  int
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("svcb: %s: %s", e.Code, e.Detail)
	}
	if e.Block < 0 {
		return fmt.Sprintf("svcb: %s at offset %d: %s", e.Code, e.Offset, e.Detail)
	}
	return fmt.Sprintf("svcb: %s at offset %d (block %d): %s", e.Code, e.Offset, e.Block, e.Detail)
}

func errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Offset: -1, Block: -1, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the failure code from an error returned by this package.
// ok is false for nil and for foreign errors.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
