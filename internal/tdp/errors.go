// Package tdp is the table-driven parser: the generic decode loop that
// interprets a compiled [Program] against a byte buffer. It knows nothing
// about descriptors or symbolic names; those live one layer up, in the
// dynpb package, which compiles a Program from a resolved schema Type.
package tdp

import (
	"errors"
	"fmt"
)

const (
	errCodeOK errCode = iota
	errCodeTruncated
	errCodeOverflow
	errCodeReserved
	errCodeEndGroup
	errCodeUTF8
)

type errCode int

var errSentinels = [...]error{
	errCodeOK:        nil,
	errCodeTruncated: errors.New("unexpected end of buffer"),
	errCodeOverflow:  errors.New("varint overflows 64 bits"),
	errCodeReserved:  errors.New("reserved or unknown wire type"),
	errCodeEndGroup:  errors.New("mismatched end-group marker"),
	errCodeUTF8:      errors.New("invalid UTF-8 in string field"),
}

// Error is a parse failure at a specific cursor offset. Callers outside this
// package should inspect it with [errors.As] and classify it with
// [Error.Truncated] or [Error.Malformed]; dynpb.Decode does this to produce
// the public Truncated/Malformed error kinds.
type Error struct {
	code   errCode
	Offset int
}

func (e *Error) Error() string {
	return fmt.Sprintf("tdp: parse error at offset %d: %v", e.Offset, e.Unwrap())
}

// Unwrap implements error unwrapping via [errors.Unwrap].
func (e *Error) Unwrap() error { return errSentinels[e.code] }

// Truncated reports whether this error represents running out of input.
func (e *Error) Truncated() bool { return e.code == errCodeTruncated }

// Malformed reports whether this error represents ill-formed input that is
// not simply truncation (bad varint, reserved wire type, bad UTF-8, group
// mismatch).
func (e *Error) Malformed() bool { return !e.Truncated() }

func errAt(code errCode, offset int) *Error { return &Error{code: code, Offset: offset} }
