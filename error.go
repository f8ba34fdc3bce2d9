package dynpb

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simon-paris/dynpb/internal/tdp"
)

// TruncatedError reports that the wire stream ended before a field, tag, or
// length-delimited payload was fully consumed.
type TruncatedError struct {
	Offset int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("dynpb: truncated input at offset %d", e.Offset)
}

// MalformedError reports ill-formed input that is not simple truncation: a
// varint with too many continuation bytes, a reserved wire type, a
// mismatched group, or invalid UTF-8 in a string field.
type MalformedError struct {
	Offset int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("dynpb: malformed input at offset %d: %s", e.Offset, e.Reason)
}

// ProtocolError reports a schema contract violation discovered during
// decode, most commonly a missing required field. The partially decoded
// message is retained on Instance to aid diagnosis.
type ProtocolError struct {
	Msg      string
	Instance *Message
}

func (e *ProtocolError) Error() string { return "dynpb: " + e.Msg }

// UnresolvedReferenceError reports that a field's declared type name could
// not be found anywhere in its lexical scope chain during Resolve.
type UnresolvedReferenceError struct {
	Field    string
	TypeName string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("dynpb: unresolved reference %q on field %q", e.TypeName, e.Field)
}

// UnresolvableExtensionsError reports that Root.ResolveAll finished with a
// non-empty deferred-extension list: one or more `extend` targets were
// never loaded.
type UnresolvableExtensionsError struct {
	Pending []PendingExtension
}

// PendingExtension names one extending field that never found its target.
type PendingExtension struct {
	ExtendTarget string
	DeclaredIn   string
}

func (e *UnresolvableExtensionsError) Error() string {
	return fmt.Sprintf("dynpb: %d extension field(s) never resolved their extend target", len(e.Pending))
}

// FetchError wraps a failure returned by a Fetcher collaborator. LoadID
// identifies the Load/LoadSync call it happened under, so an error
// logged from one of several concurrent asynchronous fetch goroutines can
// still be matched back to the load that issued it.
type FetchError struct {
	Filename string
	Err      error
	LoadID   uuid.UUID
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("dynpb: fetch %q: %v (load %s)", e.Filename, e.Err, e.LoadID)
}
func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps a failure returned by a Parser collaborator. See
// FetchError for LoadID's purpose.
type ParseError struct {
	Filename string
	Err      error
	LoadID   uuid.UUID
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dynpb: parse %q: %v (load %s)", e.Filename, e.Err, e.LoadID)
}
func (e *ParseError) Unwrap() error { return e.Err }

// ErrNotSupported is returned by LoadSync when no synchronous read
// primitive was configured.
var ErrNotSupported = errors.New("dynpb: LoadSync requires a synchronous Fetcher")

// wrapWireError translates an internal/tdp low-level error into the public
// Truncated/Malformed error kinds.
func wrapWireError(err error) error {
	if err == nil {
		return nil
	}
	var rfe *tdp.RequiredFieldError
	if errors.As(err, &rfe) {
		// Handled by the caller, which has the schema needed to name fields;
		// see decode.go. Reaching here means it was not intercepted.
		return &ProtocolError{Msg: rfe.Error()}
	}
	var te *tdp.Error
	if errors.As(err, &te) {
		if te.Truncated() {
			return &TruncatedError{Offset: te.Offset}
		}
		return &MalformedError{Offset: te.Offset, Reason: te.Unwrap().Error()}
	}
	return err
}
