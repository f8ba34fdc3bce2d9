package dynpb

import (
	"errors"

	"github.com/simon-paris/dynpb/internal/tdp"
)

// Decode decodes data as a message of type t, reading to the end of data.
// t must belong to a Root that has completed ResolveAll.
func Decode(t *Type, data []byte) (*Message, error) {
	return decode(t, tdp.NewReader(data), -1)
}

// DecodeLimit decodes a message of type t from r, reading up to
// r.Pos()+limit (matching the "limit" parameter of spec.md section 4.2's
// decoder contract). Nested length-delimited fields do not go through it
// (internal/tdp.Decode recurses on its own); it is exported for callers
// embedding dynpb messages inside a larger framed protocol.
func DecodeLimit(t *Type, r *tdp.Reader, limit int) (*Message, error) {
	end := r.Pos() + limit
	return decode(t, r, end)
}

func decode(t *Type, r *tdp.Reader, end int) (*Message, error) {
	root := t.Root()
	prog := root.ProgramAt(t.Index())

	raw, err := tdp.Decode(r, prog, root, 0, end)
	msg := &Message{raw: raw, msgType: t}

	if err != nil {
		var rfe *tdp.RequiredFieldError
		if errors.As(err, &rfe) {
			return msg, &ProtocolError{Msg: rfe.Error(), Instance: msg}
		}
		return msg, wrapWireError(err)
	}
	return msg, nil
}
