package tdp

import "strings"

// RequiredFieldError reports that decode reached the end of input without
// observing every field marked required. The partially decoded Message is
// retained so the caller (dynpb.Decode) can surface it for diagnosis, per
// the ProtocolError contract.
type RequiredFieldError struct {
	Message *Message
	Missing []string
}

func (e *RequiredFieldError) Error() string {
	return "missing required field(s): " + strings.Join(e.Missing, ", ")
}

// Decode runs prog against r, consuming bytes up to end (an absolute offset
// into r's buffer) and returns the populated Message. If end < 0, decode
// reads to the end of r's buffer. If prog.IsGroup, decode instead reads
// until it observes an end-group tag matching groupID, regardless of end.
//
// registry resolves nested message/group field actions to their Program by
// index; it is consulted lazily, once per nested field, so a Program may
// reference a registry slot that is populated only after this Program
// itself was built (the mechanism that makes self-referential message types
// representable without a forward-declaration pass).
func Decode(r *Reader, prog *Program, registry Registry, groupID int32, end int) (*Message, error) {
	msg := NewMessage()
	if end < 0 {
		end = len(r.Buf())
	}

	for {
		if prog.IsGroup {
			if r.Len() == 0 {
				return msg, errAt(errCodeTruncated, r.Pos())
			}
		} else if r.Pos() >= end {
			break
		}

		startPos := r.Pos()
		tag, err := r.Uvarint()
		if err != nil {
			return msg, err
		}
		if r.Pos() > end && !prog.IsGroup {
			return msg, errAt(errCodeTruncated, startPos)
		}

		id, wt := SplitTag(tag)
		if prog.IsGroup && wt == WireEndGroup {
			if id != groupID {
				return msg, errAt(errCodeEndGroup, startPos)
			}
			break
		}

		action, ok := prog.Tags[tag]
		if !ok {
			if err := r.SkipType(uint64(id), int(wt)); err != nil {
				return msg, err
			}
			continue
		}

		if err := applyAction(r, msg, action, registry, end); err != nil {
			return msg, err
		}
		if !prog.IsGroup && r.Pos() > end {
			return msg, errAt(errCodeTruncated, startPos)
		}
	}

	if len(prog.Required) > 0 {
		var missing []string
		for _, rf := range prog.Required {
			if _, ok := msg.Fields[rf.id]; !ok {
				missing = append(missing, rf.name)
			}
		}
		if len(missing) > 0 {
			return msg, &RequiredFieldError{Message: msg, Missing: missing}
		}
	}

	return msg, nil
}

func applyAction(r *Reader, msg *Message, a *FieldAction, registry Registry, end int) error {
	switch a.Kind {
	case ActionScalar:
		v, err := readScalar(r, a.Prim)
		if err != nil {
			return err
		}
		msg.setOneof(a)
		msg.Fields[a.FieldID] = v
		return nil

	case ActionRepeatedScalar:
		v, err := readScalar(r, a.Prim)
		if err != nil {
			return err
		}
		appendRepeated(msg, a.FieldID, v)
		return nil

	case ActionPackedScalar:
		n, err := r.Uvarint()
		if err != nil {
			return err
		}
		limit := r.Pos() + int(n)
		if limit > end {
			return errAt(errCodeTruncated, r.Pos())
		}
		for r.Pos() < limit {
			v, err := readScalar(r, a.Prim)
			if err != nil {
				return err
			}
			appendRepeated(msg, a.FieldID, v)
		}
		if r.Pos() != limit {
			return errAt(errCodeTruncated, limit)
		}
		return nil

	case ActionMessage:
		n, err := r.Uvarint()
		if err != nil {
			return err
		}
		limit := r.Pos() + int(n)
		if limit > end {
			return errAt(errCodeTruncated, r.Pos())
		}
		nested, err := Decode(r, registry.ProgramAt(a.TypeIndex), registry, 0, limit)
		if err != nil {
			return err
		}
		if r.Pos() != limit {
			return errAt(errCodeTruncated, limit)
		}
		msg.setOneof(a)
		msg.Fields[a.FieldID] = nested
		return nil

	case ActionRepeatedMessage:
		n, err := r.Uvarint()
		if err != nil {
			return err
		}
		limit := r.Pos() + int(n)
		if limit > end {
			return errAt(errCodeTruncated, r.Pos())
		}
		nested, err := Decode(r, registry.ProgramAt(a.TypeIndex), registry, 0, limit)
		if err != nil {
			return err
		}
		if r.Pos() != limit {
			return errAt(errCodeTruncated, limit)
		}
		appendRepeated(msg, a.FieldID, nested)
		return nil

	case ActionGroup:
		nested, err := Decode(r, registry.ProgramAt(a.TypeIndex), registry, a.FieldID, end)
		if err != nil {
			return err
		}
		msg.setOneof(a)
		msg.Fields[a.FieldID] = nested
		return nil

	case ActionRepeatedGroup:
		nested, err := Decode(r, registry.ProgramAt(a.TypeIndex), registry, a.FieldID, end)
		if err != nil {
			return err
		}
		appendRepeated(msg, a.FieldID, nested)
		return nil

	case ActionMap:
		return applyMap(r, msg, a, registry, end)

	default:
		return errAt(errCodeReserved, r.Pos())
	}
}

func appendRepeated(msg *Message, id int32, v any) {
	list, _ := msg.Fields[id].([]any)
	msg.Fields[id] = append(list, v)
}

func readScalar(r *Reader, k Kind) (any, error) {
	switch k {
	case KindInt32:
		return r.Int32()
	case KindInt64:
		return r.Int64()
	case KindUint32:
		return r.Uint32()
	case KindUint64:
		return r.Uint64()
	case KindSint32:
		return r.Sint32()
	case KindSint64:
		return r.Sint64()
	case KindFixed32:
		return r.Fixed32()
	case KindFixed64:
		return r.Fixed64()
	case KindSfixed32:
		return r.Sfixed32()
	case KindSfixed64:
		return r.Sfixed64()
	case KindBool:
		return r.Bool()
	case KindFloat:
		return r.Float()
	case KindDouble:
		return r.Double()
	case KindString:
		return r.String()
	case KindBytes:
		b, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		return cp, err
	default:
		return nil, errAt(errCodeReserved, r.Pos())
	}
}
