package tdp

// applyMap decodes one entry of a map<K,V> field. The wire representation
// of a map field is a repeated message with two virtual fields: 1 (key) and
// 2 (value). Per field, the last-seen entry for a given key wins (ordinary
// singular-field overwrite semantics applied to the synthetic entry
// message), which this implementation achieves by inserting directly into
// the destination Go map rather than building an intermediate *Message.
func applyMap(r *Reader, msg *Message, a *FieldAction, registry Registry, end int) error {
	n, err := r.Uvarint()
	if err != nil {
		return err
	}
	limit := r.Pos() + int(n)
	if limit > end {
		return errAt(errCodeTruncated, r.Pos())
	}

	key := zeroForKind(a.MapKey)
	var val any
	haveVal := false

	for r.Pos() < limit {
		tag, err := r.Uvarint()
		if err != nil {
			return err
		}
		id, wt := SplitTag(tag)
		switch {
		case id == 1 && wt == a.MapKey.BasicWireType():
			key, err = readScalar(r, a.MapKey)
			if err != nil {
				return err
			}
		case id == 2:
			val, err = decodeMapValue(r, a.MapValue, registry, limit, wt)
			if err != nil {
				return err
			}
			haveVal = true
		default:
			if err := r.SkipType(uint64(id), int(wt)); err != nil {
				return err
			}
		}
	}
	if r.Pos() != limit {
		return errAt(errCodeTruncated, limit)
	}
	if !haveVal {
		val = zeroMapValue(a.MapValue)
	}

	m, _ := msg.Fields[a.FieldID].(map[any]any)
	if m == nil {
		m = make(map[any]any)
		msg.Fields[a.FieldID] = m
	}
	m[mapKeyIndex(a.MapKey, key)] = val
	return nil
}

func decodeMapValue(r *Reader, valueAction *FieldAction, registry Registry, limit int, wt uint8) (any, error) {
	switch valueAction.Kind {
	case ActionMessage:
		n, err := r.Uvarint()
		if err != nil {
			return nil, err
		}
		msgLimit := r.Pos() + int(n)
		if msgLimit > limit {
			return nil, errAt(errCodeTruncated, r.Pos())
		}
		nested, err := Decode(r, registry.ProgramAt(valueAction.TypeIndex), registry, 0, msgLimit)
		if err != nil {
			return nil, err
		}
		if r.Pos() != msgLimit {
			return nil, errAt(errCodeTruncated, msgLimit)
		}
		return nested, nil
	default:
		return readScalar(r, valueAction.Prim)
	}
}

func zeroForKind(k Kind) any {
	switch k {
	case KindString:
		return ""
	case KindBytes:
		return []byte(nil)
	case KindBool:
		return false
	case KindFloat:
		return float32(0)
	case KindDouble:
		return float64(0)
	case KindInt64, KindSint64, KindSfixed64:
		return int64(0)
	case KindUint64, KindFixed64:
		return uint64(0)
	default:
		return int32(0)
	}
}

func zeroMapValue(a *FieldAction) any {
	if a.Kind == ActionMessage {
		return (*Message)(nil)
	}
	return zeroForKind(a.Prim)
}

// mapKeyIndex converts a decoded key value into the value actually used to
// index the output Go map. 64-bit integer keys are stringified via a stable
// hash since map[uint64] keys of differing sign-extension would otherwise
// collide or split unpredictably across platforms; every other key kind is
// used as-is (Go maps natively support string, bool, and 32-bit int keys).
func mapKeyIndex(k Kind, v any) any {
	switch k {
	case KindInt64, KindSint64, KindSfixed64:
		return HashMapKey(uint64(v.(int64)))
	case KindUint64, KindFixed64:
		return HashMapKey(v.(uint64))
	default:
		return v
	}
}
