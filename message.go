package dynpb

import "github.com/simon-paris/dynpb/internal/tdp"

// Message is a decoded message value: a schema-aware view over the
// generic field-id-keyed bag of values internal/tdp.Decode produced.
// Message values are created per decode call and owned by the caller.
type Message struct {
	raw     *tdp.Message
	msgType *Type
}

// Type returns the schema Type this message was decoded against.
func (m *Message) Type() *Type { return m.msgType }

// Has reports whether field was set on the wire (present in the decoded
// value). For singular fields this distinguishes "explicitly set to the
// zero value" from "absent"; for repeated/map fields it reports whether
// the list/map is non-empty.
func (m *Message) Has(field *Field) bool {
	if m == nil || m.raw == nil {
		return false
	}
	_, ok := m.raw.Fields[field.ID]
	return ok
}

// Get returns the raw decoded value for field, or nil if absent. The
// concrete type depends on the field's kind: a Go scalar for basic
// singular fields, *Message for singular message/group fields, []any for
// repeated fields, and map[any]any for map fields (see internal/tdp.Message
// for the exact encoding). Callers generally prefer the typed accessors
// below over Get.
func (m *Message) Get(field *Field) any {
	if m == nil || m.raw == nil {
		return nil
	}
	return m.raw.Fields[field.ID]
}

// GetMessage returns the nested message stored in field, wrapped with its
// schema type, or nil if absent or not a message-typed field.
func (m *Message) GetMessage(field *Field) *Message {
	raw, _ := m.Get(field).(*tdp.Message)
	if raw == nil {
		return nil
	}
	return &Message{raw: raw, msgType: field.ResolvedMessage()}
}

// GetRepeated returns the raw elements of a repeated field, in wire order.
func (m *Message) GetRepeated(field *Field) []any {
	list, _ := m.Get(field).([]any)
	return list
}

// GetRepeatedMessages returns the elements of a repeated message/group
// field, each wrapped with its schema type.
func (m *Message) GetRepeatedMessages(field *Field) []*Message {
	list := m.GetRepeated(field)
	if list == nil {
		return nil
	}
	out := make([]*Message, len(list))
	for i, v := range list {
		raw, _ := v.(*tdp.Message)
		out[i] = &Message{raw: raw, msgType: field.ResolvedMessage()}
	}
	return out
}

// GetMap returns the raw key->value pairs of a map field. Keys for 64-bit
// integer key types are the stringified "hi32:lo32" form produced by
// internal/tdp.HashMapKey, per spec.md section 4.2.
func (m *Message) GetMap(field *Field) map[any]any {
	mp, _ := m.Get(field).(map[any]any)
	return mp
}

// Which returns the field id currently set within the oneof group
// identified by oneofIndex, and whether any member is set at all.
func (m *Message) Which(oneofIndex int) (fieldID int32, ok bool) {
	if m == nil || m.raw == nil {
		return 0, false
	}
	id, ok := m.raw.Which[oneofIndex]
	return id, ok
}
