package tdp

// Kind identifies a scalar wire-level representation. It is distinct from
// any symbolic "proto type": the generic decode loop only needs to know how
// many bytes to consume and how to box the result.
type Kind uint8

const (
	KindInt32 Kind = iota
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindBool
	KindFloat
	KindDouble
	KindString
	KindBytes
)

// BasicWireType returns the wire type a Kind is ordinarily encoded with.
func (k Kind) BasicWireType() uint8 {
	switch k {
	case KindInt32, KindInt64, KindUint32, KindUint64, KindSint32, KindSint64, KindBool:
		return WireVarint
	case KindFixed64, KindSfixed64, KindDouble:
		return WireFixed64
	case KindString, KindBytes:
		return WireBytes
	case KindFixed32, KindSfixed32, KindFloat:
		return WireFixed32
	default:
		return WireVarint
	}
}

// Packable reports whether repeated fields of this Kind may use the packed
// wire representation (everything except strings and byte slices).
func (k Kind) Packable() bool {
	switch k {
	case KindString, KindBytes:
		return false
	default:
		return true
	}
}

// ActionKind identifies the shape of a field action in a Program's dispatch
// table.
type ActionKind uint8

const (
	ActionScalar ActionKind = iota
	ActionRepeatedScalar
	ActionPackedScalar
	ActionMessage
	ActionRepeatedMessage
	ActionGroup
	ActionRepeatedGroup
	ActionMap
)

// FieldAction is one entry of a Program's dispatch table: what to do when a
// particular (field id, wire type) tag is observed.
type FieldAction struct {
	Kind ActionKind
	Prim Kind // valid for the Scalar/Repeated/Packed variants.

	// TypeIndex is a registry index, valid for Message/Group variants. It is
	// resolved through the Registry passed to Decode, not dereferenced here,
	// so that cyclic message types (a type that nests itself) never require
	// the Program to exist before it is fully built.
	TypeIndex int

	FieldID  int32
	OneofIdx int // -1 if the field is not part of a oneof.
	Required bool

	// Map-only: the wire kind of the virtual key field (1) and the action
	// describing the virtual value field (2).
	MapKey   Kind
	MapValue *FieldAction
}

// Registry resolves a message TypeIndex to the Program that decodes it. It
// is implemented by the schema layer (dynpb), which owns the mapping from
// index to resolved message Type and lazily compiles each Type's Program on
// first use.
type Registry interface {
	ProgramAt(index int) *Program
}
