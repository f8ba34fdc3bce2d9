package dynpb

import "github.com/simon-paris/dynpb/internal/tdp"

// Cardinality is a field's declared rule.
type Cardinality int

const (
	Singular Cardinality = iota
	Optional
	Required
	Repeated
)

// primitiveKinds maps the primitive type keywords recognized in a .proto
// field declaration to their wire-level Kind. Anything not in this table is
// a symbolic reference that Resolve must look up in the schema tree.
var primitiveKinds = map[string]tdp.Kind{
	"int32":    tdp.KindInt32,
	"int64":    tdp.KindInt64,
	"uint32":   tdp.KindUint32,
	"uint64":   tdp.KindUint64,
	"sint32":   tdp.KindSint32,
	"sint64":   tdp.KindSint64,
	"fixed32":  tdp.KindFixed32,
	"fixed64":  tdp.KindFixed64,
	"sfixed32": tdp.KindSfixed32,
	"sfixed64": tdp.KindSfixed64,
	"bool":     tdp.KindBool,
	"float":    tdp.KindFloat,
	"double":   tdp.KindDouble,
	"string":   tdp.KindString,
	"bytes":    tdp.KindBytes,
}

// Field describes one field of a Type, before or after resolution.
type Field struct {
	Name     string
	ID       int32
	TypeName string // primitive keyword, or a symbolic (possibly partial) name
	Rule     Cardinality

	Packed  *bool // nil: use the schema's default packing preference
	IsMap   bool
	KeyType string // primitive keyword for the map key, valid when IsMap
	IsGroup bool
	Extend  string // non-empty for extension fields: the target type's name
	Options map[string]string

	OneofIndex int // index into the declaring Type's Oneofs, or -1

	parent *Type // the Type this field is declared on (for an extending field, its declaring message, or nil at file scope; the sister field's parent is the extended type)

	// declScope is the lexical scope (dotted package, usually) an
	// extension field was declared in before it attached to its target,
	// when that scope isn't expressible as parent (file-scoped extend
	// declarations have no declaring Type). Unused once parent is set.
	declScope string

	// populated by resolve():
	resolved     bool
	isBasic      bool
	basicKind    tdp.Kind
	resolvedMsg  *Type
	resolvedEnum *Enum

	// extension cross-links, populated by the deferred-extension protocol.
	extensionField *Field // on the extending field: the sister field living in the target Type
	declaringField *Field // on the sister field: the original extending field
}

// NewField creates a field declaration. Resolve must be called (indirectly,
// via Root.ResolveAll) before it can be used by a decoder.
func NewField(name string, id int32, typeName string, rule Cardinality) *Field {
	return &Field{Name: name, ID: id, TypeName: typeName, Rule: rule, OneofIndex: -1}
}

// Parent returns the Type this field is declared on.
func (f *Field) Parent() *Type { return f.parent }

// IsResolved reports whether resolve() has run successfully for this field.
func (f *Field) IsResolved() bool { return f.resolved }

// IsBasic reports whether the field's type is a wire primitive (as opposed
// to a message or enum reference).
func (f *Field) IsBasic() bool { return f.isBasic }

// BasicKind returns the wire Kind for a basic field. Valid only when
// IsBasic is true.
func (f *Field) BasicKind() tdp.Kind { return f.basicKind }

// ResolvedMessage returns the Type this field refers to, if its resolved
// type is a message.
func (f *Field) ResolvedMessage() *Type { return f.resolvedMsg }

// ResolvedEnum returns the Enum this field refers to, if its resolved type
// is an enum. Enum-typed fields decode exactly like int32 (see resolver.go).
func (f *Field) ResolvedEnum() *Enum { return f.resolvedEnum }

// effectivePacked reports whether this field should prefer the packed wire
// representation: the explicit Packed setting when present, otherwise
// proto3Default (proto3 packs packable repeated scalars by default; proto2
// does not). The decoder accepts either representation regardless of this
// value (see compileRepeated in compile.go); it only affects which encoding
// an encoder would choose, and is retained here for completeness of the
// schema model.
func (f *Field) effectivePacked(proto3Default bool) bool {
	if f.Packed != nil {
		return *f.Packed
	}
	return proto3Default
}
