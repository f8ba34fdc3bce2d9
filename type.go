package dynpb

import (
	"sync"

	"github.com/simon-paris/dynpb/internal/tdp"
)

// Type is a named message: an ordered list of fields plus the containment
// hierarchy (nested types/enums) a Namespace provides. Once the owning
// Root has been resolved, a Type is immutable and its compiled Program may
// be shared across any number of concurrent decodes.
type Type struct {
	Namespace

	Fields   []*Field
	byID     map[int32]*Field
	Oneofs   []*OneOf
	IsGroup  bool
	Syntax   string // "proto2" or "proto3", as declared by the source file; decoding does not consult it

	root  *Root
	index int // assigned by Root at first use; -1 until then

	compileOnce sync.Once
	program     *tdp.Program
}

// NewType creates an empty message type named name. Use AddField/AddOneOf
// to populate it before the owning Root is resolved.
func NewType(name string) *Type {
	return &Type{
		Namespace: newNamespace(name, nil),
		byID:      make(map[int32]*Field),
		index:     -1,
	}
}

// Index returns this type's stable position in its Root's type registry.
// It is only meaningful after the type has been registered (see
// Root.registerType, called by Root.AddType and Root.AddTypeToPackage).
func (t *Type) Index() int { return t.index }

// Root returns the Root this type belongs to.
func (t *Type) Root() *Root { return t.root }

// AddField appends a field declaration to this type. It is an error to
// reuse a field id (schema invariant: every field id is unique within its
// type).
func (t *Type) AddField(f *Field) error {
	if _, ok := t.byID[f.ID]; ok {
		return &duplicateFieldIDError{Type: t.FullName(), ID: f.ID}
	}
	f.parent = t
	t.Fields = append(t.Fields, f)
	t.byID[f.ID] = f
	if f.OneofIndex >= 0 && f.OneofIndex < len(t.Oneofs) {
		o := t.Oneofs[f.OneofIndex]
		o.FieldIDs = append(o.FieldIDs, f.ID)
	}
	return nil
}

// FieldByID looks up a field by its protobuf field number.
func (t *Type) FieldByID(id int32) (*Field, bool) {
	f, ok := t.byID[id]
	return f, ok
}

// FieldByName looks up a field by its declared name.
func (t *Type) FieldByName(name string) (*Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// AddOneOf appends a oneof group declaration and returns it; its Index is
// its position in Oneofs.
func (t *Type) AddOneOf(name string) *OneOf {
	o := &OneOf{Name: name, Index: len(t.Oneofs)}
	t.Oneofs = append(t.Oneofs, o)
	return o
}

type duplicateFieldIDError struct {
	Type string
	ID   int32
}

func (e *duplicateFieldIDError) Error() string {
	return "dynpb: duplicate field id on " + e.Type
}
