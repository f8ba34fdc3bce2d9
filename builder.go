package dynpb

import (
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"
)

// scalarKeyword maps a descriptorpb scalar field type to the primitive
// keyword used throughout this package's schema model (see field.go's
// primitiveKinds). Message, group, and enum fields are handled separately,
// via the field's symbolic TypeName.
var scalarKeyword = map[descriptorpb.FieldDescriptorProto_Type]string{
	descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:   "double",
	descriptorpb.FieldDescriptorProto_TYPE_FLOAT:    "float",
	descriptorpb.FieldDescriptorProto_TYPE_INT64:    "int64",
	descriptorpb.FieldDescriptorProto_TYPE_UINT64:   "uint64",
	descriptorpb.FieldDescriptorProto_TYPE_INT32:    "int32",
	descriptorpb.FieldDescriptorProto_TYPE_FIXED64:  "fixed64",
	descriptorpb.FieldDescriptorProto_TYPE_FIXED32:  "fixed32",
	descriptorpb.FieldDescriptorProto_TYPE_BOOL:     "bool",
	descriptorpb.FieldDescriptorProto_TYPE_STRING:   "string",
	descriptorpb.FieldDescriptorProto_TYPE_BYTES:    "bytes",
	descriptorpb.FieldDescriptorProto_TYPE_UINT32:   "uint32",
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED32: "sfixed32",
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED64: "sfixed64",
	descriptorpb.FieldDescriptorProto_TYPE_SINT32:   "sint32",
	descriptorpb.FieldDescriptorProto_TYPE_SINT64:   "sint64",
}

// BuildFile ingests an already-parsed FileDescriptorProto into root,
// populating its schema tree. It returns the file's import list and the
// subset of those imports that are weak, exactly the {imports,
// weakImports} shape spec.md assigns to the external parse collaborator -
// the Root loader (loader.go) uses this to drive further fetches.
//
// BuildFile does not itself resolve symbolic field types or attach
// extensions to types that have not been loaded yet; that is Root's job
// (resolver.go, extension.go), run after every file in the import graph has
// been ingested.
func BuildFile(root *Root, fd *descriptorpb.FileDescriptorProto) (imports, weakImports []string, err error) {
	pkg := fd.GetPackage()

	weak := make(map[int32]bool, len(fd.GetWeakDependency()))
	for _, idx := range fd.GetWeakDependency() {
		weak[idx] = true
	}
	for i, dep := range fd.GetDependency() {
		imports = append(imports, dep)
		if weak[int32(i)] {
			weakImports = append(weakImports, dep)
		}
	}

	for _, mt := range fd.GetMessageType() {
		t, err := buildMessageType(root, mt, pkg, fd.GetSyntax())
		if err != nil {
			return imports, weakImports, err
		}
		if err := root.AddTypeToPackage(pkg, t); err != nil {
			return imports, weakImports, err
		}
	}

	for _, et := range fd.GetEnumType() {
		e := buildEnum(et, pkg)
		if err := root.AddEnumToPackage(pkg, e); err != nil {
			return imports, weakImports, err
		}
	}

	for _, ext := range fd.GetExtension() {
		f := buildField(ext, pkg)
		root.AddExtensionField(f, nil, pkg)
	}

	return imports, weakImports, nil
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

func buildMessageType(root *Root, mt *descriptorpb.DescriptorProto, pkg, syntax string) (*Type, error) {
	t := NewType(mt.GetName())
	t.Syntax = syntax
	if t.Syntax == "" {
		t.Syntax = "proto2"
	}

	ownPkg := qualify(pkg, mt.GetName())

	for _, od := range mt.GetOneofDecl() {
		t.AddOneOf(od.GetName())
	}

	mapEntries := mapEntryInfo(mt)

	for _, fdp := range mt.GetField() {
		if entry, ok := mapEntries[fdp.GetName()]; ok {
			f := buildMapField(fdp, entry, ownPkg)
			if err := t.AddField(f); err != nil {
				return nil, err
			}
			continue
		}
		f := buildField(fdp, ownPkg)
		if err := t.AddField(f); err != nil {
			return nil, err
		}
	}

	for _, nt := range mt.GetNestedType() {
		if nt.GetOptions().GetMapEntry() {
			continue // synthesized map-entry types are not exposed as schema types
		}
		nested, err := buildMessageType(root, nt, ownPkg, syntax)
		if err != nil {
			return nil, err
		}
		if err := t.AddType(nested); err != nil {
			return nil, err
		}
	}

	for _, ne := range mt.GetEnumType() {
		if err := t.AddEnum(buildEnum(ne, ownPkg)); err != nil {
			return nil, err
		}
	}

	// Message-scoped extend blocks (the proto2 `message Foo { extend Bar {
	// ... } }` pattern commonly used for custom options) are attached
	// through the same deferred-extension protocol as a file-scoped
	// extend, with this message as the extension field's declaring owner.
	for _, ext := range mt.GetExtension() {
		f := buildField(ext, ownPkg)
		root.AddExtensionField(f, t, ownPkg)
	}

	return t, nil
}

// mapEntryInfo finds every nested map-entry synthetic message type
// (options.map_entry = true) and returns, per declaring field name, the key
// and value type descriptors it carries. A map<K,V> field is represented on
// the wire as a repeated message field whose message type has exactly two
// fields, number 1 (key) and number 2 (value); see spec.md section 4.2.
func mapEntryInfo(mt *descriptorpb.DescriptorProto) map[string]mapEntry {
	byTypeName := make(map[string]mapEntry)
	for _, nt := range mt.GetNestedType() {
		if !nt.GetOptions().GetMapEntry() {
			continue
		}
		var key, val *descriptorpb.FieldDescriptorProto
		for _, f := range nt.GetField() {
			switch f.GetNumber() {
			case 1:
				key = f
			case 2:
				val = f
			}
		}
		byTypeName["."+nt.GetName()] = mapEntry{key: key, val: val}
	}

	out := make(map[string]mapEntry)
	for _, f := range mt.GetField() {
		if f.GetLabel() != descriptorpb.FieldDescriptorProto_LABEL_REPEATED {
			continue
		}
		if f.GetType() != descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
			continue
		}
		short := shortTypeName(f.GetTypeName())
		if e, ok := byTypeName["."+short]; ok {
			out[f.GetName()] = e
		}
	}
	return out
}

type mapEntry struct {
	key, val *descriptorpb.FieldDescriptorProto
}

func shortTypeName(fqn string) string {
	fqn = strings.TrimPrefix(fqn, ".")
	if idx := strings.LastIndex(fqn, "."); idx >= 0 {
		return fqn[idx+1:]
	}
	return fqn
}

func buildMapField(fdp *descriptorpb.FieldDescriptorProto, entry mapEntry, scope string) *Field {
	valueTypeName := scalarKeyword[entry.val.GetType()]
	if valueTypeName == "" {
		valueTypeName = entry.val.GetTypeName()
	}

	f := NewField(fdp.GetName(), fdp.GetNumber(), valueTypeName, Repeated)
	f.IsMap = true
	f.KeyType = scalarKeyword[entry.key.GetType()]
	f.OneofIndex = -1
	return f
}

func buildField(fdp *descriptorpb.FieldDescriptorProto, scope string) *Field {
	rule := Singular
	switch fdp.GetLabel() {
	case descriptorpb.FieldDescriptorProto_LABEL_REQUIRED:
		rule = Required
	case descriptorpb.FieldDescriptorProto_LABEL_REPEATED:
		rule = Repeated
	case descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL:
		rule = Optional
	}

	typeName := scalarKeyword[fdp.GetType()]
	isGroup := fdp.GetType() == descriptorpb.FieldDescriptorProto_TYPE_GROUP
	if typeName == "" {
		typeName = fdp.GetTypeName()
	}

	f := NewField(fdp.GetName(), fdp.GetNumber(), typeName, rule)
	f.IsGroup = isGroup
	f.Extend = fdp.GetExtendee()
	if fdp.OneofIndex != nil {
		f.OneofIndex = int(fdp.GetOneofIndex())
	}
	if fdp.GetOptions() != nil && fdp.GetOptions().Packed != nil {
		packed := fdp.GetOptions().GetPacked()
		f.Packed = &packed
	}
	return f
}

func buildEnum(et *descriptorpb.EnumDescriptorProto, pkg string) *Enum {
	e := NewEnum(et.GetName())
	e.AllowAlias = et.GetOptions().GetAllowAlias()
	for _, v := range et.GetValue() {
		e.Add(v.GetName(), v.GetNumber())
	}
	return e
}
