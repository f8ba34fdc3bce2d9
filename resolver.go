package dynpb

import "github.com/simon-paris/dynpb/internal/tdp"

// resolveOwnType converts f's symbolic declared type into a direct
// reference: a primitive Kind, a nested *Type, or a nested *Enum (which,
// per spec.md, then decodes exactly like int32). scopeName is the dotted
// full name of the lexical scope the reference is resolved relative to.
// It does not touch f.resolved or the extend protocol; resolve (the
// normal field path) and tryAttachExtension (the extension-field path,
// which has no parent scope to read until it attaches) each call this
// with whatever scope they have and set f.resolved themselves.
func (f *Field) resolveOwnType(root *Root, scopeName string) error {
	if kind, ok := primitiveKinds[f.TypeName]; ok {
		f.isBasic = true
		f.basicKind = kind
		return nil
	}

	v, ok := root.resolveSymbol(scopeName, f.TypeName)
	if !ok {
		return &UnresolvedReferenceError{Field: f.Name, TypeName: f.TypeName}
	}
	switch target := v.(type) {
	case *Type:
		f.resolvedMsg = target
		if f.IsGroup {
			target.IsGroup = true
		}
	case *Enum:
		f.resolvedEnum = target
		f.isBasic = true
		f.basicKind = tdp.KindInt32
	}
	return nil
}

// resolve is the normal field-resolution path, used for every field that
// lives in a Type's Fields list. It is idempotent.
func (f *Field) resolve(root *Root) error {
	if f.resolved {
		return nil
	}

	scopeName := ""
	if f.parent != nil {
		scopeName = f.parent.FullName()
	}
	if err := f.resolveOwnType(root, scopeName); err != nil {
		return err
	}
	f.resolved = true

	if f.Extend != "" {
		root.tryAttachExtension(f)
	}

	return nil
}

// ResolveAll resolves every field of every registered type. It does not
// itself retry the deferred-extension list: deferred fields are retried each
// time a type is added (Root.AddType, Root.AddTypeToPackage). Per the
// invariant in spec.md section 3, a fully resolved Root has an empty
// deferred list; if extension fields are still deferred once every field
// has resolved, ResolveAll fails with UnresolvableExtensionsError rather
// than leaving the Root partially usable.
func (r *Root) ResolveAll() error {
	for _, t := range r.types {
		for _, f := range t.Fields {
			if err := f.resolve(r); err != nil {
				return err
			}
		}
	}

	if len(r.deferred) > 0 {
		return &UnresolvableExtensionsError{Pending: r.DeferredNames()}
	}
	return nil
}
