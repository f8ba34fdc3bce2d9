package dynpb

// tryAttachExtension implements the deferred-extension protocol from
// spec.md section 4.5. f is a field declared with `extend = T`; this
// attempts to locate T in f's declaring scope and, on success, constructs
// a sister field living inside T with f's id, type, rule, and options. On
// failure, f is pushed onto (or left on) Root.deferred for a later retry,
// triggered whenever a new type is registered.
func (r *Root) tryAttachExtension(f *Field) {
	scopeName := f.declScope
	if f.parent != nil {
		scopeName = f.parent.FullName()
	}

	if !f.resolved {
		if err := f.resolveOwnType(r, scopeName); err != nil {
			r.deferExtension(f)
			return
		}
		f.resolved = true
	}

	v, ok := r.resolveSymbol(scopeName, f.Extend)
	if !ok {
		r.deferExtension(f)
		return
	}
	target, ok := v.(*Type)
	if !ok {
		r.deferExtension(f)
		return
	}

	sisterName := f.Extend + "." + f.Name
	if declaredIn := f.parent; declaredIn != nil {
		sisterName = declaredIn.FullName() + "." + f.Name
	}
	if _, exists := target.FieldByName(sisterName); exists {
		r.removeDeferred(f)
		return
	}

	sister := NewField(sisterName, f.ID, f.TypeName, f.Rule)
	sister.IsMap = f.IsMap
	sister.KeyType = f.KeyType
	sister.IsGroup = f.IsGroup
	sister.Options = f.Options
	sister.isBasic = f.isBasic
	sister.basicKind = f.basicKind
	sister.resolvedMsg = f.resolvedMsg
	sister.resolvedEnum = f.resolvedEnum
	sister.resolved = f.resolved

	_ = target.AddField(sister)

	f.extensionField = sister
	sister.declaringField = f

	r.removeDeferred(f)
}

func (r *Root) deferExtension(f *Field) {
	for _, d := range r.deferred {
		if d == f {
			return
		}
	}
	r.deferred = append(r.deferred, f)
}

func (r *Root) removeDeferred(f *Field) {
	for i, d := range r.deferred {
		if d == f {
			r.deferred = append(r.deferred[:i], r.deferred[i+1:]...)
			return
		}
	}
}

// retryDeferred re-attempts every currently deferred extension field. It is
// called whenever a new Type is added to the Root, per spec.md's "every
// time a new Type is added to the Root tree, the loader iterates the
// deferred list and retries each entry" rule.
func (r *Root) retryDeferred() {
	pending := make([]*Field, len(r.deferred))
	copy(pending, r.deferred)
	for _, f := range pending {
		r.tryAttachExtension(f)
	}
}

// AddExtensionField declares f (with a non-empty Extend target) against
// root, either attaching it immediately if its target is already loaded or
// deferring it otherwise. owner is f's declaring type (may be nil for a
// file-scoped extension declared outside any message, in which case scope
// - typically the declaring file's .proto package - is used to resolve
// both f's own declared type and its Extend target).
func (r *Root) AddExtensionField(f *Field, owner *Type, scope string) {
	f.parent = owner
	f.declScope = scope
	r.tryAttachExtension(f)
}
