package dynpb

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/simon-paris/dynpb/internal/tdp"
	"github.com/simon-paris/dynpb/internal/wellknown"
)

// Root is the top of the schema tree. Besides being a Namespace, it owns
// the state the loader needs across a whole load: deferred extension
// fields awaiting their target, the set of already-processed filenames
// (for import dedup), the bundled well-known-type table, and the flat type
// registry that assigns every resolved Type a stable index.
type Root struct {
	Namespace

	loadID uuid.UUID

	deferred []*Field
	files    map[string]bool
	bundled  *wellknown.Table

	types   []*Type // index -> Type
	symbols map[string]any // fully-qualified dotted name -> *Type or *Enum

	packages map[string]*Namespace // dotted package path -> synthetic namespace node
}

// NewRoot creates an empty schema root. It is stamped with a random LoadID
// so that FetchError/ParseError messages surfaced from concurrent
// asynchronous fetches (see loader_async.go) can be correlated back to the
// load that produced them, even when several loads are in flight in the
// same process at once.
func NewRoot() *Root {
	return &Root{
		Namespace: newNamespace("", nil),
		loadID:    uuid.New(),
		files:     make(map[string]bool),
		bundled:   wellknown.Default(),
		symbols:   make(map[string]any),
		packages:  make(map[string]*Namespace),
	}
}

// LoadID returns the random identifier assigned to this Root when it was
// created, for correlating diagnostics across a single load.
func (r *Root) LoadID() uuid.UUID { return r.loadID }

// packageNamespace returns the synthetic Namespace node for a dotted
// package path (e.g. "pkg.sub"), creating it and every missing ancestor
// segment on first use. A file-scoped (package "") declaration attaches
// directly under the Root's own Namespace. This is what lets a top-level
// type's FullName carry its .proto package the same way a nested type's
// FullName carries its enclosing message, even though package membership
// isn't itself a message or enum.
func (r *Root) packageNamespace(pkg string) *Namespace {
	if pkg == "" {
		return &r.Namespace
	}
	if ns, ok := r.packages[pkg]; ok {
		return ns
	}
	parentPkg, last := "", pkg
	if idx := strings.LastIndex(pkg, "."); idx >= 0 {
		parentPkg, last = pkg[:idx], pkg[idx+1:]
	}
	ns := newNamespace(last, r.packageNamespace(parentPkg))
	nsPtr := &ns
	r.packages[pkg] = nsPtr
	return nsPtr
}

// resolveSymbol implements protobuf's lexical scoping rule for a reference
// name seen in scope scopeFullName (the dotted full name of the innermost
// enclosing message, or "" at file scope): try scope+"."+name, then each
// enclosing scope in turn, then name on its own (an absolute/package-level
// reference). A leading "." on name means it is already fully qualified.
func (r *Root) resolveSymbol(scopeFullName, name string) (any, bool) {
	if strings.HasPrefix(name, ".") {
		v, ok := r.symbols[name[1:]]
		return v, ok
	}

	if scopeFullName == "" {
		v, ok := r.symbols[name]
		return v, ok
	}

	parts := strings.Split(scopeFullName, ".")
	for i := len(parts); i >= 0; i-- {
		candidate := name
		if i > 0 {
			candidate = strings.Join(parts[:i], ".") + "." + name
		}
		if v, ok := r.symbols[candidate]; ok {
			return v, true
		}
	}
	return nil, false
}

// ProgramAt implements tdp.Registry: it resolves a registry index to the
// compiled dispatch table for the Type at that index, compiling it on
// first use. This indirection - by index, not by pointer or name - is what
// makes a message type that nests itself representable: the Program for
// type N can reference registry slot N before that Program finishes
// compiling, because the slot is only dereferenced once decoding actually
// recurses into it.
func (r *Root) ProgramAt(index int) *tdp.Program {
	t := r.types[index]
	t.compileOnce.Do(func() { t.program = compileProgram(t) })
	return t.program
}

var _ tdp.Registry = (*Root)(nil)

// registerType assigns t (and, transitively, every type/enum nested inside
// it) a stable index, and stamps t.root so later lookups (ProgramAt,
// lexical scoping) know which Root they belong to. It is idempotent: a
// type that already has a non-negative index is left alone.
func (r *Root) registerType(t *Type) {
	if t.index >= 0 && t.root == r {
		return
	}
	t.root = r
	t.index = len(r.types)
	r.types = append(r.types, t)
	r.symbols[t.FullName()] = t

	for _, name := range t.order {
		if nested, ok := t.nestedTypes[name]; ok {
			r.registerType(nested)
		} else if e, ok := t.nestedEnums[name]; ok {
			r.symbols[e.FullName()] = e
		}
	}
}

// AddType adds a top-level type to the root and assigns it (and all of its
// nested types) registry indices.
func (r *Root) AddType(t *Type) error {
	if err := r.Namespace.AddType(t); err != nil {
		return err
	}
	r.registerType(t)
	r.retryDeferred()
	return nil
}

// AddEnum adds a top-level enum to the root.
func (r *Root) AddEnum(e *Enum) error {
	if err := r.Namespace.AddEnum(e); err != nil {
		return err
	}
	r.symbols[e.FullName()] = e
	return nil
}

// AddTypeToPackage adds a top-level type declared in .proto package pkg
// (dotted, possibly empty). BuildFile uses this instead of AddType for
// every file that declares a package, so the type's FullName - and
// therefore its entry in the symbol table other files resolve references
// against - carries that package.
func (r *Root) AddTypeToPackage(pkg string, t *Type) error {
	if pkg == "" {
		return r.AddType(t)
	}
	if err := r.packageNamespace(pkg).AddType(t); err != nil {
		return err
	}
	r.registerType(t)
	r.retryDeferred()
	return nil
}

// AddEnumToPackage is AddTypeToPackage's counterpart for top-level enums.
func (r *Root) AddEnumToPackage(pkg string, e *Enum) error {
	if pkg == "" {
		return r.AddEnum(e)
	}
	if err := r.packageNamespace(pkg).AddEnum(e); err != nil {
		return err
	}
	r.symbols[e.FullName()] = e
	return nil
}

// markFileProcessed records filename (already resolved to a canonical
// form) as processed. It reports whether this is the first time the file
// has been seen; a repeat is a no-op for the caller.
func (r *Root) markFileProcessed(filename string) (first bool) {
	if r.files[filename] {
		return false
	}
	r.files[filename] = true
	return true
}

// BundledFileName returns the canonical bundled name for path - the suffix
// of path starting at the last occurrence of "google/protobuf/" - if that
// suffix is a key in the bundled well-known-types table, and ok=false
// otherwise. Per the invariant in spec.md, lookup is by suffix match, not
// by exact path equality, so "vendor/include/google/protobuf/any.proto" and
// "google/protobuf/any.proto" name the same bundled file.
func (r *Root) BundledFileName(path string) (name string, ok bool) {
	const marker = "google/protobuf/"
	idx := strings.LastIndex(path, marker)
	if idx < 0 {
		return "", false
	}
	suffix := path[idx:]
	if r.bundled.Has(suffix) {
		return suffix, true
	}
	return "", false
}

// AllTypes returns every registered type in index order.
func (r *Root) AllTypes() []*Type {
	out := make([]*Type, len(r.types))
	copy(out, r.types)
	return out
}

// DeferredNames returns the extend target and declaring-type full name of
// every currently-deferred extension field, sorted for deterministic
// error messages.
func (r *Root) DeferredNames() []PendingExtension {
	out := make([]PendingExtension, 0, len(r.deferred))
	for _, f := range r.deferred {
		declaredIn := ""
		if f.parent != nil {
			declaredIn = f.parent.FullName()
		}
		out = append(out, PendingExtension{ExtendTarget: f.Extend, DeclaredIn: declaredIn})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExtendTarget != out[j].ExtendTarget {
			return out[i].ExtendTarget < out[j].ExtendTarget
		}
		return out[i].DeclaredIn < out[j].DeclaredIn
	})
	return out
}
