package dynpb

// Enum is a name-to-integer mapping. Enum values are always decoded on the
// wire as int32 (see Field.resolve); aliases (two names mapping to the same
// number) are permitted when AllowAlias is set.
type Enum struct {
	name       string
	parent     *Namespace
	Values     map[string]int32
	byNumber   map[int32][]string
	AllowAlias bool
}

// NewEnum creates an empty enum named name.
func NewEnum(name string) *Enum {
	return &Enum{name: name, Values: make(map[string]int32), byNumber: make(map[int32][]string)}
}

// Name returns the enum's unqualified name.
func (e *Enum) Name() string { return e.name }

// FullName returns the dotted, fully-qualified name of this enum.
func (e *Enum) FullName() string {
	if e.parent == nil || e.parent.name == "" {
		return e.name
	}
	return e.parent.FullName() + "." + e.name
}

// Add registers name -> number. If number already has a name and
// AllowAlias is not set, Add still succeeds (schema construction is
// permissive); alias detection is advisory via Aliases.
func (e *Enum) Add(name string, number int32) {
	e.Values[name] = number
	e.byNumber[number] = append(e.byNumber[number], name)
}

// Aliases returns every name mapped to number, in registration order. A
// length greater than one indicates an alias.
func (e *Enum) Aliases(number int32) []string { return e.byNumber[number] }

// Lookup returns the canonical (first-registered) name for number, if any.
func (e *Enum) Lookup(number int32) (string, bool) {
	names := e.byNumber[number]
	if len(names) == 0 {
		return "", false
	}
	return names[0], true
}
